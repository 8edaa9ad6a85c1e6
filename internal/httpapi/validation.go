package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// msisdnPattern accepts international numbers with an optional leading +.
var msisdnPattern = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

// RegisterValidators adds the msisdn tag to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return msisdnPattern.MatchString(fl.Field().String())
	})
}

// bindError maps a binding failure to the message returned to the client.
func bindError(err error, missing string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "msisdn" {
				return fmt.Sprintf("invalid phone number %q", fe.Value())
			}
		}
		return missing
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "invalid json"
	}
	return missing
}
