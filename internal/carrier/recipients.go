package carrier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Recipients is an ordered list of phone numbers.
// In JSON it accepts a single number, a comma-joined string or an array of strings.
type Recipients []string

// ParseRecipients splits a comma-joined list, trimming entries and dropping empties.
func ParseRecipients(s string) Recipients {
	return Recipients(strings.Split(s, ",")).normalize()
}

func (r *Recipients) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = ParseRecipients(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("recipients must be a string or a list of strings: %w", err)
	}
	*r = Recipients(list).normalize()
	return nil
}

// String returns the comma-joined form the carrier expects.
func (r Recipients) String() string {
	return strings.Join(r, ",")
}

func (r Recipients) normalize() Recipients {
	out := make(Recipients, 0, len(r))
	for _, n := range r {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
