package rbac

import (
	"fmt"
	"strings"
)

// Scope names. Keep these stable; they are part of issued API tokens.
const (
	ScopeSMS      = "sms"
	ScopeAirtime  = "airtime"
	ScopeVoice    = "voice"
	ScopeWhatsApp = "whatsapp"
	ScopeAll      = "*"
)

var knownScopes = map[string]struct{}{
	ScopeSMS:      {},
	ScopeAirtime:  {},
	ScopeVoice:    {},
	ScopeWhatsApp: {},
	ScopeAll:      {},
}

func IsKnownScope(s string) bool {
	_, ok := knownScopes[s]
	return ok
}

// ParseScopes splits a comma list, rejecting unknown names.
func ParseScopes(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !IsKnownScope(part) {
			return nil, fmt.Errorf("unknown scope %q", part)
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scopes in %q", s)
	}
	return out, nil
}
