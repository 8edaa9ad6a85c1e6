package ivr

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// StateVersion tags every callback query the gateway hands to the carrier.
	StateVersion = "1"

	MaxLanguageAttempts = 3

	paramVersion  = "v"
	paramLang     = "lang"
	paramAttempt  = "attempt"
	callbackGroup = "/voice"
)

// Stage is the position in the call flow, encoded by which callback path the carrier hits.
type Stage int

const (
	StageLanguageSelect Stage = iota
	StageMainMenu
	StageDigitCollected
	StageTerminal
)

func (s Stage) String() string {
	switch s {
	case StageLanguageSelect:
		return "language_select"
	case StageMainMenu:
		return "main_menu"
	case StageDigitCollected:
		return "digit_collected"
	case StageTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// State is the call state carried across requests in callback query strings.
// The carrier echoes it back verbatim, so it is untrusted and validated on every read.
type State struct {
	Lang    Language
	Attempt int
}

// ParseState reads state from a callback query. Unknown versions and out of range
// values fall back to defaults rather than failing the call.
func ParseState(q url.Values) State {
	s := State{Lang: English, Attempt: 1}
	if v := q.Get(paramVersion); v != "" && v != StateVersion {
		return s
	}
	s.Lang = ParseLanguage(q.Get(paramLang))
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get(paramAttempt))); err == nil && n >= 1 && n <= MaxLanguageAttempts {
		s.Attempt = n
	}
	return s
}

// Callbacks builds absolute callback URLs under an externally reachable origin.
type Callbacks struct {
	// Origin is scheme://host, without a trailing slash.
	Origin string
}

func NewCallbacks(origin string) Callbacks {
	return Callbacks{Origin: strings.TrimRight(origin, "/")}
}

func (cb Callbacks) Actions(attempt int) string {
	q := url.Values{paramVersion: {StateVersion}}
	if attempt > 1 {
		q.Set(paramAttempt, strconv.Itoa(attempt))
	}
	return cb.build("/actions", q)
}

func (cb Callbacks) Lang() string {
	return cb.build("/lang", url.Values{paramVersion: {StateVersion}})
}

func (cb Callbacks) Menu(lang Language) string {
	return cb.build("/menu", url.Values{paramVersion: {StateVersion}, paramLang: {string(lang)}})
}

func (cb Callbacks) Digits(lang Language) string {
	return cb.build("/digits", url.Values{paramVersion: {StateVersion}, paramLang: {string(lang)}})
}

func (cb Callbacks) build(path string, q url.Values) string {
	return cb.Origin + callbackGroup + path + "?" + q.Encode()
}
