// Package ivr renders the voice menu. Every function is pure: the call position comes
// from the callback path and the language from the callback query.
package ivr

// RenderLanguagePrompt asks the caller to pick a language. A timeout redirects back to
// the prompt until MaxLanguageAttempts is reached, then the call ends.
func RenderLanguagePrompt(cb Callbacks, attempt int) (string, error) {
	if attempt < 1 {
		attempt = 1
	}
	t := textsFor(English)

	verbs := []any{collect(cb.Lang(), t.welcome)}
	if attempt < MaxLanguageAttempts {
		verbs = append(verbs,
			say{Text: t.noLanguage},
			redirect{URL: cb.Actions(attempt + 1)},
		)
	} else {
		verbs = append(verbs, say{Text: t.languageBye}, hangup{})
	}
	return render(verbs...)
}

// RenderMainMenu plays the main menu twice before giving up.
func RenderMainMenu(cb Callbacks, lang Language) (string, error) {
	t := textsFor(lang)
	next := cb.Digits(lang)

	return render(
		say{Text: t.menuIntro},
		collect(next, t.menu),
		say{Text: t.menuRepeat},
		collect(next, t.menu),
		say{Text: t.menuBye},
		hangup{},
	)
}

// RenderSelectionResult answers a main menu key press. An empty digit is treated as
// the end call option.
func RenderSelectionResult(cb Callbacks, digit string, lang Language) (string, error) {
	t := textsFor(lang)

	switch SanitizeDigits(digit) {
	case "1":
		return terminal(t.askAssistant)
	case "2":
		return terminal(t.companyInfo)
	case "3":
		return terminal(t.agentBusy)
	case "4":
		return render(redirect{URL: cb.Menu(lang)})
	case "5", "":
		return terminal(t.goodbye)
	default:
		return terminal(t.invalidChoice)
	}
}

// RenderEmpty is the envelope returned for call summaries of inactive calls.
func RenderEmpty() (string, error) {
	return render()
}

// RenderFarewell ends the call politely; used when a request cannot be interpreted.
func RenderFarewell(lang Language) (string, error) {
	return terminal(textsFor(lang).goodbye)
}

// StageOf reports which stage a selection leads to.
func StageOf(digit string) Stage {
	if SanitizeDigits(digit) == "4" {
		return StageMainMenu
	}
	return StageTerminal
}

func terminal(text string) (string, error) {
	return render(say{Text: text}, hangup{})
}
