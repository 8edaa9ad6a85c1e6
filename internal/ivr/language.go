package ivr

import "strings"

type Language string

const (
	English Language = "en"
	Swahili Language = "sw"
)

// ParseLanguage maps a query value to a language, defaulting to English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sw", "swahili", "kiswahili":
		return Swahili
	default:
		return English
	}
}

// LanguageFromDigit interprets the language menu key press: 2 is Swahili, anything else English.
func LanguageFromDigit(digit string) Language {
	if SanitizeDigits(digit) == "2" {
		return Swahili
	}
	return English
}

// InvalidDigits stands in for carrier input that is not a single keypad press.
const InvalidDigits = "?"

// SanitizeDigits accepts exactly one keypad character (0-9, * or #) after trimming.
// Empty input stays empty; anything else becomes InvalidDigits.
func SanitizeDigits(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return ""
	case len(s) == 1 && strings.Contains("0123456789*#", s):
		return s
	default:
		return InvalidDigits
	}
}

type prompts struct {
	welcome       string
	noLanguage    string
	languageBye   string
	menuIntro     string
	menu          string
	menuRepeat    string
	menuBye       string
	askAssistant  string
	companyInfo   string
	agentBusy     string
	goodbye       string
	invalidChoice string
}

var catalog = map[Language]prompts{
	English: {
		welcome:       "Welcome. For English, press 1. Kwa Kiswahili, bonyeza 2.",
		noLanguage:    "We did not receive your choice. Hatukupokea chaguo lako.",
		languageBye:   "No input received. Goodbye. Kwaheri.",
		menuIntro:     "Please choose an option.",
		menu:          "Press 1 to ask our assistant a question. Press 2 for company information. Press 3 to speak to an agent. Press 4 to repeat this menu. Press 5 to end the call.",
		menuRepeat:    "No input received. Repeating the menu.",
		menuBye:       "Still no input received. Goodbye.",
		askAssistant:  "Please send your question by SMS to our shortcode and our assistant will reply shortly. Goodbye.",
		companyInfo:   "We provide SMS, voice, USSD and airtime services across East Africa. Our operating hours are Monday to Friday, eight A M to six P M East Africa Time. Goodbye.",
		agentBusy:     "All agents are currently busy. Please try again later, or send us an SMS. Goodbye.",
		goodbye:       "Thank you. Ending the call now. Goodbye.",
		invalidChoice: "Invalid choice. Goodbye.",
	},
	Swahili: {
		menuIntro:     "Tafadhali chagua huduma.",
		menu:          "Bonyeza 1 kuuliza msaidizi wetu swali. Bonyeza 2 kwa taarifa za kampuni. Bonyeza 3 kuongea na wakala. Bonyeza 4 kurudia menyu hii. Bonyeza 5 kumaliza simu.",
		menuRepeat:    "Hatukupokea chaguo lako. Tunarudia menyu.",
		menuBye:       "Bado hatujapokea chaguo. Kwaheri.",
		askAssistant:  "Tafadhali tuma swali lako kwa SMS na msaidizi wetu atakujibu hivi karibuni. Kwaheri.",
		companyInfo:   "Tunatoa huduma za SMS, simu, USSD na muda wa maongezi Afrika Mashariki. Tunafanya kazi Jumatatu hadi Ijumaa, saa mbili asubuhi hadi saa kumi na mbili jioni. Kwaheri.",
		agentBusy:     "Mawakala wetu wote wana shughuli kwa sasa. Tafadhali jaribu tena baadaye, au tutumie SMS. Kwaheri.",
		goodbye:       "Asante. Tunamaliza simu sasa. Kwaheri.",
		invalidChoice: "Chaguo si sahihi. Kwaheri.",
	},
}

func textsFor(lang Language) prompts {
	if p, ok := catalog[lang]; ok {
		return p
	}
	return catalog[English]
}
