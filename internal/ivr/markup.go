package ivr

import (
	"bytes"
	"encoding/xml"
)

// Voice markup understood by the carrier's voice platform.
// Everything goes through encoding/xml so text and attributes are always escaped.

type response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type say struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type getDigits struct {
	XMLName     xml.Name `xml:"GetDigits"`
	Timeout     int      `xml:"timeout,attr"`
	NumDigits   int      `xml:"numDigits,attr"`
	CallbackURL string   `xml:"callbackUrl,attr"`
	Say         say
}

type redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	URL     string   `xml:",chardata"`
}

type hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

const (
	digitTimeoutSeconds = 20
	numDigits           = 1
)

// Fallback is served when markup could not be rendered; the carrier drops calls on bad XML.
const Fallback = xml.Header + "<Response>\n  <Say>Goodbye.</Say>\n  <Hangup></Hangup>\n</Response>"

func collect(callbackURL, prompt string) getDigits {
	return getDigits{
		Timeout:     digitTimeoutSeconds,
		NumDigits:   numDigits,
		CallbackURL: callbackURL,
		Say:         say{Text: prompt},
	}
}

func render(verbs ...any) (string, error) {
	r := response{Verbs: verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
