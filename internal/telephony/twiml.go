package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary; outbound campaign
// calls just speak a greeting.

// DefaultGreeting is the static announcement played on every campaign call.
const DefaultGreeting = "Hello! This is an automated call from the outbound campaign system. " +
	"This is a demonstration call for testing purposes. Thank you and goodbye!"

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// RenderSayTwiML renders a single spoken message.
func RenderSayTwiML(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("telephony: say message required")
	}

	r := twimlResponse{
		Verbs: []any{twimlSay{Voice: "alice", Language: "en-US", Text: message}},
	}

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
