package dispatch

import (
	"errors"
	"regexp"
	"strings"
)

var ErrNoNumberFound = errors.New("dispatch: no phone number found in command")

// numberPattern matches the first phone-number-like substring of a free-text
// command: a leading + or digit followed by at least 8 further digits,
// spaces, dashes, or parentheses.
var numberPattern = regexp.MustCompile(`[+\d][\d\s\-()]{8,}`)

// ExtractNumber pulls the first phone-number-like substring out of a
// free-text command and normalizes it.
func ExtractNumber(command string) (string, error) {
	match := numberPattern.FindString(command)
	if match == "" {
		return "", ErrNoNumberFound
	}
	return NormalizeNumber(match), nil
}

// NormalizeNumber strips spaces, dashes, and parentheses, leaving the digits
// and any leading +.
func NormalizeNumber(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(raw))
}
