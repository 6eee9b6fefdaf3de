package phone

import (
	"errors"
	"strings"
)

// ErrImplausible is returned when a normalized number carries fewer than ten
// digits. Treat the normalized output as advisory either way; the telephony
// provider still has the final word on whether a number is dialable.
var ErrImplausible = errors.New("phone: implausible number")

const minDigits = 10

// Normalize converts an arbitrary user-entered phone string into E.164 form,
// e.g. "+919876543210" or "+15551234567".
//
// This is a best-effort heuristic, not a numbering-plan validator. Rules are
// applied in order, first match wins:
//  1. already prefixed with "+" -> keep as-is
//  2. "00" international prefix -> "+"
//  3. 10 digits starting 6-9 -> "+91" (default market)
//  4. 10 digits otherwise -> "+1"
//  5. 11 digits starting "1" -> "+"
//  6. 12 digits starting "91" -> "+"
//  7. anything else -> defaultCC prefix
func Normalize(raw, defaultCC string) (string, error) {
	cleaned := strip(raw)
	if cleaned == "" {
		return "", ErrImplausible
	}
	if defaultCC == "" {
		defaultCC = "+91"
	}

	var out string
	switch {
	case strings.HasPrefix(cleaned, "+"):
		out = cleaned
	case strings.HasPrefix(cleaned, "00"):
		out = "+" + cleaned[2:]
	case len(cleaned) == 10 && cleaned[0] >= '6' && cleaned[0] <= '9':
		out = "+91" + cleaned
	case len(cleaned) == 10:
		out = "+1" + cleaned
	case len(cleaned) == 11 && strings.HasPrefix(cleaned, "1"):
		out = "+" + cleaned
	case len(cleaned) == 12 && strings.HasPrefix(cleaned, "91"):
		out = "+" + cleaned
	default:
		out = defaultCC + cleaned
	}

	if digitCount(out) < minDigits {
		return "", ErrImplausible
	}
	return out, nil
}

// strip removes everything except digits and a leading "+".
func strip(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && b.Len() == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
