package common

import (
	"fmt"
	"strings"
)

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol checks the ticker format before any network call:
// 1-20 characters, alphanumeric plus '.' and '-'.
func ValidateSymbol(symbol string) error {
	s := NormalizeSymbol(symbol)
	if len(s) < 1 || len(s) > 20 {
		return fmt.Errorf("invalid symbol %q: must be 1-20 characters", symbol)
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return fmt.Errorf("invalid symbol %q: illegal character %q", symbol, r)
		}
	}
	return nil
}
