package market

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTicker is returned when a raw instrument string cannot be
// normalized to an exchange prefix plus 6-digit code.
var ErrInvalidTicker = errors.New("invalid ticker")

// Exchange prefixes for mainland A-share listings.
var validPrefixes = map[string]struct{}{
	"sh": {}, // Shanghai
	"sz": {}, // Shenzhen
	"bj": {}, // Beijing
}

// NormalizeTicker converts a raw ticker like "SH600519" or "sz000001" to
// its canonical form: lowercase exchange prefix followed by the 6-digit
// code. The canonical string is what every map in the pipeline keys on.
func NormalizeTicker(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 8 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}

	prefix, code := s[:2], s[2:]
	if _, ok := validPrefixes[prefix]; !ok {
		return "", fmt.Errorf("%w: unknown exchange prefix in %q", ErrInvalidTicker, raw)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w: non-numeric code in %q", ErrInvalidTicker, raw)
		}
	}

	return prefix + code, nil
}
