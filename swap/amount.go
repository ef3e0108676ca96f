package swap

import (
	"math/big"
	"strings"
)

// DisplayDecimals is the number of fractional digits shown for output amounts.
const DisplayDecimals = 6

// SanitizeAmount strips everything except digits and the first decimal point
// from a user-supplied amount string.
func SanitizeAmount(s string) string {
	var b strings.Builder
	seenDot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseUnits converts a human-readable decimal string to the token's smallest
// unit. Excess fractional digits are truncated. Returns false on garbage input.
func ParseUnits(s string, decimals int) (*big.Int, bool) {
	s = SanitizeAmount(s)
	if s == "" || s == "." {
		return nil, false
	}

	intPart := s
	fracPart := ""
	if idx := strings.Index(s, "."); idx != -1 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}

	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	for len(fracPart) < decimals {
		fracPart += "0"
	}

	val, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, false
	}
	return val, true
}

// ParseDecimal parses a decimal string with unknown scale into smallest units
// of the given precision, returning zero for unparseable input. Quote ranking
// relies on the zero fallback so that malformed routes sort last.
func ParseDecimal(s string, decimals int) *big.Int {
	v, ok := ParseUnits(s, decimals)
	if !ok {
		return new(big.Int)
	}
	return v
}

// FormatUnits renders a smallest-unit amount as a thousand-separated decimal
// string with exactly DisplayDecimals fractional digits. All arithmetic is
// integer; 18-decimal amounts never round-trip through floats.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0." + strings.Repeat("0", DisplayDecimals)
	}

	s := new(big.Int).Abs(v).String()
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	intPart := s[:len(s)-decimals]
	fracPart := s[len(s)-decimals:]

	if len(fracPart) > DisplayDecimals {
		fracPart = fracPart[:DisplayDecimals]
	}
	for len(fracPart) < DisplayDecimals {
		fracPart += "0"
	}

	var sb strings.Builder
	if v.Sign() < 0 {
		sb.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('.')
	sb.WriteString(fracPart)
	return sb.String()
}
