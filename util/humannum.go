package util

import "strconv"

// Multipliers for the single-letter size suffixes zfs accepts on
// properties like quota. Lowercase and uppercase are equivalent.
var sizeSuffix = map[byte]int64{
	'b': 1,
	'k': 1 << 10,
	'm': 1 << 20,
	'g': 1 << 30,
	't': 1 << 40,
	'p': 1 << 50,
	'e': 1 << 60,
}

// ParseHumanNumber parses a byte count of the form `\d+[bkmgtpe]?`,
// e.g. "512", "10k", "3G". Anything else fails with
// BadHumanNumberError.
func ParseHumanNumber(s string) (int64, error) {
	if s == "" {
		return 0, Errorf(ErrBadHumanNumber, "empty size")
	}
	digits := s
	mult := int64(1)
	last := s[len(s)-1]
	if last < '0' || last > '9' {
		m, ok := sizeSuffix[lower(last)]
		if !ok {
			return 0, Errorf(ErrBadHumanNumber, "bad size suffix in %q", s)
		}
		mult = m
		digits = s[:len(s)-1]
	}
	if digits == "" {
		return 0, Errorf(ErrBadHumanNumber, "no digits in %q", s)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, Errorf(ErrBadHumanNumber, "bad size %q", s)
	}
	return n * mult, nil
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}
