package core

import (
	"strconv"
	"strings"
)

// ParseHours converts user-entered hours to a float64.
//
// It accepts both dot (7.5) and comma (7,5) decimal separators.
// Unparseable or negative input yields 0; zero-hour entries are pruned
// at commit time rather than rejected, so a zero here never errors.
func ParseHours(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseBonus converts user-entered bonus rate input to a float64 with
// the same lenient zero-on-failure behavior as ParseHours. Whether the
// resulting rate is allowed for the target day is checked separately
// with ValidBonus.
func ParseBonus(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
