package dice

import (
	"strconv"
	"strings"
)

// Formula is a parsed damage formula ready to be rolled.
//
// Invariant: Count >= 1 and Sides >= 1 after a successful ParseFormula.
// The formula is parsed once and reused for both the normal and the
// critical-hit damage path, so the bonus is never re-derived from the string.
type Formula struct {
	Raw   string // original input, e.g. "2d6+3"
	Count int    // number of dice
	Sides int    // faces per die
	Bonus int    // flat bonus (may be negative)
}

// ParseFormula parses a damage formula of the form
//
//	<count>d<sides>[(+|-)<bonus>]
//
// with arbitrary whitespace tolerated around the sign. The second return
// value reports whether the input parsed; malformed input returns
// (Formula{}, false) rather than an error, because formulas are GM-entered
// free text and callers degrade them to a zero roll.
func ParseFormula(raw string) (Formula, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Formula{}, false
	}

	dIdx := strings.Index(s, "d")
	if dIdx <= 0 {
		// A leading "d" ("d6") is rejected: the source formulas always
		// carry an explicit die count.
		return Formula{}, false
	}

	count, err := strconv.Atoi(strings.TrimSpace(s[:dIdx]))
	if err != nil || count < 1 {
		return Formula{}, false
	}

	rest := s[dIdx+1:]

	// Split off an optional signed bonus.
	signIdx := strings.IndexAny(rest, "+-")
	bonus := 0
	sidesStr := rest
	if signIdx >= 0 {
		sidesStr = rest[:signIdx]
		sign := rest[signIdx]
		bonusStr := strings.TrimSpace(rest[signIdx+1:])
		b, err := strconv.Atoi(bonusStr)
		if err != nil || b < 0 {
			return Formula{}, false
		}
		bonus = b
		if sign == '-' {
			bonus = -b
		}
	}

	sides, err := strconv.Atoi(strings.TrimSpace(sidesStr))
	if err != nil || sides < 1 {
		return Formula{}, false
	}

	return Formula{Raw: raw, Count: count, Sides: sides, Bonus: bonus}, true
}
