// Package dice provides the randomness abstraction and roll-result types
// for the Loreforge combat engine.
package dice

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Mode selects how a d20 roll is resolved.
type Mode string

const (
	Normal       Mode = "normal"
	Advantage    Mode = "advantage"
	Disadvantage Mode = "disadvantage"
)

// Valid reports whether m is one of the three recognised roll modes.
func (m Mode) Valid() bool {
	switch m {
	case Normal, Advantage, Disadvantage:
		return true
	}
	return false
}

// D20Result holds the full audit trail for one d20 resolution.
//
// Rolls always records every die thrown: one entry for Normal, two for
// Advantage and Disadvantage, so callers can show what was discarded.
type D20Result struct {
	Rolls  []int // raw die faces, in roll order
	Result int   // selected die + modifier
	Crit   bool  // selected die showed 20
	Fail   bool  // selected die showed 1
}

// DamageResult holds the outcome of evaluating one damage formula.
//
// An unparseable formula yields Rolls == nil and Total == 0; this is a valid,
// displayable outcome rather than an error (see ParseFormula).
type DamageResult struct {
	Rolls   []int
	Total   int
	Formula string
}

// Modifier computes the standard ability modifier: floor((score - 10) / 2).
//
// Postcondition: exact floor semantics for scores below 10, e.g.
// Modifier(8) == -1, Modifier(10) == 0, Modifier(20) == 5.
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// RollDice returns count independent uniform integers in [1, sides].
//
// Precondition: count >= 0, sides >= 1, src non-nil.
// Postcondition: len(result) == count; every value is in [1, sides].
func RollDice(src Source, count, sides int) []int {
	rolls := make([]int, count)
	for i := range rolls {
		rolls[i] = src.Intn(sides) + 1
	}
	return rolls
}

// RollD20 resolves one d20 roll under the given mode.
//
// Normal rolls one die. Advantage rolls two and keeps the maximum;
// Disadvantage rolls two and keeps the minimum. Crit and Fail are judged
// only on the selected die, never on the discarded one.
//
// Precondition: src non-nil; mode must satisfy mode.Valid().
// Postcondition: Result == selected die + modifier.
func RollD20(src Source, mode Mode, modifier int) D20Result {
	switch mode {
	case Advantage, Disadvantage:
		rolls := RollDice(src, 2, 20)
		selected := rolls[0]
		if mode == Advantage && rolls[1] > selected {
			selected = rolls[1]
		}
		if mode == Disadvantage && rolls[1] < selected {
			selected = rolls[1]
		}
		return D20Result{
			Rolls:  rolls,
			Result: selected + modifier,
			Crit:   selected == 20,
			Fail:   selected == 1,
		}
	default:
		rolls := RollDice(src, 1, 20)
		return D20Result{
			Rolls:  rolls,
			Result: rolls[0] + modifier,
			Crit:   rolls[0] == 20,
			Fail:   rolls[0] == 1,
		}
	}
}

// RollFormula rolls a parsed Formula.
//
// Postcondition: Total == sum(Rolls) + f.Bonus; len(Rolls) == f.Count.
func RollFormula(src Source, f Formula) DamageResult {
	rolls := RollDice(src, f.Count, f.Sides)
	total := f.Bonus
	for _, r := range rolls {
		total += r
	}
	return DamageResult{Rolls: rolls, Total: total, Formula: f.Raw}
}

// RollDamage parses and rolls a damage formula string.
//
// A formula that fails to parse degrades to a zero result carrying the
// original string; GM-entered formulas are free text and the show must go on.
func RollDamage(src Source, formula string) DamageResult {
	f, ok := ParseFormula(formula)
	if !ok {
		return DamageResult{Total: 0, Formula: formula}
	}
	return RollFormula(src, f)
}
