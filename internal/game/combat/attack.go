package combat

import "github.com/loreforge/loreforge/internal/game/dice"

// AttackResult is the outcome of executing one action: an optional attack
// roll plus one damage resolution per damage type on the action.
type AttackResult struct {
	// Attack is nil when the action has no attack-roll definition (an
	// automatic-hit spell, for example).
	Attack *dice.D20Result
	Damage []dice.DamageResult
}

// ExecuteAttack resolves an action under the given roll mode.
//
// When the action has an attack bonus, one d20 is resolved under mode. Each
// damage entry is then rolled independently from its own formula. On a
// critical hit the dice portion of every damage entry is rolled a second
// time and added to the first set: double dice, with the static bonus
// applied exactly once. Each damage type crits separately but shares the
// single attack roll's crit flag.
//
// Malformed damage formulas degrade to a zero roll rather than failing the
// whole action.
//
// Precondition: src non-nil; mode must satisfy mode.Valid().
func ExecuteAttack(src dice.Source, action Action, mode dice.Mode) AttackResult {
	var result AttackResult

	crit := false
	if action.AttackBonus != nil {
		attack := dice.RollD20(src, mode, *action.AttackBonus)
		result.Attack = &attack
		crit = attack.Crit
	}

	for _, spec := range action.Damage {
		f, ok := dice.ParseFormula(spec.Formula)
		if !ok {
			result.Damage = append(result.Damage, dice.DamageResult{Total: 0, Formula: spec.Formula})
			continue
		}
		roll := dice.RollFormula(src, f)
		if crit {
			extra := dice.RollDice(src, f.Count, f.Sides)
			roll.Rolls = append(roll.Rolls, extra...)
			for _, r := range extra {
				roll.Total += r
			}
		}
		result.Damage = append(result.Damage, roll)
	}

	return result
}
