package combat

import (
	"time"

	"github.com/google/uuid"
)

// RollKind distinguishes the entries in a roll record list.
type RollKind string

const (
	RollAttack RollKind = "attack"
	RollDamage RollKind = "damage"
)

// RollRecord is the display-facing record of one dice resolution. Records
// are ephemeral: they are rebuilt per action execution, never persisted, and
// only the most recent action's records are retained by the engine.
type RollRecord struct {
	ID         string    `json:"id"`
	ActionName string    `json:"action_name"`
	Kind       RollKind  `json:"kind"`
	Rolls      []int     `json:"rolls"`
	Total      int       `json:"total"`
	Crit       bool      `json:"is_crit"`
	Fail       bool      `json:"is_fail"`
	DamageType string    `json:"damage_type,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// BuildRollRecords flattens an attack result into the display list: one
// attack entry when the action rolled to hit, followed by one entry per
// damage type, each with a fresh unique id and timestamp.
//
// Postcondition: len(result) == len(attack.Damage) + (1 if attack roll
// present, else 0).
func BuildRollRecords(action Action, attack AttackResult) []RollRecord {
	now := time.Now().UTC()
	var records []RollRecord

	if attack.Attack != nil {
		records = append(records, RollRecord{
			ID:         uuid.New().String(),
			ActionName: action.Name,
			Kind:       RollAttack,
			Rolls:      attack.Attack.Rolls,
			Total:      attack.Attack.Result,
			Crit:       attack.Attack.Crit,
			Fail:       attack.Attack.Fail,
			Timestamp:  now,
		})
	}

	for i, dmg := range attack.Damage {
		damageType := ""
		if i < len(action.Damage) {
			damageType = action.Damage[i].Type
		}
		records = append(records, RollRecord{
			ID:         uuid.New().String(),
			ActionName: action.Name,
			Kind:       RollDamage,
			Rolls:      dmg.Rolls,
			Total:      dmg.Total,
			DamageType: damageType,
			Timestamp:  now,
		})
	}

	return records
}
