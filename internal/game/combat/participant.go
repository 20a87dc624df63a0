// Package combat implements the encounter turn engine for Loreforge: the
// live roster, initiative order, round tracking, HP and condition mutation,
// and attack resolution through the dice engine.
package combat

import (
	"github.com/loreforge/loreforge/internal/game/condition"
	"github.com/loreforge/loreforge/internal/game/dice"
)

// SourceKind identifies where a participant's stat block came from.
type SourceKind string

const (
	SourcePlayerCharacter SourceKind = "player_character"
	SourceMonster         SourceKind = "monster"
	SourceAdHocNPC        SourceKind = "ad_hoc_npc"
)

// Abilities holds the six core ability scores.
//
// Well-formed data keeps each score in 1-30; no hard ceiling is enforced at
// runtime.
type Abilities struct {
	Strength     int `json:"str"`
	Dexterity    int `json:"dex"`
	Constitution int `json:"con"`
	Intelligence int `json:"int"`
	Wisdom       int `json:"wis"`
	Charisma     int `json:"cha"`
}

// DamageSpec is one damage component of an action: a dice formula, its
// precomputed average, and a damage type label.
type DamageSpec struct {
	Formula string  `json:"formula"`
	Average float64 `json:"average"`
	Type    string  `json:"type"`
}

// Healing is an action's healing formula and precomputed average.
type Healing struct {
	Formula string  `json:"formula"`
	Average float64 `json:"average"`
}

// Action is an attack, spell, or special ability a participant can execute.
// Actions are immutable once attached to a participant for the duration of
// the combat.
type Action struct {
	Name string `json:"name"`
	// Type is a free-form classifier: melee, ranged, spell, special.
	Type string `json:"type,omitempty"`
	// AttackBonus is nil for actions with no attack roll (automatic-hit
	// spells and the like).
	AttackBonus *int         `json:"attack_bonus,omitempty"`
	Damage      []DamageSpec `json:"damage,omitempty"`
	Healing     *Healing     `json:"healing,omitempty"`
}

// Trait is a passive monster ability: a name and descriptive text.
type Trait struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Properties carries a monster's optional defensive attributes and gear.
// Empty slices are omitted rather than stored.
type Properties struct {
	Vulnerabilities     []string `json:"damage_vulnerabilities,omitempty"`
	Resistances         []string `json:"damage_resistances,omitempty"`
	Immunities          []string `json:"damage_immunities,omitempty"`
	ConditionImmunities []string `json:"condition_immunities,omitempty"`
	Gear                []string `json:"gear,omitempty"`
}

// AbilityGroups carries a monster's extended ability lists beyond plain
// actions. All groups are optional.
type AbilityGroups struct {
	Traits           []Trait  `json:"traits,omitempty"`
	BonusActions     []Action `json:"bonus_actions,omitempty"`
	Reactions        []Action `json:"reactions,omitempty"`
	LegendaryActions []Action `json:"legendary_actions,omitempty"`
}

// Participant is one creature in an encounter. Participants are created once
// at encounter-build time and mutated in place (HP, conditions, initiative,
// active-turn flag) by the Engine for the life of the encounter.
//
// Invariant: CurrentHP is always in [0, MaxHP]. While combat is active
// exactly one participant in the roster has ActiveTurn == true.
type Participant struct {
	ID     string     `json:"id"`
	Source SourceKind `json:"source"`
	Name   string     `json:"name"`
	// LocalizedNames maps a locale tag to a display-name variant.
	LocalizedNames map[string]string `json:"localized_names,omitempty"`
	// Initiative is nil until initiative has been rolled.
	Initiative *int          `json:"initiative"`
	CurrentHP  int           `json:"current_hp"`
	MaxHP      int           `json:"max_hp"`
	ArmorClass int           `json:"armor_class"`
	Abilities  Abilities     `json:"abilities"`
	Actions    []Action      `json:"actions"`
	ActiveTurn bool          `json:"is_active_turn"`
	Conditions condition.Set `json:"active_conditions"`
	// Properties and Groups are populated for monster-sourced participants
	// only, and only when the source stat block has non-empty values.
	Properties *Properties    `json:"combat_properties,omitempty"`
	Groups     *AbilityGroups `json:"ability_groups,omitempty"`
}

// DexModifier returns the participant's dexterity modifier, the value used
// for initiative rolls.
func (p *Participant) DexModifier() int {
	return dice.Modifier(p.Abilities.Dexterity)
}

// AdjustHP applies a signed HP delta, clamping the result into [0, MaxHP].
//
// Postcondition: 0 <= CurrentHP <= MaxHP.
func (p *Participant) AdjustHP(delta int) {
	hp := p.CurrentHP + delta
	if hp < 0 {
		hp = 0
	}
	if hp > p.MaxHP {
		hp = p.MaxHP
	}
	p.CurrentHP = hp
}

// Clone returns a copy whose mutable fields (current HP, initiative, turn
// flag, conditions, localized names) are independent of the original.
// Actions, combat properties, and ability groups do not change for the life
// of a combat and stay shared.
func (p *Participant) Clone() *Participant {
	out := *p
	if p.Initiative != nil {
		v := *p.Initiative
		out.Initiative = &v
	}
	if p.LocalizedNames != nil {
		names := make(map[string]string, len(p.LocalizedNames))
		for k, v := range p.LocalizedNames {
			names[k] = v
		}
		out.LocalizedNames = names
	}
	out.Conditions = p.Conditions.Clone()
	return &out
}

// FindAction returns the participant's action with the given name, or nil.
// All ability groups are searched after the primary action list.
func (p *Participant) FindAction(name string) *Action {
	for i := range p.Actions {
		if p.Actions[i].Name == name {
			return &p.Actions[i]
		}
	}
	if p.Groups == nil {
		return nil
	}
	for _, group := range [][]Action{p.Groups.BonusActions, p.Groups.Reactions, p.Groups.LegendaryActions} {
		for i := range group {
			if group[i].Name == name {
				return &group[i]
			}
		}
	}
	return nil
}
