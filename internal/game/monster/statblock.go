// Package monster defines the reusable monster stat block the encounter
// resolver materialises combat participants from.
package monster

import (
	"fmt"
	"time"

	"github.com/loreforge/loreforge/internal/game/combat"
)

// StatBlock is a stored monster archetype. One stat block can back any number
// of independent combat participants; the resolver copies it per instance.
type StatBlock struct {
	ID string `json:"id,omitempty"`

	Name           string            `json:"name"`
	LocalizedNames map[string]string `json:"localized_names,omitempty"`

	Abilities  combat.Abilities `json:"abilities"`
	MaxHP      int              `json:"max_hp"`
	ArmorClass int              `json:"armor_class"`
	Actions    []combat.Action  `json:"actions,omitempty"`

	// Properties and Groups are optional; empty values are omitted when
	// materialising participants.
	Properties *combat.Properties    `json:"combat_properties,omitempty"`
	Groups     *combat.AbilityGroups `json:"ability_groups,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Validate checks the stat block's basic invariants.
//
// Postcondition: Returns nil iff Name is non-empty, MaxHP >= 1, and
// ArmorClass >= 1.
func (s *StatBlock) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("monster: name must not be empty")
	}
	if s.MaxHP < 1 {
		return fmt.Errorf("monster %q: max_hp must be >= 1", s.Name)
	}
	if s.ArmorClass < 1 {
		return fmt.Errorf("monster %q: armor_class must be >= 1", s.Name)
	}
	return nil
}
