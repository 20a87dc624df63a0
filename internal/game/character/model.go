// Package character defines the player-character record consumed by the
// encounter resolver. CRUD over these records lives in the surrounding
// application; combat only reads them.
package character

import (
	"time"

	"github.com/loreforge/loreforge/internal/game/combat"
)

// Character is a player character's stored stat block.
//
// ID and CampaignID are set by the persistence layer. A character is only
// visible to encounters inside its own campaign.
type Character struct {
	ID         string
	CampaignID string

	Name           string
	LocalizedNames map[string]string

	Abilities  combat.Abilities
	MaxHP      int
	ArmorClass int
	Actions    []combat.Action

	CreatedAt time.Time
	UpdatedAt time.Time
}
