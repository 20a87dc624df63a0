// Package encounter assembles heterogeneous participant sources (player
// characters, counted monster copies, and ad-hoc NPC stat blocks) into a
// uniform combat roster, and creates combat aggregates from them.
package encounter

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loreforge/loreforge/internal/game/character"
	"github.com/loreforge/loreforge/internal/game/combat"
	"github.com/loreforge/loreforge/internal/game/monster"
)

// maxMonsterCopies caps the repeat count for one monster spec entry.
const maxMonsterCopies = 10

// ErrMonsterCountExceeded is returned when a monster spec requests more than
// maxMonsterCopies copies. The count is rejected outright, never clamped.
var ErrMonsterCountExceeded = errors.New("monster count exceeds maximum of 10")

// ErrUnknownSource is returned for a spec whose source kind is not
// recognised.
var ErrUnknownSource = errors.New("unknown participant source")

// Spec is one declarative "what to add to this encounter" entry.
type Spec struct {
	Source combat.SourceKind `json:"source"`
	// CharacterID identifies a campaign-scoped player character.
	CharacterID string `json:"character_id,omitempty"`
	// MonsterID identifies a monster stat block; Count copies are created.
	MonsterID string `json:"monster_id,omitempty"`
	// Count is the number of monster copies, 1–10. Zero means 1.
	Count int `json:"count,omitempty"`
	// NPC is the full inline stat block for an ad-hoc participant.
	NPC *monster.StatBlock `json:"npc,omitempty"`
}

// CharacterSource looks up player characters scoped to a campaign.
type CharacterSource interface {
	// GetForCampaign returns the character or a not-found error when the id
	// is absent or owned by a different campaign.
	GetForCampaign(ctx context.Context, campaignID, characterID string) (*character.Character, error)
}

// MonsterSource looks up monster stat blocks.
type MonsterSource interface {
	GetByID(ctx context.Context, monsterID string) (*monster.StatBlock, error)
}

// Resolver translates participant specs into concrete combat participants.
type Resolver struct {
	characters CharacterSource
	monsters   MonsterSource
	logger     *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: characters, monsters, and logger must be non-nil.
func NewResolver(characters CharacterSource, monsters MonsterSource, logger *zap.Logger) *Resolver {
	return &Resolver{characters: characters, monsters: monsters, logger: logger}
}

// Resolve materialises every spec into participants, in spec order.
//
// Any missing reference or validation rejection aborts the whole resolution;
// a partial roster is never returned. All participants start with nil
// initiative, inactive turn, no conditions, and current HP equal to max.
func (r *Resolver) Resolve(ctx context.Context, campaignID string, specs []Spec) ([]*combat.Participant, error) {
	var roster []*combat.Participant
	for i, spec := range specs {
		participants, err := r.resolveSpec(ctx, campaignID, spec)
		if err != nil {
			return nil, fmt.Errorf("resolving participant %d: %w", i, err)
		}
		roster = append(roster, participants...)
	}
	r.logger.Debug("roster resolved",
		zap.String("campaign_id", campaignID),
		zap.Int("specs", len(specs)),
		zap.Int("participants", len(roster)),
	)
	return roster, nil
}

func (r *Resolver) resolveSpec(ctx context.Context, campaignID string, spec Spec) ([]*combat.Participant, error) {
	switch spec.Source {
	case combat.SourcePlayerCharacter:
		c, err := r.characters.GetForCampaign(ctx, campaignID, spec.CharacterID)
		if err != nil {
			return nil, err
		}
		return []*combat.Participant{fromCharacter(c)}, nil

	case combat.SourceMonster:
		count := spec.Count
		if count == 0 {
			count = 1
		}
		if count < 1 {
			return nil, fmt.Errorf("monster count must be positive: got %d", count)
		}
		if count > maxMonsterCopies {
			return nil, fmt.Errorf("%w: got %d", ErrMonsterCountExceeded, count)
		}
		// One lookup backs every copy.
		block, err := r.monsters.GetByID(ctx, spec.MonsterID)
		if err != nil {
			return nil, err
		}
		out := make([]*combat.Participant, 0, count)
		for n := 1; n <= count; n++ {
			out = append(out, fromStatBlock(block, n, count))
		}
		return out, nil

	case combat.SourceAdHocNPC:
		if spec.NPC == nil {
			return nil, fmt.Errorf("ad_hoc_npc spec requires an inline stat block")
		}
		if err := spec.NPC.Validate(); err != nil {
			return nil, err
		}
		p := fromStatBlock(spec.NPC, 1, 1)
		p.Source = combat.SourceAdHocNPC
		p.Properties = nil
		p.Groups = nil
		return []*combat.Participant{p}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, spec.Source)
	}
}

func fromCharacter(c *character.Character) *combat.Participant {
	return &combat.Participant{
		ID:             uuid.New().String(),
		Source:         combat.SourcePlayerCharacter,
		Name:           c.Name,
		LocalizedNames: copyNames(c.LocalizedNames),
		CurrentHP:      c.MaxHP,
		MaxHP:          c.MaxHP,
		ArmorClass:     c.ArmorClass,
		Abilities:      c.Abilities,
		Actions:        c.Actions,
	}
}

// fromStatBlock materialises copy n of count from a monster stat block. Each
// copy gets its own id and independently mutable HP and conditions; when
// count > 1 every name variant is suffixed " #n".
func fromStatBlock(block *monster.StatBlock, n, count int) *combat.Participant {
	name := block.Name
	names := copyNames(block.LocalizedNames)
	if count > 1 {
		name = fmt.Sprintf("%s #%d", name, n)
		for locale, variant := range names {
			names[locale] = fmt.Sprintf("%s #%d", variant, n)
		}
	}
	p := &combat.Participant{
		ID:             uuid.New().String(),
		Source:         combat.SourceMonster,
		Name:           name,
		LocalizedNames: names,
		CurrentHP:      block.MaxHP,
		MaxHP:          block.MaxHP,
		ArmorClass:     block.ArmorClass,
		Abilities:      block.Abilities,
		Actions:        block.Actions,
	}
	if props := trimProperties(block.Properties); props != nil {
		p.Properties = props
	}
	if groups := trimGroups(block.Groups); groups != nil {
		p.Groups = groups
	}
	return p
}

func copyNames(names map[string]string) map[string]string {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]string, len(names))
	for k, v := range names {
		out[k] = v
	}
	return out
}

// trimProperties returns a copy with empty lists dropped, or nil when every
// list is empty.
func trimProperties(props *combat.Properties) *combat.Properties {
	if props == nil {
		return nil
	}
	out := combat.Properties{
		Vulnerabilities:     nonEmpty(props.Vulnerabilities),
		Resistances:         nonEmpty(props.Resistances),
		Immunities:          nonEmpty(props.Immunities),
		ConditionImmunities: nonEmpty(props.ConditionImmunities),
		Gear:                nonEmpty(props.Gear),
	}
	if out.Vulnerabilities == nil && out.Resistances == nil && out.Immunities == nil &&
		out.ConditionImmunities == nil && out.Gear == nil {
		return nil
	}
	return &out
}

func trimGroups(groups *combat.AbilityGroups) *combat.AbilityGroups {
	if groups == nil {
		return nil
	}
	out := combat.AbilityGroups{}
	if len(groups.Traits) > 0 {
		out.Traits = groups.Traits
	}
	if len(groups.BonusActions) > 0 {
		out.BonusActions = groups.BonusActions
	}
	if len(groups.Reactions) > 0 {
		out.Reactions = groups.Reactions
	}
	if len(groups.LegendaryActions) > 0 {
		out.LegendaryActions = groups.LegendaryActions
	}
	if out.Traits == nil && out.BonusActions == nil && out.Reactions == nil && out.LegendaryActions == nil {
		return nil
	}
	return &out
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
