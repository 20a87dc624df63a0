package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loreforge/loreforge/internal/game/character"
	"github.com/loreforge/loreforge/internal/game/combat"
)

// ErrCharacterNotFound is returned when a character lookup yields no result
// visible to the requesting campaign.
var ErrCharacterNotFound = errors.New("character not found")

// CharacterRepository provides player-character persistence operations.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a character record.
//
// Precondition: c.ID and c.CampaignID must be non-empty.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) error {
	names, err := json.Marshal(c.LocalizedNames)
	if err != nil {
		return fmt.Errorf("encoding localized names: %w", err)
	}
	abilities, err := json.Marshal(c.Abilities)
	if err != nil {
		return fmt.Errorf("encoding abilities: %w", err)
	}
	actions, err := json.Marshal(c.Actions)
	if err != nil {
		return fmt.Errorf("encoding actions: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO characters
			(id, campaign_id, name, localized_names, abilities, max_hp, armor_class, actions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.CampaignID, c.Name, names, abilities, c.MaxHP, c.ArmorClass, actions,
	)
	if err != nil {
		return fmt.Errorf("inserting character: %w", err)
	}
	return nil
}

// GetForCampaign retrieves a character by id, scoped to the owning campaign.
// A character owned by a different campaign is indistinguishable from an
// absent one.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetForCampaign(ctx context.Context, campaignID, characterID string) (*character.Character, error) {
	var (
		c         character.Character
		names     []byte
		abilities []byte
		actions   []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, campaign_id, name, localized_names, abilities, max_hp, armor_class, actions,
		       created_at, updated_at
		FROM characters WHERE id = $1 AND campaign_id = $2`,
		characterID, campaignID,
	).Scan(
		&c.ID, &c.CampaignID, &c.Name, &names, &abilities, &c.MaxHP, &c.ArmorClass, &actions,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}

	if err := decodeCharacterColumns(&c, names, abilities, actions); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeCharacterColumns(c *character.Character, names, abilities, actions []byte) error {
	if len(names) > 0 {
		if err := json.Unmarshal(names, &c.LocalizedNames); err != nil {
			return fmt.Errorf("decoding localized names: %w", err)
		}
	}
	if len(abilities) > 0 {
		if err := json.Unmarshal(abilities, &c.Abilities); err != nil {
			return fmt.Errorf("decoding abilities: %w", err)
		}
	}
	if len(actions) > 0 {
		var acts []combat.Action
		if err := json.Unmarshal(actions, &acts); err != nil {
			return fmt.Errorf("decoding actions: %w", err)
		}
		c.Actions = acts
	}
	return nil
}
