package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loreforge/loreforge/internal/game/combat"
	"github.com/loreforge/loreforge/internal/game/monster"
)

// ErrMonsterNotFound is returned when a stat block lookup yields no result.
var ErrMonsterNotFound = errors.New("monster not found")

// MonsterRepository provides monster stat block persistence operations.
// Stat blocks are campaign-independent reference data.
type MonsterRepository struct {
	db *pgxpool.Pool
}

// NewMonsterRepository creates a MonsterRepository backed by the pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMonsterRepository(db *pgxpool.Pool) *MonsterRepository {
	return &MonsterRepository{db: db}
}

// Create inserts a stat block record.
//
// Precondition: b must pass Validate.
func (r *MonsterRepository) Create(ctx context.Context, b *monster.StatBlock) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("validating stat block: %w", err)
	}

	names, err := json.Marshal(b.LocalizedNames)
	if err != nil {
		return fmt.Errorf("encoding localized names: %w", err)
	}
	abilities, err := json.Marshal(b.Abilities)
	if err != nil {
		return fmt.Errorf("encoding abilities: %w", err)
	}
	actions, err := json.Marshal(b.Actions)
	if err != nil {
		return fmt.Errorf("encoding actions: %w", err)
	}
	var properties []byte
	if b.Properties != nil {
		if properties, err = json.Marshal(b.Properties); err != nil {
			return fmt.Errorf("encoding properties: %w", err)
		}
	}
	var groups []byte
	if b.Groups != nil {
		if groups, err = json.Marshal(b.Groups); err != nil {
			return fmt.Errorf("encoding ability groups: %w", err)
		}
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO monsters
			(id, name, localized_names, abilities, max_hp, armor_class, actions, properties, ability_groups)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, b.Name, names, abilities, b.MaxHP, b.ArmorClass, actions, properties, groups,
	)
	if err != nil {
		return fmt.Errorf("inserting monster: %w", err)
	}
	return nil
}

// GetByID retrieves a stat block by id.
//
// Postcondition: Returns the StatBlock or ErrMonsterNotFound.
func (r *MonsterRepository) GetByID(ctx context.Context, id string) (*monster.StatBlock, error) {
	var (
		b          monster.StatBlock
		names      []byte
		abilities  []byte
		actions    []byte
		properties []byte
		groups     []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, localized_names, abilities, max_hp, armor_class, actions, properties, ability_groups
		FROM monsters WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &names, &abilities, &b.MaxHP, &b.ArmorClass, &actions, &properties, &groups)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMonsterNotFound
		}
		return nil, fmt.Errorf("querying monster: %w", err)
	}

	if len(names) > 0 {
		if err := json.Unmarshal(names, &b.LocalizedNames); err != nil {
			return nil, fmt.Errorf("decoding localized names: %w", err)
		}
	}
	if len(abilities) > 0 {
		if err := json.Unmarshal(abilities, &b.Abilities); err != nil {
			return nil, fmt.Errorf("decoding abilities: %w", err)
		}
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &b.Actions); err != nil {
			return nil, fmt.Errorf("decoding actions: %w", err)
		}
	}
	if len(properties) > 0 {
		var p combat.Properties
		if err := json.Unmarshal(properties, &p); err != nil {
			return nil, fmt.Errorf("decoding properties: %w", err)
		}
		b.Properties = &p
	}
	if len(groups) > 0 {
		var g combat.AbilityGroups
		if err := json.Unmarshal(groups, &g); err != nil {
			return nil, fmt.Errorf("decoding ability groups: %w", err)
		}
		b.Groups = &g
	}
	return &b, nil
}
