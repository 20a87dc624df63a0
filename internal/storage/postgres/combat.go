package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loreforge/loreforge/internal/game/combat"
)

// ErrCombatNotFound is returned when a combat lookup or update targets an id
// with no stored record.
var ErrCombatNotFound = errors.New("combat not found")

// CombatRepository provides combat encounter persistence operations. The
// participant roster and active turn pointer live in a single snapshot
// column so a save replaces the whole battlefield state atomically.
type CombatRepository struct {
	db *pgxpool.Pool
}

// NewCombatRepository creates a CombatRepository backed by the pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatRepository(db *pgxpool.Pool) *CombatRepository {
	return &CombatRepository{db: db}
}

// Create inserts a combat record with its initial snapshot.
//
// Precondition: c.ID and c.CampaignID must be non-empty.
func (r *CombatRepository) Create(ctx context.Context, c *combat.Combat) error {
	snap, err := json.Marshal(c.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO combats (id, campaign_id, name, status, current_round, snapshot)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.CampaignID, c.Name, string(c.Status), c.CurrentRound, snap,
	)
	if err != nil {
		return fmt.Errorf("inserting combat: %w", err)
	}
	return nil
}

// GetByID retrieves a combat and reconstructs its aggregate from the stored
// snapshot.
//
// Postcondition: Returns the Combat or ErrCombatNotFound.
func (r *CombatRepository) GetByID(ctx context.Context, id string) (*combat.Combat, error) {
	var (
		c      combat.Combat
		status string
		snap   []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, campaign_id, name, status, current_round, snapshot
		FROM combats WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.CampaignID, &c.Name, &status, &c.CurrentRound, &snap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCombatNotFound
		}
		return nil, fmt.Errorf("querying combat: %w", err)
	}
	c.Status = combat.Status(status)

	if len(snap) > 0 {
		var s combat.Snapshot
		if err := json.Unmarshal(snap, &s); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
		c.Participants = s.Participants
		c.ActiveIndex = s.ActiveParticipantIndex
	}
	return &c, nil
}

// UpdateSnapshot replaces the stored snapshot and round counter for a combat.
//
// Postcondition: Returns ErrCombatNotFound when no combat has the given id.
func (r *CombatRepository) UpdateSnapshot(ctx context.Context, combatID string, s combat.Snapshot, round int) error {
	snap, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE combats SET snapshot = $2, current_round = $3, updated_at = now()
		WHERE id = $1`,
		combatID, snap, round,
	)
	if err != nil {
		return fmt.Errorf("updating snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCombatNotFound
	}
	return nil
}

// Complete marks a combat as finished.
//
// Postcondition: Returns ErrCombatNotFound when no combat has the given id.
func (r *CombatRepository) Complete(ctx context.Context, combatID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE combats SET status = $2, updated_at = now()
		WHERE id = $1`,
		combatID, string(combat.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("completing combat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCombatNotFound
	}
	return nil
}
