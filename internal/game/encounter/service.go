package encounter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loreforge/loreforge/internal/game/combat"
)

// CombatStore persists newly created combat aggregates.
type CombatStore interface {
	Create(ctx context.Context, cbt *combat.Combat) error
}

// CreateCommand is the encounter-creation intent issued by the UI layer.
type CreateCommand struct {
	CampaignID   string `json:"campaign_id"`
	Name         string `json:"name"`
	Participants []Spec `json:"initial_participants"`
}

// Service creates combat encounters from declarative rosters.
type Service struct {
	resolver *Resolver
	combats  CombatStore
	logger   *zap.Logger
}

// NewService creates a Service.
//
// Precondition: resolver, combats, and logger must be non-nil.
func NewService(resolver *Resolver, combats CombatStore, logger *zap.Logger) *Service {
	return &Service{resolver: resolver, combats: combats, logger: logger}
}

// CreateEncounter resolves the requested roster and persists a new active
// combat at round 1 with no active participant: initiative has not been
// rolled and the encounter has not started. A resolution failure aborts the
// whole creation; nothing is persisted.
func (s *Service) CreateEncounter(ctx context.Context, cmd CreateCommand) (*combat.Combat, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("encounter name must not be empty")
	}
	if cmd.CampaignID == "" {
		return nil, fmt.Errorf("campaign id must not be empty")
	}

	roster, err := s.resolver.Resolve(ctx, cmd.CampaignID, cmd.Participants)
	if err != nil {
		return nil, err
	}

	cbt := &combat.Combat{
		ID:           uuid.New().String(),
		CampaignID:   cmd.CampaignID,
		Name:         cmd.Name,
		Status:       combat.StatusActive,
		CurrentRound: 1,
		Participants: roster,
	}
	if err := s.combats.Create(ctx, cbt); err != nil {
		return nil, fmt.Errorf("creating encounter: %w", err)
	}

	s.logger.Info("encounter created",
		zap.String("combat_id", cbt.ID),
		zap.String("campaign_id", cbt.CampaignID),
		zap.String("name", cbt.Name),
		zap.Int("participants", len(roster)),
	)
	return cbt, nil
}
