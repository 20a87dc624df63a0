package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreforge/loreforge/internal/game/combat"
	"github.com/loreforge/loreforge/internal/game/condition"
	"github.com/loreforge/loreforge/internal/storage/postgres"
	"github.com/loreforge/loreforge/internal/testutil"
)

func makeStoredCombat(campaignID string) *combat.Combat {
	return &combat.Combat{
		ID:           uuid.NewString(),
		CampaignID:   campaignID,
		Name:         "Ambush at the Mill",
		Status:       combat.StatusActive,
		CurrentRound: 1,
		Participants: []*combat.Participant{
			{
				ID:         uuid.NewString(),
				Source:     combat.SourcePlayerCharacter,
				Name:       "Serah Brightblade",
				CurrentHP:  24,
				MaxHP:      24,
				ArmorClass: 16,
				Abilities:  combat.Abilities{Strength: 16, Dexterity: 14, Constitution: 13, Intelligence: 10, Wisdom: 12, Charisma: 8},
			},
			{
				ID:         uuid.NewString(),
				Source:     combat.SourceMonster,
				Name:       "Goblin #1",
				CurrentHP:  11,
				MaxHP:      11,
				ArmorClass: 13,
				Abilities:  combat.Abilities{Strength: 8, Dexterity: 14, Constitution: 10, Intelligence: 10, Wisdom: 8, Charisma: 8},
			},
		},
	}
}

func TestCombatRepository_CreateAndGet(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	c := makeStoredCombat("campaign-1")
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "campaign-1", got.CampaignID)
	assert.Equal(t, "Ambush at the Mill", got.Name)
	assert.Equal(t, combat.StatusActive, got.Status)
	assert.Equal(t, 1, got.CurrentRound)
	assert.Nil(t, got.ActiveIndex)
	require.Len(t, got.Participants, 2)
	assert.Equal(t, c.Participants[0].ID, got.Participants[0].ID)
	assert.Equal(t, "Goblin #1", got.Participants[1].Name)
	assert.Nil(t, got.Participants[0].Initiative)
}

func TestCombatRepository_UpdateSnapshot(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	c := makeStoredCombat("campaign-1")
	require.NoError(t, repo.Create(ctx, c))

	// Mutate battlefield state the way the engine would mid-round.
	c.Participants[0].Initiative = intPtr(17)
	c.Participants[0].ActiveTurn = true
	c.Participants[1].Initiative = intPtr(12)
	c.Participants[1].CurrentHP = 4
	c.Participants[1].Conditions, _ = c.Participants[1].Conditions.Add(condition.Active{
		ConditionID:    "prone",
		DurationRounds: intPtr(2),
	})
	c.ActiveIndex = intPtr(0)

	require.NoError(t, repo.UpdateSnapshot(ctx, c.ID, c.Snapshot(), 3))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentRound)
	require.NotNil(t, got.ActiveIndex)
	assert.Equal(t, 0, *got.ActiveIndex)
	require.NotNil(t, got.Participants[0].Initiative)
	assert.Equal(t, 17, *got.Participants[0].Initiative)
	assert.True(t, got.Participants[0].ActiveTurn)
	assert.Equal(t, 4, got.Participants[1].CurrentHP)
	require.Len(t, got.Participants[1].Conditions, 1)
	assert.Equal(t, "prone", got.Participants[1].Conditions[0].ConditionID)
	require.NotNil(t, got.Participants[1].Conditions[0].DurationRounds)
	assert.Equal(t, 2, *got.Participants[1].Conditions[0].DurationRounds)
}

func TestCombatRepository_UpdateSnapshot_NotFound(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)

	c := makeStoredCombat("campaign-1")
	err := repo.UpdateSnapshot(context.Background(), uuid.NewString(), c.Snapshot(), 1)
	assert.ErrorIs(t, err, postgres.ErrCombatNotFound)
}

func TestCombatRepository_Complete(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)
	ctx := context.Background()

	c := makeStoredCombat("campaign-1")
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.Complete(ctx, c.ID))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.StatusCompleted, got.Status)

	err = repo.Complete(ctx, uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrCombatNotFound)
}

func TestCombatRepository_GetByID_NotFound(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCombatRepository(pool)

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrCombatNotFound)
}
