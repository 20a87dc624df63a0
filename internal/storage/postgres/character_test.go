package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreforge/loreforge/internal/game/character"
	"github.com/loreforge/loreforge/internal/game/combat"
	"github.com/loreforge/loreforge/internal/storage/postgres"
	"github.com/loreforge/loreforge/internal/testutil"
)

func intPtr(v int) *int { return &v }

func makeStoredCharacter(campaignID, name string) *character.Character {
	return &character.Character{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		Name:       name,
		LocalizedNames: map[string]string{
			"en": name,
		},
		Abilities: combat.Abilities{
			Strength: 16, Dexterity: 14, Constitution: 13,
			Intelligence: 10, Wisdom: 12, Charisma: 8,
		},
		MaxHP:      24,
		ArmorClass: 16,
		Actions: []combat.Action{
			{
				Name:        "Longsword",
				Type:        "melee",
				AttackBonus: intPtr(5),
				Damage:      []combat.DamageSpec{{Formula: "1d8+3", Average: 7.5, Type: "slashing"}},
			},
		},
	}
}

func TestCharacterRepository_CreateAndGet(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	c := makeStoredCharacter("campaign-1", "Serah Brightblade")
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetForCampaign(ctx, "campaign-1", c.ID)
	require.NoError(t, err)

	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "campaign-1", got.CampaignID)
	assert.Equal(t, "Serah Brightblade", got.Name)
	assert.Equal(t, c.LocalizedNames, got.LocalizedNames)
	assert.Equal(t, c.Abilities, got.Abilities)
	assert.Equal(t, 24, got.MaxHP)
	assert.Equal(t, 16, got.ArmorClass)
	require.Len(t, got.Actions, 1)
	assert.Equal(t, c.Actions[0], got.Actions[0])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCharacterRepository_GetForCampaign_WrongCampaign(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	c := makeStoredCharacter("campaign-1", "Serah Brightblade")
	require.NoError(t, repo.Create(ctx, c))

	_, err := repo.GetForCampaign(ctx, "campaign-2", c.ID)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_GetForCampaign_NotFound(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCharacterRepository(pool)

	_, err := repo.GetForCampaign(context.Background(), "campaign-1", uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}
