package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/loreforge/loreforge/internal/game/dice"
	"github.com/loreforge/loreforge/internal/testutil"
)

func TestRoller_LogsEveryDie(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	roller := dice.NewLoggedRoller(&testutil.ScriptedSource{Script: []int{2, 4, 0}}, zap.New(core))

	rolls := dice.RollDice(roller, 3, 6)
	require.Equal(t, []int{3, 5, 1}, rolls)

	entries := logs.FilterMessage("die rolled").All()
	require.Len(t, entries, 3)
	for i, entry := range entries {
		fields := entry.ContextMap()
		assert.EqualValues(t, 6, fields["sides"])
		assert.EqualValues(t, rolls[i], fields["face"])
	}
}

func TestRoller_TrailCoversD20AndDamage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	roller := dice.NewLoggedRoller(&testutil.ScriptedSource{Script: []int{19, 3, 3}}, zap.New(core))

	d20 := dice.RollD20(roller, dice.Normal, 2)
	assert.Equal(t, 22, d20.Result)

	dmg := dice.RollDamage(roller, "2d6+1")
	assert.Equal(t, 9, dmg.Total)

	assert.Len(t, logs.FilterMessage("die rolled").All(), 3)
}
