package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/loreforge/loreforge/internal/config"
	"github.com/loreforge/loreforge/internal/game/character"
	"github.com/loreforge/loreforge/internal/game/combat"
	"github.com/loreforge/loreforge/internal/game/condition"
	"github.com/loreforge/loreforge/internal/game/encounter"
	"github.com/loreforge/loreforge/internal/game/monster"
	"github.com/loreforge/loreforge/internal/httpapi"
	"github.com/loreforge/loreforge/internal/testutil"
)

// memoryStore is an in-memory stand-in for the combat repository.
type memoryStore struct {
	mu        sync.Mutex
	combats   map[string]*combat.Combat
	updateErr error
	updates   int
	lastRound int
	completed []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{combats: make(map[string]*combat.Combat)}
}

func (s *memoryStore) Create(_ context.Context, c *combat.Combat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combats[c.ID] = c
	return nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*combat.Combat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.combats[id]
	if !ok {
		return nil, fmt.Errorf("combat %s: not found", id)
	}
	return c, nil
}

func (s *memoryStore) UpdateSnapshot(_ context.Context, id string, snap combat.Snapshot, round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.combats[id]; !ok {
		return fmt.Errorf("combat %s: not found", id)
	}
	s.updates++
	s.lastRound = round
	s.combats[id].Participants = snap.Participants
	s.combats[id].ActiveIndex = snap.ActiveParticipantIndex
	return nil
}

func (s *memoryStore) Complete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.combats[id]
	if !ok {
		return fmt.Errorf("combat %s: not found", id)
	}
	c.Status = combat.StatusCompleted
	s.completed = append(s.completed, id)
	return nil
}

type fakeCharacters struct {
	chars map[string]*character.Character
}

func (f *fakeCharacters) GetForCampaign(_ context.Context, campaignID, id string) (*character.Character, error) {
	c, ok := f.chars[id]
	if !ok || c.CampaignID != campaignID {
		return nil, fmt.Errorf("character %s: not found", id)
	}
	return c, nil
}

type fakeMonsters struct {
	blocks map[string]*monster.StatBlock
}

func (f *fakeMonsters) GetByID(_ context.Context, id string) (*monster.StatBlock, error) {
	b, ok := f.blocks[id]
	if !ok {
		return nil, fmt.Errorf("monster %s: not found", id)
	}
	return b, nil
}

func intPtr(v int) *int { return &v }

type testHarness struct {
	server *httpapi.Server
	store  *memoryStore
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	logger := zaptest.NewLogger(t)

	characters := &fakeCharacters{chars: map[string]*character.Character{
		"char-1": {
			ID:         "char-1",
			CampaignID: "campaign-1",
			Name:       "Serah Brightblade",
			Abilities:  combat.Abilities{Strength: 16, Dexterity: 14, Constitution: 13, Intelligence: 10, Wisdom: 12, Charisma: 8},
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
		},
	}}
	monsters := &fakeMonsters{blocks: map[string]*monster.StatBlock{
		"goblin": {
			ID:         "goblin",
			Name:       "Goblin",
			Abilities:  combat.Abilities{Strength: 8, Dexterity: 14, Constitution: 10, Intelligence: 10, Wisdom: 8, Charisma: 8},
			MaxHP:      11,
			ArmorClass: 13,
			Actions: []combat.Action{
				{
					Name:        "Scimitar",
					Type:        "melee",
					AttackBonus: intPtr(4),
					Damage:      []combat.DamageSpec{{Formula: "1d6+2", Average: 5.5, Type: "slashing"}},
				},
			},
		},
	}}

	store := newMemoryStore()
	resolver := encounter.NewResolver(characters, monsters, logger)
	service := encounter.NewService(resolver, store, logger)
	manager := combat.NewManager(store, &testutil.FixedSource{Val: 2}, logger, time.Second)

	registry := condition.NewRegistry()
	registry.Register(&condition.Definition{ID: "prone", Name: "Prone", Description: "Knocked down."})
	registry.Register(&condition.Definition{ID: "stunned", Name: "Stunned", Description: "Cannot act."})

	cfg := config.HTTPConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
	server := httpapi.NewServer(cfg, logger, service, store, manager, registry, nil)
	return &testHarness{server: server, store: store}
}

func (h *testHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type combatBody struct {
	ID                     string                `json:"id"`
	CampaignID             string                `json:"campaign_id"`
	Status                 string                `json:"status"`
	CurrentRound           int                   `json:"current_round"`
	Participants           []*combat.Participant `json:"participants"`
	ActiveParticipantIndex *int                  `json:"active_participant_index"`
	RollMode               string                `json:"roll_mode"`
	Dirty                  bool                  `json:"has_unsaved_changes"`
	RecentRolls            []combat.RollRecord   `json:"recent_rolls"`
}

func (h *testHarness) createCombat(t *testing.T) combatBody {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/combats", encounter.CreateCommand{
		CampaignID: "campaign-1",
		Name:       "Ambush at the Mill",
		Participants: []encounter.Spec{
			{Source: combat.SourcePlayerCharacter, CharacterID: "char-1"},
			{Source: combat.SourceMonster, MonsterID: "goblin", Count: 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody[combatBody](t, rec)
}

func (h *testHarness) loadSession(t *testing.T, id string) combatBody {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/combats/"+id+"/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody[combatBody](t, rec)
}

func TestCreateCombat(t *testing.T) {
	h := newTestHarness(t)

	body := h.createCombat(t)
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "campaign-1", body.CampaignID)
	assert.Equal(t, "active", body.Status)
	assert.Equal(t, 1, body.CurrentRound)
	assert.Nil(t, body.ActiveParticipantIndex)
	require.Len(t, body.Participants, 3)
	assert.Equal(t, "Serah Brightblade", body.Participants[0].Name)
	assert.Equal(t, "Goblin #1", body.Participants[1].Name)
	assert.Equal(t, "Goblin #2", body.Participants[2].Name)
}

func TestCreateCombat_UnknownMonster(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/combats", encounter.CreateCommand{
		CampaignID:   "campaign-1",
		Name:         "Bad roster",
		Participants: []encounter.Spec{{Source: combat.SourceMonster, MonsterID: "dragon"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCombat_TooManyCopies(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/combats", encounter.CreateCommand{
		CampaignID:   "campaign-1",
		Name:         "Horde",
		Participants: []encounter.Spec{{Source: combat.SourceMonster, MonsterID: "goblin", Count: 11}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetCombat(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)

	rec := h.do(t, http.MethodGet, "/api/combats/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[combatBody](t, rec)
	assert.Equal(t, created.ID, body.ID)

	rec = h.do(t, http.MethodGet, "/api/combats/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionIntents_RequireLoadedSession(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)

	rec := h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/initiative", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoadSession_NotFound(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/combats/nope/session", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)

	session := h.loadSession(t, created.ID)
	assert.Equal(t, "normal", session.RollMode)
	assert.False(t, session.Dirty)

	// Initiative: fixed d20 face 3 plus dexterity modifiers.
	rec := h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/initiative", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[combatBody](t, rec)
	require.NotNil(t, body.Participants[0].Initiative)
	assert.Equal(t, 5, *body.Participants[0].Initiative)
	assert.True(t, body.Dirty)

	rec = h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody[combatBody](t, rec)
	require.NotNil(t, body.ActiveParticipantIndex)
	assert.Equal(t, 0, *body.ActiveParticipantIndex)
	assert.True(t, body.Participants[0].ActiveTurn)

	pid := body.Participants[0].ID
	rec = h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/hp", map[string]any{
		"participant_id": pid, "kind": "damage", "amount": 9,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody[combatBody](t, rec)
	assert.Equal(t, 15, body.Participants[0].CurrentHP)

	rec = h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/actions/execute", map[string]any{
		"participant_id": pid, "action_name": "Longsword",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody[combatBody](t, rec)
	require.Len(t, body.RecentRolls, 2)
	assert.Equal(t, combat.RollAttack, body.RecentRolls[0].Kind)
	assert.Equal(t, combat.RollDamage, body.RecentRolls[1].Kind)

	rec = h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody[combatBody](t, rec)
	assert.False(t, body.Dirty)
	assert.Equal(t, 1, h.store.updates)
}

func TestUpdateHP_Validation(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)
	session := h.loadSession(t, created.ID)
	pid := session.Participants[0].ID

	rec := h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/hp", map[string]any{
		"participant_id": pid, "kind": "obliterate", "amount": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/hp", map[string]any{
		"participant_id": pid, "kind": "damage", "amount": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConditions(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)
	session := h.loadSession(t, created.ID)
	pid := session.Participants[0].ID

	rec := h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/conditions", map[string]any{
		"participant_id": pid, "condition_id": "cursed",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/conditions", map[string]any{
		"participant_id": pid, "condition_id": "prone", "duration_in_rounds": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[combatBody](t, rec)
	require.Len(t, body.Participants[0].Conditions, 1)
	assert.Equal(t, "prone", body.Participants[0].Conditions[0].ConditionID)

	rec = h.do(t, http.MethodDelete, "/api/combats/"+created.ID+"/conditions/prone?participant_id="+pid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody[combatBody](t, rec)
	assert.Empty(t, body.Participants[0].Conditions)

	rec = h.do(t, http.MethodDelete, "/api/combats/"+created.ID+"/conditions/prone", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetRollMode(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)
	h.loadSession(t, created.ID)

	rec := h.do(t, http.MethodPut, "/api/combats/"+created.ID+"/roll-mode", map[string]any{"mode": "lucky"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/combats/"+created.ID+"/roll-mode", map[string]any{"mode": "advantage"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[combatBody](t, rec)
	assert.Equal(t, "advantage", body.RollMode)
	assert.False(t, body.Dirty)
}

func TestSave_Failure(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)
	h.loadSession(t, created.ID)

	h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/initiative", nil)
	h.store.updateErr = fmt.Errorf("connection lost")

	rec := h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/save", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCompleteCombat_UnloadsSession(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)
	h.loadSession(t, created.ID)

	rec := h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{created.ID}, h.store.completed)

	rec = h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/initiative", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnloadSession(t *testing.T) {
	h := newTestHarness(t)
	created := h.createCombat(t)
	h.loadSession(t, created.ID)

	rec := h.do(t, http.MethodDelete, "/api/combats/"+created.ID+"/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/combats/"+created.ID+"/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListConditions(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/conditions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	defs := decodeBody[[]*condition.Definition](t, rec)
	assert.Len(t, defs, 2)
}
