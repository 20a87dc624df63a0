package combat

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/loreforge/loreforge/internal/game/condition"
	"github.com/loreforge/loreforge/internal/game/dice"
)

// HPUpdateKind selects the direction of an HP mutation.
type HPUpdateKind string

const (
	HPDamage HPUpdateKind = "damage"
	HPHeal   HPUpdateKind = "heal"
)

// Engine is the live turn-tracking state machine for one loaded combat.
//
// All mutation methods are synchronous and atomic with respect to each other;
// every mutation of persisted state marks the engine dirty but never triggers
// a write itself; persistence is the Saver's concern. Completion is an
// external transition that only flips the aggregate's status flag.
//
// Methods are safe for concurrent use, though the engine is designed for a
// single-owner discipline: one combat view drives one Engine at a time.
type Engine struct {
	mu          sync.Mutex
	combat      *Combat
	src         dice.Source
	logger      *zap.Logger
	mode        dice.Mode
	recentRolls []RollRecord
	dirty       bool
}

// NewEngine creates an Engine with no combat loaded, rolling in Normal mode.
//
// Precondition: src and logger must be non-nil.
func NewEngine(src dice.Source, logger *zap.Logger) *Engine {
	return &Engine{src: src, logger: logger, mode: dice.Normal}
}

// Load replaces the engine's state wholesale with the given combat. Prior
// roster, roll history, and the dirty flag are discarded, never merged.
func (e *Engine) Load(c *Combat) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.combat = c
	e.recentRolls = nil
	e.dirty = false
	if c != nil {
		e.logger.Debug("combat loaded",
			zap.String("combat_id", c.ID),
			zap.Int("participants", len(c.Participants)),
		)
	}
}

// Combat returns the loaded combat aggregate, or nil.
func (e *Engine) Combat() *Combat {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.combat
}

// SaveState is one consistent unit of persistence: the combat id, a
// deep-copied snapshot, and the round counter, captured together.
type SaveState struct {
	CombatID string
	Snapshot Snapshot
	Round    int
}

// SaveState captures the combat's persistable state under the engine lock.
// The returned snapshot shares no mutable data with the live roster, so a
// store may serialize it while turn intents keep mutating the engine.
//
// Postcondition: ok is false iff no combat is loaded.
func (e *Engine) SaveState() (state SaveState, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.combat == nil {
		return SaveState{}, false
	}
	participants := make([]*Participant, len(e.combat.Participants))
	for i, p := range e.combat.Participants {
		participants[i] = p.Clone()
	}
	var idx *int
	if e.combat.ActiveIndex != nil {
		v := *e.combat.ActiveIndex
		idx = &v
	}
	return SaveState{
		CombatID: e.combat.ID,
		Snapshot: Snapshot{Participants: participants, ActiveParticipantIndex: idx},
		Round:    e.combat.CurrentRound,
	}, true
}

// IsDirty reports whether the in-memory state has mutations not yet saved.
func (e *Engine) IsDirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// clearDirty is called by the Saver after a successful snapshot write.
func (e *Engine) clearDirty() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = false
}

// RollMode returns the global roll mode applied to attack rolls.
func (e *Engine) RollMode() dice.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SetRollMode sets the roll mode for subsequent ExecuteAction calls. The mode
// is a transient table preference, not combat state, so it does not mark the
// engine dirty. Invalid modes are ignored.
func (e *Engine) SetRollMode(mode dice.Mode) {
	if !mode.Valid() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
}

// RecentRolls returns the roll records produced by the most recent
// ExecuteAction call. Earlier actions' rolls are not retained.
func (e *Engine) RecentRolls() []RollRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RollRecord, len(e.recentRolls))
	copy(out, e.recentRolls)
	return out
}

// RollInitiative rolls 1d20 + DEX modifier independently for every
// participant, then stable-sorts the roster descending by initiative.
// Participants without a numeric initiative always sort after those with
// one; equal initiatives keep their prior relative order, with no secondary
// tie-break applied.
func (e *Engine) RollInitiative() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.combat == nil {
		return
	}
	for _, p := range e.combat.Participants {
		roll := e.src.Intn(20) + 1
		initiative := roll + p.DexModifier()
		p.Initiative = &initiative
		e.logger.Debug("initiative roll",
			zap.String("participant_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("d20", roll),
			zap.Int("initiative", initiative),
		)
	}
	sortByInitiativeDesc(e.combat.Participants)
	e.dirty = true
}

// sortByInitiativeDesc stable-sorts highest initiative first, with nil
// initiatives last. The comparator handles nil even though every participant
// has a value after RollInitiative.
func sortByInitiativeDesc(participants []*Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		a, b := participants[i].Initiative, participants[j].Initiative
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

// Start begins the encounter: the first participant in turn order becomes
// active and the round counter is set to 1. Starting with an empty roster is
// a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.combat == nil || len(e.combat.Participants) == 0 {
		return
	}
	idx := 0
	e.combat.ActiveIndex = &idx
	e.combat.CurrentRound = 1
	e.setActiveTurn(idx)
	e.dirty = true
}

// NextTurn ends the active participant's turn: finite condition durations on
// the departing participant are decremented (expiring at 0, indefinite ones
// untouched), then the turn pointer advances. Wrapping past the end of the
// roster increments the round counter exactly once per full pass. Calling
// NextTurn before Start is a no-op.
func (e *Engine) NextTurn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.combat == nil || e.combat.ActiveIndex == nil {
		return
	}
	idx := *e.combat.ActiveIndex
	departing := e.combat.Participants[idx]

	var expired []string
	departing.Conditions, expired = departing.Conditions.TickRound()
	for _, id := range expired {
		e.logger.Debug("condition expired",
			zap.String("participant_id", departing.ID),
			zap.String("condition_id", id),
		)
	}

	if idx == len(e.combat.Participants)-1 {
		idx = 0
		e.combat.CurrentRound++
	} else {
		idx++
	}
	e.combat.ActiveIndex = &idx
	e.setActiveTurn(idx)
	e.dirty = true
}

// setActiveTurn marks exactly the participant at idx as having the active
// turn. Caller must hold e.mu.
func (e *Engine) setActiveTurn(idx int) {
	for i, p := range e.combat.Participants {
		p.ActiveTurn = i == idx
	}
}

// UpdateHP applies damage or healing to the participant with the given id,
// clamping the result into [0, MaxHP]. Death and unconsciousness carry no
// automatic side effects here; that interpretation belongs to the caller.
// An unknown participant id is a silent no-op.
func (e *Engine) UpdateHP(participantID string, amount int, kind HPUpdateKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.combat == nil {
		return
	}
	p := e.combat.Participant(participantID)
	if p == nil {
		return
	}
	delta := amount
	if kind == HPDamage {
		delta = -amount
	}
	p.AdjustHP(delta)
	e.logger.Debug("hp updated",
		zap.String("participant_id", p.ID),
		zap.String("kind", string(kind)),
		zap.Int("amount", amount),
		zap.Int("current_hp", p.CurrentHP),
	)
	e.dirty = true
}

// AddCondition applies a condition to the participant with the given id.
// Applying a condition id the participant already has is a silent no-op with
// no duration refresh. An unknown participant id is a silent no-op.
func (e *Engine) AddCondition(participantID string, c condition.Active) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.combat == nil {
		return
	}
	p := e.combat.Participant(participantID)
	if p == nil {
		return
	}
	var added bool
	p.Conditions, added = p.Conditions.Add(c)
	if added {
		e.dirty = true
	}
}

// RemoveCondition removes a condition by id from the participant. Removing
// an absent condition or targeting an unknown participant is a silent no-op.
func (e *Engine) RemoveCondition(participantID, conditionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.combat == nil {
		return
	}
	p := e.combat.Participant(participantID)
	if p == nil {
		return
	}
	var removed bool
	p.Conditions, removed = p.Conditions.Remove(conditionID)
	if removed {
		e.dirty = true
	}
}

// ExecuteAction resolves an action's attack and damage rolls under the
// engine's current roll mode and replaces the recent-roll list wholesale with
// the new results. Damage and healing are never applied here; the caller
// sees the rolls first and commits their effect through UpdateHP separately.
func (e *Engine) ExecuteAction(participantID string, action Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.combat == nil || e.combat.Participant(participantID) == nil {
		return
	}
	result := ExecuteAttack(e.src, action, e.mode)
	e.recentRolls = BuildRollRecords(action, result)
	e.logger.Debug("action executed",
		zap.String("participant_id", participantID),
		zap.String("action", action.Name),
		zap.String("mode", string(e.mode)),
		zap.Int("rolls", len(e.recentRolls)),
	)
	e.dirty = true
}
