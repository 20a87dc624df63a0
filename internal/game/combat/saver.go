package combat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SnapshotStore writes a combat's serialized snapshot and round counter
// through to durable storage, keyed by combat id, stamping updated_at.
type SnapshotStore interface {
	UpdateSnapshot(ctx context.Context, combatID string, snap Snapshot, round int) error
}

// Saver pushes an Engine's state to a SnapshotStore, tracking save-in-flight
// and last-saved status. In-memory state is the source of truth: a failed
// save leaves the engine dirty and its state untouched, so nothing is lost,
// only unsaved. Retry policy belongs to the caller.
type Saver struct {
	mu          sync.Mutex
	engine      *Engine
	store       SnapshotStore
	logger      *zap.Logger
	timeout     time.Duration
	saving      bool
	lastSavedAt time.Time
}

// NewSaver creates a Saver for the given engine and store. A timeout > 0
// bounds each write so a hung store cannot leave the saver stuck in the
// saving state forever.
//
// Precondition: engine, store, and logger must be non-nil.
func NewSaver(engine *Engine, store SnapshotStore, logger *zap.Logger, timeout time.Duration) *Saver {
	return &Saver{engine: engine, store: store, logger: logger, timeout: timeout}
}

// IsSaving reports whether a save is currently in flight.
func (s *Saver) IsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// LastSavedAt returns the completion time of the most recent successful
// save, or the zero time if none has succeeded.
func (s *Saver) LastSavedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSavedAt
}

// Save captures a consistent copy of the engine's state and writes it
// through the store. The copy is taken under the engine lock, so intents
// mutating the combat while the write is in flight never reach the persisted
// snapshot. The call is a no-op when no combat is loaded or another save is
// already in flight; overlapping writes to the same record are never issued.
// On success the engine's dirty flag is cleared and the save time recorded;
// on failure the dirty flag is left set and the error is returned.
func (s *Saver) Save(ctx context.Context) error {
	state, ok := s.engine.SaveState()
	if !ok {
		return nil
	}

	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return nil
	}
	s.saving = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.store.UpdateSnapshot(ctx, state.CombatID, state.Snapshot, state.Round); err != nil {
		s.logger.Warn("snapshot save failed",
			zap.String("combat_id", state.CombatID),
			zap.Error(err),
		)
		return fmt.Errorf("saving combat %s: %w", state.CombatID, err)
	}

	s.engine.clearDirty()
	s.mu.Lock()
	s.lastSavedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Debug("snapshot saved",
		zap.String("combat_id", state.CombatID),
		zap.Int("round", state.Round),
	)
	return nil
}
