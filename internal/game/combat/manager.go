package combat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/loreforge/loreforge/internal/game/dice"
)

// Store is the persistence surface the Manager needs: combat lookup for
// loading plus snapshot writes for saving.
type Store interface {
	SnapshotStore
	GetByID(ctx context.Context, combatID string) (*Combat, error)
}

// Session pairs a loaded Engine with its Saver.
type Session struct {
	Engine *Engine
	Saver  *Saver
}

// Manager owns one combat Session per combat id. Loading a combat that is
// already resident replaces its state wholesale rather than merging; each
// Session is intended to be driven by a single view at a time.
//
// All methods are safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	store       Store
	src         dice.Source
	logger      *zap.Logger
	saveTimeout time.Duration
}

// NewManager creates an empty Manager.
//
// Precondition: store, src, and logger must be non-nil.
func NewManager(store Store, src dice.Source, logger *zap.Logger, saveTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		store:       store,
		src:         src,
		logger:      logger,
		saveTimeout: saveTimeout,
	}
}

// Load fetches the combat from the store and makes it the resident session
// for its id, replacing any prior session state.
//
// Postcondition: on success Get(combatID) returns the new session.
func (m *Manager) Load(ctx context.Context, combatID string) (*Session, error) {
	cbt, err := m.store.GetByID(ctx, combatID)
	if err != nil {
		return nil, fmt.Errorf("loading combat %s: %w", combatID, err)
	}

	engine := NewEngine(m.src, m.logger)
	engine.Load(cbt)
	session := &Session{
		Engine: engine,
		Saver:  NewSaver(engine, m.store, m.logger, m.saveTimeout),
	}

	m.mu.Lock()
	m.sessions[combatID] = session
	m.mu.Unlock()
	return session, nil
}

// Get returns the resident session for combatID.
//
// Postcondition: Returns (session, true) if resident, or (nil, false).
func (m *Manager) Get(combatID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[combatID]
	return s, ok
}

// Unload removes the resident session for combatID. Unsaved state is
// discarded; callers wanting durability save first.
func (m *Manager) Unload(combatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, combatID)
}
