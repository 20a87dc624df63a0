package dice

import "go.uber.org/zap"

// Roller wraps a Source so every die drawn leaves a debug audit entry. It
// satisfies Source itself, so wiring a Roller where the engine takes its
// randomness puts initiative, attack, and damage dice all on the trail.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each die.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws from the underlying source and logs the die face at debug level.
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("die rolled",
		zap.Int("sides", n),
		zap.Int("face", v+1),
	)
	return v
}
