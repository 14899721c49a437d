// Package curse tracks the externally applied debuff that weakens a boss's
// outgoing damage for a limited time.
package curse

import "time"

// State is the active curse on one boss.
// It is not safe for concurrent use; the caller must serialise access.
//
// Invariant: Factor() is in [0, 1]; Factor() == 1 whenever no curse is active.
type State struct {
	factor    float64
	remaining time.Duration
}

// Apply replaces any active curse with a new one.
// factor is clamped to [0, 1]; a non-positive duration clears the curse.
//
// Postcondition: Active() iff duration > 0; Factor() returns the clamped factor while active.
func (s *State) Apply(factor float64, duration time.Duration) {
	if duration <= 0 {
		s.Clear()
		return
	}
	switch {
	case factor < 0:
		factor = 0
	case factor > 1:
		factor = 1
	}
	s.factor = factor
	s.remaining = duration
}

// Clear removes the active curse.
//
// Postcondition: Active() is false and Factor() == 1.
func (s *State) Clear() {
	s.factor = 1
	s.remaining = 0
}

// Tick counts the curse down by delta.
//
// Postcondition: Returns true iff the curse expired during this call.
func (s *State) Tick(delta time.Duration) bool {
	if s.remaining <= 0 {
		return false
	}
	s.remaining -= delta
	if s.remaining <= 0 {
		s.Clear()
		return true
	}
	return false
}

// Active reports whether a curse is currently applied.
func (s *State) Active() bool { return s.remaining > 0 }

// Remaining returns the time left on the active curse, or 0.
func (s *State) Remaining() time.Duration {
	if s.remaining < 0 {
		return 0
	}
	return s.remaining
}

// Factor returns the multiplier applied to the boss's outgoing damage.
//
// Postcondition: Returns 1 when no curse is active.
func (s *State) Factor() float64 {
	if s.remaining <= 0 {
		return 1
	}
	return s.factor
}
