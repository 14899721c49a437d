// Package dice provides the randomness abstraction used by the encounter engine
// for attack-pattern selection, volley scatter and reward rolls.
package dice

// Source is the randomness provider for the engine.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// Pick returns a uniformly chosen index in [0, n), or -1 when n <= 0.
//
// Precondition: src must be non-nil.
// Postcondition: Returns -1 iff n <= 0; otherwise a value in [0, n).
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}

// Between returns a uniformly distributed float in [lo, hi).
// When hi <= lo, lo is returned.
func Between(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + src.Float64()*(hi-lo)
}
