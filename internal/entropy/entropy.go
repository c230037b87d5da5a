// Package entropy provides the random source every synthetic value is drawn from.
package entropy

import (
	"math/rand/v2"
)

// Source is satisfied by *rand.Rand from math/rand/v2.
type Source interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// IntN returns a value in [0,n). n is always positive.
	IntN(n int) int
}

// Seeded returns a reproducible source.
func Seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Ambient returns an independently seeded source. Each caller gets its own.
func Ambient() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// For picks Seeded when seed is set and Ambient otherwise.
func For(seed *uint64) Source {
	if seed != nil {
		return Seeded(*seed)
	}
	return Ambient()
}

// Uniform draws from [lo,hi]. lo == hi yields lo.
func Uniform(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	v := lo + src.Float64()*(hi-lo)
	if v > hi {
		v = hi
	}
	return v
}

// IntBetween draws an integer from the closed interval [lo,hi].
func IntBetween(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Choice picks one element uniformly. It panics on an empty slice;
// callers validate enumerations up front.
func Choice[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Scripted replays fixed values, cycling when exhausted. IntN returns
// ints from Ints (reduced mod n) or 0 when none are scripted.
type Scripted struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

func (s *Scripted) IntN(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}
