package telemetry

import (
	"math/rand/v2"
	"sync"
)

// MetricSource produces the value published for a definition
type MetricSource interface {
	Value(def Definition) float64
}

// SourceFunc adapts a function to MetricSource
type SourceFunc func(def Definition) float64

// Value calls f(def)
func (f SourceFunc) Value(def Definition) float64 {
	return f(def)
}

// FixedSource returns a preset value per metric name and 0 for the rest
type FixedSource map[string]float64

// Value looks up def.Name
func (s FixedSource) Value(def Definition) float64 {
	return s[def.Name]
}

// RandomSource draws each value from its definition's generator
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource creates a randomly seeded source
func NewRandomSource() *RandomSource {
	return NewSeededSource(rand.Uint64())
}

// NewSeededSource creates a source with a reproducible sequence
func NewSeededSource(seed uint64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Value implements MetricSource
func (s *RandomSource) Value(def Definition) float64 {
	g := def.Generator

	s.mu.Lock()
	defer s.mu.Unlock()

	switch g.Kind {
	case GeneratorConstant:
		return g.Min
	case GeneratorUniformInt:
		lo, hi := int64(g.Min), int64(g.Max)
		if hi <= lo {
			return float64(lo)
		}
		return float64(lo + s.rng.Int64N(hi-lo+1))
	default:
		return g.Min + s.rng.Float64()*(g.Max-g.Min)
	}
}
