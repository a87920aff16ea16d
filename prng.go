package quadsim

import "math/rand"

// prng is a simulator-scoped pseudo-random source. Every stochastic draw in
// the core (battery sag/current noise) goes through one of these; a process-
// global math/rand source is never used, so that cloning an episode's seed
// reproduces it bit-for-bit and two episodes running concurrently never
// contend on, or accidentally share, randomness (see SPEC_FULL.md §5).
//
// No third-party PRNG package appears in any of the example repositories'
// dependency graphs, so this is deliberately built on the standard library
// (see DESIGN.md).
type prng struct {
	r *rand.Rand
}

func newPRNG(seed uint64) *prng {
	return &prng{r: rand.New(rand.NewSource(int64(seed)))}
}

// floatRange returns a float64 drawn uniformly from [lo, hi).
func (p *prng) floatRange(lo, hi float64) float64 {
	return lo + p.r.Float64()*(hi-lo)
}
