package quadsim

import "math"

// LowPassFilter is a first-order IIR low-pass filter state. It is
// value-returning rather than mutated in place: the rotor and gyro models
// evaluate it while reading the current frame and write the returned pair
// into the next frame, per the dual-frame swap discipline (see Drone).
type LowPassFilter struct {
	Output float64 `yaml:"output"`
	EPow   float64 `yaml:"e_pow"`
}

// Update computes the filter's next (output, e_pow) pair for the given
// input, step, and cutoff frequency.
//
// The smoothing coefficient used to blend input into output is the
// *previous* e_pow, not the one just computed from dt/cutoff — only the
// freshly computed e_pow is carried forward for the next call. This mirrors
// the upstream filter exactly; swapping the order changes every logged
// trajectory that passes through a rotor or gyro filter.
func (f LowPassFilter) Update(input, dt, cutoff float64) LowPassFilter {
	ePow := 1.0 - math.Exp(-dt*2.0*math.Pi*cutoff)
	output := f.Output + (input-f.Output)*f.EPow
	return LowPassFilter{Output: output, EPow: ePow}
}
