package quadsim

import "testing"

func TestLowPassFilterMonotoneApproach(t *testing.T) {
	f := LowPassFilter{Output: 0, EPow: 0}
	const input = 10.0
	prevDelta := input - f.Output
	for i := 0; i < 200; i++ {
		f = f.Update(input, 0.001, 50)
		delta := input - f.Output
		if abs(delta) > abs(prevDelta)+1e-12 {
			t.Fatalf("iteration %d: |delta| grew from %f to %f", i, prevDelta, delta)
		}
		prevDelta = delta
	}
}

func TestLowPassFilterUsesPreviousEPow(t *testing.T) {
	// First update: e_pow starts at 0, so output must not move at all,
	// even though the freshly computed e_pow is nonzero.
	f := LowPassFilter{Output: 1, EPow: 0}
	next := f.Update(5, 0.01, 10)
	if next.Output != 1 {
		t.Fatalf("expected output unchanged on first update (e_pow was 0), got %f", next.Output)
	}
	if next.EPow == 0 {
		t.Fatalf("expected freshly computed e_pow to be nonzero")
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
