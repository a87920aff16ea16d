package quadsim

import "testing"

func TestPRNGDeterministicPerSeed(t *testing.T) {
	a := newPRNG(42)
	b := newPRNG(42)
	for i := 0; i < 50; i++ {
		va := a.floatRange(-1, 1)
		vb := b.floatRange(-1, 1)
		if va != vb {
			t.Fatalf("draw %d diverged: %f != %f", i, va, vb)
		}
	}
}

func TestPRNGRangeBounds(t *testing.T) {
	p := newPRNG(7)
	for i := 0; i < 1000; i++ {
		v := p.floatRange(-0.125, 0.375)
		if v < -0.125 || v >= 0.375 {
			t.Fatalf("draw %f outside [-0.125, 0.375)", v)
		}
	}
}
