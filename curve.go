package quadsim

import "fmt"

// SamplePoint is one (discharge, voltage) anchor of a SampleCurve.
type SamplePoint struct {
	Discharge float64 `yaml:"discharge"`
	Voltage   float64 `yaml:"voltage"`
}

// SampleCurve is a piecewise-linear 1-D lookup with clamped extrapolation,
// used to model a battery's open-circuit voltage as a function of discharge.
// Points must be supplied in strictly increasing discharge order.
type SampleCurve struct {
	points []SamplePoint
	first  SamplePoint
	last   SamplePoint
}

// NewSampleCurve builds a SampleCurve from an ordered set of points. It fails
// if fewer than two points are given or discharge values are not strictly
// increasing.
func NewSampleCurve(points []SamplePoint) (*SampleCurve, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("quadsim: sample curve needs at least two points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Discharge <= points[i-1].Discharge {
			return nil, fmt.Errorf("quadsim: sample curve discharge values must be strictly increasing (point %d: %f <= %f)",
				i, points[i].Discharge, points[i-1].Discharge)
		}
	}
	cp := make([]SamplePoint, len(points))
	copy(cp, points)
	return &SampleCurve{points: cp, first: cp[0], last: cp[len(cp)-1]}, nil
}

// Points returns a copy of the curve's anchor points, for serialisation.
func (c *SampleCurve) Points() []SamplePoint {
	cp := make([]SamplePoint, len(c.points))
	copy(cp, c.points)
	return cp
}

// Sample returns the clamped piecewise-linear interpolation of the curve at x.
func (c *SampleCurve) Sample(x float64) float64 {
	if x < c.first.Discharge {
		return c.first.Voltage
	}
	if x > c.last.Discharge {
		return c.last.Voltage
	}
	for i := 0; i < len(c.points)-1; i++ {
		lo, hi := c.points[i], c.points[i+1]
		if x >= lo.Discharge && x <= hi.Discharge {
			frac := (x - lo.Discharge) / (hi.Discharge - lo.Discharge)
			return lo.Voltage + (hi.Voltage-lo.Voltage)*frac
		}
	}
	return c.last.Voltage
}
