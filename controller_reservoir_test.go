package quadsim

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewReservoirControllerValidatesDimensions(t *testing.T) {
	square := mat.NewDense(3, 3, make([]float64, 9))
	validInput := mat.NewDense(3, reservoirInputSize, make([]float64, 3*reservoirInputSize))
	validReadout := mat.NewDense(3, 4, make([]float64, 12))

	cases := []struct {
		name      string
		internal  *mat.Dense
		input     *mat.Dense
		readout   *mat.Dense
		wantError bool
	}{
		{
			name:     "valid dimensions",
			internal: square,
			input:    validInput,
			readout:  validReadout,
		},
		{
			name:      "non-square internal weights",
			internal:  mat.NewDense(3, 4, make([]float64, 12)),
			input:     validInput,
			readout:   validReadout,
			wantError: true,
		},
		{
			name:      "input weights wrong row count",
			internal:  square,
			input:     mat.NewDense(4, reservoirInputSize, make([]float64, 4*reservoirInputSize)),
			readout:   validReadout,
			wantError: true,
		},
		{
			name:      "input weights wrong column count",
			internal:  square,
			input:     mat.NewDense(3, reservoirInputSize-1, make([]float64, 3*(reservoirInputSize-1))),
			readout:   validReadout,
			wantError: true,
		},
		{
			name:      "readout weights wrong row count",
			internal:  square,
			input:     validInput,
			readout:   mat.NewDense(4, 4, make([]float64, 16)),
			wantError: true,
		},
		{
			name:      "readout weights wrong column count",
			internal:  square,
			input:     validInput,
			readout:   mat.NewDense(3, 3, make([]float64, 9)),
			wantError: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReservoirController(0.01, tc.internal, tc.input, tc.readout, [4]float64{})
			if tc.wantError && err == nil {
				t.Fatalf("expected an error, got nil")
			}
			if !tc.wantError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestReservoirControllerForwardInference(t *testing.T) {
	// A single reservoir unit with no self-feedback, driven only by the
	// throttle channel (feature index 14 of reservoirFeatures), and a
	// readout that copies that unit's state straight to every motor.
	internal := mat.NewDense(1, 1, []float64{0})
	weights := make([]float64, reservoirInputSize)
	weights[14] = 1
	input := mat.NewDense(1, reservoirInputSize, weights)
	readout := mat.NewDense(1, 4, []float64{1, 1, 1, 1})

	c, err := NewReservoirController(0.01, internal, input, readout, [4]float64{})
	if err != nil {
		t.Fatalf("NewReservoirController: %v", err)
	}
	c.Init()

	pwms, err := c.Update(0.01, ControllerInput{Channels: Channels{Throttle: 1}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := math.Tanh(1)
	for i, got := range pwms {
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("pwms[%d] = %v, want %v (tanh(1))", i, got, want)
		}
	}
}

func TestReservoirControllerClampsReadoutToUnitRange(t *testing.T) {
	internal := mat.NewDense(1, 1, []float64{0})
	input := mat.NewDense(1, reservoirInputSize, make([]float64, reservoirInputSize))
	readout := mat.NewDense(1, 4, []float64{0, 0, 0, 0})

	c, err := NewReservoirController(0.01, internal, input, readout, [4]float64{2, -2, 0.5, 0.5})
	if err != nil {
		t.Fatalf("NewReservoirController: %v", err)
	}
	c.Init()

	pwms, err := c.Update(0.01, ControllerInput{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := MotorPWMs{1, 0, 0.5, 0.5}
	if pwms != want {
		t.Fatalf("pwms = %+v, want %+v (readout bias clamped to [0, 1])", pwms, want)
	}
}

func TestReservoirControllerInitResetsState(t *testing.T) {
	// Nonzero self-feedback, so a tick with zero input leaves the state away
	// from its initialized zero value.
	internal := mat.NewDense(1, 1, []float64{0.5})
	weights := make([]float64, reservoirInputSize)
	weights[14] = 1
	input := mat.NewDense(1, reservoirInputSize, weights)
	readout := mat.NewDense(1, 4, []float64{1, 1, 1, 1})

	c, err := NewReservoirController(0.01, internal, input, readout, [4]float64{})
	if err != nil {
		t.Fatalf("NewReservoirController: %v", err)
	}
	c.Init()

	throttleInput := ControllerInput{Channels: Channels{Throttle: 1}}
	first, err := c.Update(0.01, throttleInput)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// Drive the reservoir state further so it no longer matches its
	// just-initialized value.
	if _, err := c.Update(0.01, ControllerInput{}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	c.Init()
	second, err := c.Update(0.01, throttleInput)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if second != first {
		t.Fatalf("first tick after Init() = %+v, want %+v (same as the very first tick)", second, first)
	}
}

func TestReservoirControllerSchedulerDelta(t *testing.T) {
	c, err := NewReservoirController(0.0025, mat.NewDense(1, 1, []float64{0}), mat.NewDense(1, reservoirInputSize, make([]float64, reservoirInputSize)), mat.NewDense(1, 4, make([]float64, 4)), [4]float64{})
	if err != nil {
		t.Fatalf("NewReservoirController: %v", err)
	}
	if got := c.SchedulerDelta(); got != 0.0025 {
		t.Fatalf("SchedulerDelta() = %v, want 0.0025", got)
	}
}
