package quadsim

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// reservoirInputSize is the width of the feature vector fed into the
// reservoir each tick: gyro rotation (4) + body acceleration (3) + body
// angular velocity (3) + battery sag/open voltage/amperage/mAh drawn (4) +
// the four pilot channels (4) = 18, matching the echo-state-network input
// width the training pipeline this controller's weights come from uses.
const reservoirInputSize = 18

// ReservoirController is a forward-inference-only linear readout over a
// fixed, randomly-connected reservoir (an echo state network): one tanh
// state update per tick driven by IMU/battery/channel inputs, followed by a
// linear readout clamped to [0, 1] per motor. Weights (internal, input, and
// readout) are passed in as matrices to NewReservoirController; this package
// neither loads them from a file nor trains them — fitting them by ridge
// regression against logged trajectories is the external reservoir-computing
// pipeline's job (SPEC_FULL.md §1, §4.10).
type ReservoirController struct {
	mu sync.Mutex

	dtFC float64

	internalWeights *mat.Dense // n x n
	inputWeights    *mat.Dense // n x reservoirInputSize
	readoutWeights  *mat.Dense // n x 4
	readoutBias     [4]float64

	state *mat.VecDense // n x 1, persists across ticks
}

// NewReservoirController validates weight dimensions and returns a
// controller ready to tick every dtFC seconds. internalWeights must be
// square; inputWeights must have reservoirInputSize columns and the same
// row count as internalWeights; readoutWeights must have 4 columns and the
// same row count as internalWeights.
func NewReservoirController(dtFC float64, internalWeights, inputWeights, readoutWeights *mat.Dense, readoutBias [4]float64) (*ReservoirController, error) {
	n, cols := internalWeights.Dims()
	if n != cols {
		return nil, fmt.Errorf("quadsim: reservoir internal weights must be square, got %dx%d", n, cols)
	}
	if r, c := inputWeights.Dims(); r != n || c != reservoirInputSize {
		return nil, fmt.Errorf("quadsim: reservoir input weights must be %dx%d, got %dx%d", n, reservoirInputSize, r, c)
	}
	if r, c := readoutWeights.Dims(); r != n || c != 4 {
		return nil, fmt.Errorf("quadsim: reservoir readout weights must be %dx4, got %dx%d", n, r, c)
	}
	return &ReservoirController{
		dtFC:            dtFC,
		internalWeights: internalWeights,
		inputWeights:    inputWeights,
		readoutWeights:  readoutWeights,
		readoutBias:     readoutBias,
		state:           mat.NewVecDense(n, nil),
	}, nil
}

func (c *ReservoirController) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.internalWeights.Dims()
	c.state = mat.NewVecDense(n, nil)
}

func (c *ReservoirController) reservoirFeatures(input ControllerInput) *mat.VecDense {
	g := input.Gyro
	b := input.Battery
	ch := input.Channels
	return mat.NewVecDense(reservoirInputSize, []float64{
		g.Rotation[0], g.Rotation[1], g.Rotation[2], g.Rotation[3],
		g.LinearAccel[0], g.LinearAccel[1], g.LinearAccel[2],
		g.AngularVelocity[0], g.AngularVelocity[1], g.AngularVelocity[2],
		b.SagVoltage, b.OpenVoltage, b.AmperageA, b.MAhDrawn,
		ch.Throttle, ch.Roll, ch.Pitch, ch.Yaw,
	})
}

// Update advances the reservoir state by one tanh integration step and
// reads the linear readout off the new state, clamped to [0, 1] per motor.
func (c *ReservoirController) Update(dtFCSeconds float64, input ControllerInput) (MotorPWMs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	features := c.reservoirFeatures(input)

	var driven, newState mat.VecDense
	driven.MulVec(c.internalWeights, c.state)
	var fromInput mat.VecDense
	fromInput.MulVec(c.inputWeights, features)
	newState.AddVec(&driven, &fromInput)
	n, _ := newState.Dims()
	for i := 0; i < n; i++ {
		newState.SetVec(i, math.Tanh(newState.AtVec(i)))
	}
	c.state = &newState

	var readout mat.VecDense
	readout.MulVec(c.readoutWeights.T(), c.state)

	var pwms MotorPWMs
	for i := 0; i < 4; i++ {
		pwms[i] = clamp(readout.AtVec(i)+c.readoutBias[i], 0, 1)
	}
	return pwms, nil
}

func (c *ReservoirController) SchedulerDelta() float64 {
	return c.dtFC
}
