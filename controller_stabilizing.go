package quadsim

import (
	"sync"
)

// StabilizingController is a minimal in-core PID-style stand-in for a
// native flight-control firmware. It is not a port of any real betaflight
// build: it is a simple rate-PID stabilizer around the three body-rate
// channels plus a throttle passthrough, provided so the core has a
// controller that actually reacts to IMU feedback without depending on an
// external dynamically-loaded library. A real native-firmware binding
// remains an external collaborator (SPEC_FULL.md §1, §4.10); this type
// documents the shape such a binding would have to fill.
//
// Internally serialised behind a mutex so one instance may be shared across
// simulators (SPEC_FULL.md §5).
type StabilizingController struct {
	mu sync.Mutex

	dtFC float64

	// Per-axis (roll, pitch, yaw) rate-PID gains.
	KP, KI, KD [3]float64

	integral  [3]float64
	prevError [3]float64
	inited    bool
}

// NewStabilizingController returns a controller ticking every dtFC seconds
// with the given per-axis rate-PID gains, ordered (roll, pitch, yaw).
func NewStabilizingController(dtFC float64, kp, ki, kd [3]float64) *StabilizingController {
	return &StabilizingController{dtFC: dtFC, KP: kp, KI: ki, KD: kd}
}

func (c *StabilizingController) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.integral = [3]float64{}
	c.prevError = [3]float64{}
	c.inited = true
}

// Update runs one rate-PID step per axis against the channel-commanded body
// rates and the gyro's measured angular velocity, then mixes the three axis
// outputs plus the throttle channel into four motor PWMs with a standard
// quad-X mix, clamped to [0, 1].
func (c *StabilizingController) Update(dtFCSeconds float64, input ControllerInput) (MotorPWMs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	targetRate := [3]float64{input.Channels.Roll, input.Channels.Pitch, input.Channels.Yaw}
	measuredRate := [3]float64{
		input.Gyro.AngularVelocity[0],
		input.Gyro.AngularVelocity[1],
		input.Gyro.AngularVelocity[2],
	}

	var axisOut [3]float64
	for i := 0; i < 3; i++ {
		err := targetRate[i] - measuredRate[i]
		c.integral[i] += err * dtFCSeconds
		derivative := 0.0
		if dtFCSeconds > 0 {
			derivative = (err - c.prevError[i]) / dtFCSeconds
		}
		axisOut[i] = c.KP[i]*err + c.KI[i]*c.integral[i] + c.KD[i]*derivative
		c.prevError[i] = err
	}

	roll, pitch, yaw := axisOut[0], axisOut[1], axisOut[2]
	throttle := input.Channels.Throttle

	pwms := MotorPWMs{
		clamp(throttle+pitch+roll-yaw, 0, 1),
		clamp(throttle+pitch-roll+yaw, 0, 1),
		clamp(throttle-pitch-roll-yaw, 0, 1),
		clamp(throttle-pitch+roll+yaw, 0, 1),
	}
	return pwms, nil
}

func (c *StabilizingController) SchedulerDelta() float64 {
	return c.dtFC
}
