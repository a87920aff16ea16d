package quadsim

import "quadsim/dynamics"

// BatteryState is the battery's per-substep readout.
type BatteryState struct {
	CapacityMAh float64 // remaining capacity, mAh
	OpenVoltage float64 // open-circuit voltage, V
	SagVoltage  float64 // terminal voltage under load, V
	AmperageA   float64 // instantaneous current draw, A
	MAhDrawn    float64 // charged_capacity - CapacityMAh
}

// RotorState is one rotor's per-substep readout.
type RotorState struct {
	CurrentA        float64
	RPM             float64
	MotorTorque     float64
	EffectiveThrust float64
	PWM             float64 // in [0, 1]
	SpinDirection   float64 // -1 or +1
	MotorPosition   Vec3    // body-frame offset from the center of mass
	PWMFilter       LowPassFilter
}

// DroneFrameState is the rigid body's per-substep readout.
type DroneFrameState struct {
	Position         Vec3
	Rotation         dynamics.Matrix3 // element of SO(3)
	LinearVelocity   Vec3
	AngularVelocity  Vec3
	LinearAcceleration Vec3
}

// GyroState is the IMU's per-substep readout.
type GyroState struct {
	Rotation        dynamics.Quaternion
	AccelerationBody Vec3
	AngularVelocityBody Vec3
	LPFs            [3]LowPassFilter // one per world-frame angular-velocity axis
}

// SimulationFrame bundles one complete instant of simulated state. A Drone
// owns exactly two of these (current, next) and swaps them once per substep.
type SimulationFrame struct {
	Battery BatteryState
	Rotors  [4]RotorState
	Drone   DroneFrameState
	Gyro    GyroState
}

// Clone returns a deep copy of f (frames contain no pointers, so this is a
// plain value copy, but the method documents the intent at call sites like
// Drone.Reset where an aliasing bug would be easy to introduce).
func (f SimulationFrame) Clone() SimulationFrame {
	return f
}

// frameComponent is the capability every physics model implements: read the
// current frame (and whatever of next has already been written by an earlier
// component this substep), and write only into next. The Drone aggregate
// invokes a fixed slice of these in order (battery, rotor, rigid body, gyro)
// each substep; see SPEC_FULL.md §4.7 and §9.
type frameComponent interface {
	setNewState(current, next *SimulationFrame, dt float64, rng *prng)
}
