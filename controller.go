package quadsim

// BatteryUpdate is the battery readout exposed to a Controller: a subset of
// BatteryState (the controller never sees capacity directly) plus the pack's
// cell count from the BatteryModel.
type BatteryUpdate struct {
	CellCount    int
	SagVoltage   float64
	OpenVoltage  float64
	AmperageA    float64
	MAhDrawn     float64
}

// GyroUpdate is the IMU readout exposed to a Controller.
type GyroUpdate struct {
	Rotation        [4]float64 // x, y, z, w
	LinearAccel     [3]float64
	AngularVelocity [3]float64
}

// Channels are the pilot's normalised stick inputs, each in [-1, 1] except
// Throttle which is in [0, 1].
type Channels struct {
	Throttle float64
	Roll     float64
	Pitch    float64
	Yaw      float64
}

// ControllerInput bundles everything a Controller sees on one tick.
type ControllerInput struct {
	Battery  BatteryUpdate
	Gyro     GyroUpdate
	Channels Channels
}

// MotorPWMs are the four motor commands a Controller produces, each in [0, 1].
type MotorPWMs [4]float64

// DefaultMotorPWMs is full throttle on all four rotors: the
// PassThroughController's default command, and what a Replayer applies once
// its log has run out (SPEC_FULL.md §4.9). Before the first controller tick
// (or the first replayed snapshot) a drone keeps its initial frame's PWMs.
var DefaultMotorPWMs = MotorPWMs{1, 1, 1, 1}

// Controller converts pilot input and sensor feedback into motor commands.
// The core owns no concrete implementation requirement beyond this
// interface; see SPEC_FULL.md §4.10 for the implementations this repository
// ships (PassThroughController, StabilizingController, ReservoirController).
// Update returns an error when the controller refuses to produce PWMs; the
// Simulator surfaces it rather than choosing a fallback (SPEC_FULL.md §7).
// The three implementations in this package never return one.
type Controller interface {
	Init()
	Update(dtFCSeconds float64, input ControllerInput) (MotorPWMs, error)
	SchedulerDelta() float64 // dt_fc, in seconds
}
