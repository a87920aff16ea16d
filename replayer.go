package quadsim

import "time"

// Replayer is identical to Simulator except the controller call is replaced
// by a cursor walk through a previously logged Snapshot stream: after each
// substep it consumes every snapshot whose elapsed time is <= the internal
// sim time and applies the last one's motor PWMs. Until the first snapshot
// is consumed the drone keeps its initial frame's PWMs. From the substep
// after the last snapshot is consumed it reverts to DefaultMotorPWMs rather
// than holding the last commanded value (SPEC_FULL.md §4.9).
type Replayer struct {
	drone *Drone
	log   FlightLog

	dtPhys     float64
	timeAccu   float64
	simTime    float64
	cursor     int
	lastPWMs   MotorPWMs
	initial    SimulationFrame

	metrics  *schedulerMetrics
	updating bool
}

// NewReplayer constructs a Replayer around drone and the log to reproduce.
// initial is the SimulationFrame the original Simulator started from, used
// by Reset.
func NewReplayer(drone *Drone, log FlightLog, initial SimulationFrame, dtPhys float64) *Replayer {
	if dtPhys <= 0 {
		dtPhys = defaultDtPhys
	}
	return &Replayer{
		drone:    drone,
		log:      log,
		dtPhys:   dtPhys,
		lastPWMs: DefaultMotorPWMs,
		initial:  initial,
		metrics:  newSchedulerMetrics(),
	}
}

// SimulateDelta advances the replay by deltaWall seconds, feeding the
// drone the logged PWM stream instead of a live controller. Unlike
// Simulator.SimulateDelta it takes no channels: the replay's commands come
// entirely from the log.
func (r *Replayer) SimulateDelta(deltaWall float64) Observation {
	if r.updating {
		panic("quadsim: Replayer.SimulateDelta called re-entrantly")
	}
	r.updating = true
	defer func() { r.updating = false }()

	start := time.Now()
	r.timeAccu += deltaWall
	for r.timeAccu > r.dtPhys {
		r.drone.Update(r.dtPhys)
		r.metrics.substeps.Inc()

		consumed := false
		for r.cursor < len(r.log.Snapshots) && r.log.Snapshots[r.cursor].ElapsedTime <= r.simTime {
			r.lastPWMs = r.log.Snapshots[r.cursor].MotorPWMs
			r.cursor++
			consumed = true
			r.metrics.controllerTicks.Inc()
		}
		if !consumed && r.cursor >= len(r.log.Snapshots) {
			r.lastPWMs = DefaultMotorPWMs
		}
		if consumed || r.cursor >= len(r.log.Snapshots) {
			r.drone.SetMotorPWMs(r.lastPWMs)
		}

		r.timeAccu -= r.dtPhys
		r.simTime += r.dtPhys
	}
	r.metrics.simulateDelta.Observe(time.Since(start).Seconds())
	return r.observation()
}

func (r *Replayer) observation() Observation {
	frame := r.drone.Current()
	var thrust, rpm, pwm [4]float64
	for i, rs := range frame.Rotors {
		thrust[i] = rs.EffectiveThrust
		rpm[i] = rs.RPM
		pwm[i] = rs.PWM
	}
	return Observation{
		SimTime:            r.simTime,
		Rotation:           frame.Gyro.Rotation,
		Position:           frame.Drone.Position,
		LinearVelocity:     frame.Drone.LinearVelocity,
		LinearAcceleration: frame.Drone.LinearAcceleration,
		AngularVelocity:    frame.Drone.AngularVelocity,
		RotorThrust:        thrust,
		RotorRPM:           rpm,
		RotorPWM:           pwm,
		BatteryOpenVoltage: frame.Battery.OpenVoltage,
		BatterySagVoltage:  frame.Battery.SagVoltage,
	}
}

// Reset restores the drone to the replayer's initial frame and rewinds the
// cursor to 0, per SPEC_FULL.md §4.9.
func (r *Replayer) Reset() {
	r.drone.Reset(r.initial)
	r.cursor = 0
	r.timeAccu = 0
	r.simTime = 0
	r.lastPWMs = DefaultMotorPWMs
}
