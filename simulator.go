package quadsim

import (
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"

	"quadsim/dynamics"
)

// Observation is the per-SimulateDelta return value: everything a caller
// needs to know about the drone's state as of the call's last substep
// (SPEC_FULL.md §3a, §4.8).
type Observation struct {
	SimTime            float64
	Rotation           dynamics.Quaternion
	Position           Vec3
	LinearVelocity     Vec3
	LinearAcceleration Vec3
	AngularVelocity    Vec3
	RotorThrust        [4]float64
	RotorRPM           [4]float64
	RotorPWM           [4]float64
	BatteryOpenVoltage float64
	BatterySagVoltage  float64
}

// Simulator drives a Drone through wall-clock-sized bursts, running the
// physics substep at dtPhys and consulting the Controller at the cadence it
// reports via SchedulerDelta. A Simulator owns its Drone exclusively;
// SimulateDelta is the only mutator (SPEC_FULL.md §4.8, §5).
type Simulator struct {
	drone      *Drone
	controller Controller
	logger     Logger

	dtPhys     float64
	timeAccu   float64
	fcTimeAccu float64
	simTime    float64

	metrics  *schedulerMetrics
	updating bool

	statusLog     kitlog.Logger
	batteryWarned bool
}

// defaultDtPhys is the fixed physics substep used when a scenario doesn't
// override it: 5 microseconds (SPEC_FULL.md §4.8).
const defaultDtPhys = 5e-6

// NewSimulator constructs a Simulator around an already-built Drone, and
// calls controller.Init().
func NewSimulator(drone *Drone, controller Controller, logger Logger, dtPhys float64) *Simulator {
	if dtPhys <= 0 {
		dtPhys = defaultDtPhys
	}
	controller.Init()
	return &Simulator{
		drone:      drone,
		controller: controller,
		logger:     logger,
		dtPhys:     dtPhys,
		metrics:    newSchedulerMetrics(),
	}
}

// SimulateDelta advances the simulation by deltaWall seconds of wall-clock
// time under the given pilot channels, running physics substeps while
// time_accu > dt_phys (strict, not >=, per SPEC_FULL.md §9 item 3) and
// consulting the controller whenever fc_time_accu exceeds its reported
// scheduler delta. It panics if called re-entrantly.
func (s *Simulator) SimulateDelta(deltaWall float64, channels Channels) (Observation, error) {
	if s.updating {
		panic("quadsim: Simulator.SimulateDelta called re-entrantly")
	}
	s.updating = true
	defer func() { s.updating = false }()

	start := time.Now()
	dtFC := s.controller.SchedulerDelta()

	s.timeAccu += deltaWall
	for s.timeAccu > s.dtPhys {
		s.fcTimeAccu += s.dtPhys
		s.drone.Update(s.dtPhys)
		s.metrics.substeps.Inc()

		if s.fcTimeAccu > dtFC {
			input := ControllerInput{
				Battery:  s.drone.BatteryUpdate(),
				Gyro:     s.drone.GyroUpdate(),
				Channels: channels,
			}
			pwms, err := s.controller.Update(dtFC, input)
			if err != nil {
				s.metrics.simulateDelta.Observe(time.Since(start).Seconds())
				return Observation{}, fmt.Errorf("quadsim: controller refused to produce pwms: %w", err)
			}
			s.drone.SetMotorPWMs(pwms)
			s.fcTimeAccu -= dtFC
			s.metrics.controllerTicks.Inc()

			if err := s.logger.Log(Snapshot{
				ElapsedTime: s.simTime,
				MotorPWMs:   pwms,
				Battery:     input.Battery,
				Gyro:        input.Gyro,
				Channels:    channels,
			}); err != nil {
				s.metrics.simulateDelta.Observe(time.Since(start).Seconds())
				return Observation{}, fmt.Errorf("quadsim: logger rejected snapshot: %w", err)
			}
		}
		s.timeAccu -= s.dtPhys
		s.simTime += s.dtPhys
	}

	s.warnIfBatteryLow()
	s.metrics.simulateDelta.Observe(time.Since(start).Seconds())
	return s.observation(), nil
}

func (s *Simulator) observation() Observation {
	frame := s.drone.Current()
	var thrust, rpm, pwm [4]float64
	for i, r := range frame.Rotors {
		thrust[i] = r.EffectiveThrust
		rpm[i] = r.RPM
		pwm[i] = r.PWM
	}
	return Observation{
		SimTime:            s.simTime,
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

// SetSimulationID forwards to the logger if it supports SimulationIDSetter;
// otherwise it is a no-op.
func (s *Simulator) SetSimulationID(id string) {
	if setter, ok := s.logger.(SimulationIDSetter); ok {
		setter.SetSimulationID(id)
	}
}
