package quadsim

import (
	"math"
	"testing"

	"quadsim/dynamics"
)

func freeFallDrone(t *testing.T) *Drone {
	t.Helper()
	curve, err := NewSampleCurve([]SamplePoint{{Discharge: 0, Voltage: 4.2}, {Discharge: 1, Voltage: 3.3}})
	if err != nil {
		t.Fatalf("NewSampleCurve: %v", err)
	}
	battery := BatteryModel{NominalCapacityMAh: 1500, VoltageCurve: curve, CellCount: 4, ChargedCapacityMAh: 1500, MaxSagV: 1.2}
	// Zero thrust coefficients: rotors produce no thrust regardless of pwm/rpm (scenario 1, §8).
	rotors := RotorModel{MaxRPM: 25000, KV: 2300, Resistance: 0.1, IdleCurrentA: 0.5, ThrustCoeffs: [3]float64{0, 0, 0}, TorqueCoefficient: 0.01, ACoefficient: 0, Inertia: 1e-5}
	body := DroneModel{FrameDragArea: Vec3{}, FrameDragConstant: 0, Mass: 0.8, InvTensor: dynamics.Identity3()}
	gyro := GyroModel{}

	var rotorStates [4]RotorState
	for i := range rotorStates {
		rotorStates[i] = RotorState{SpinDirection: 1, MotorPosition: Vec3{0.1, 0, 0.1}}
	}
	initial := SimulationFrame{
		Battery: BatteryState{CapacityMAh: 1500},
		Rotors:  rotorStates,
		Drone:   DroneFrameState{Rotation: dynamics.Identity3()},
	}
	return newDroneFromModels(battery, rotors, body, gyro, initial, 1)
}

func TestSimulatorFreeFallMatchesKinematics(t *testing.T) {
	drone := freeFallDrone(t)
	controller := NewPassThroughController(DefaultMotorPWMs, 0.005)
	logger := NewMemoryLogger()
	sim := NewSimulator(drone, controller, logger, 5e-6)

	obs, err := sim.SimulateDelta(1.0, Channels{Throttle: 1})
	if err != nil {
		t.Fatalf("SimulateDelta: %v", err)
	}

	if math.Abs(obs.Position.Y-(-4.905)) > 1e-3 {
		t.Fatalf("position.y = %v, want approx -4.905", obs.Position.Y)
	}
	if math.Abs(obs.LinearVelocity.Y-(-9.81)) > 1e-3 {
		t.Fatalf("velocity.y = %v, want approx -9.81", obs.LinearVelocity.Y)
	}
	if obs.Position.X != 0 || obs.Position.Z != 0 {
		t.Fatalf("expected no lateral displacement in free fall, got %+v", obs.Position)
	}
}

func TestSimulatorControllerCadence(t *testing.T) {
	drone := freeFallDrone(t)
	controller := NewPassThroughController(DefaultMotorPWMs, 0.005)
	logger := NewMemoryLogger()
	sim := NewSimulator(drone, controller, logger, 0.001)

	_, err := sim.SimulateDelta(0.020, Channels{})
	if err != nil {
		t.Fatalf("SimulateDelta: %v", err)
	}

	got := len(logger.FlightLog().Snapshots)
	if got != 4 {
		t.Fatalf("expected 4 controller ticks logged over 20ms at dt_fc=5ms, got %d", got)
	}
}

func TestSimulatorSubstepCountUsesStrictGreaterThan(t *testing.T) {
	drone := freeFallDrone(t)
	controller := NewPassThroughController(DefaultMotorPWMs, 1)
	logger := NewMemoryLogger()
	const dtPhys = 0.001
	sim := NewSimulator(drone, controller, logger, dtPhys)

	// Two bursts of k*dt_phys + eps for different eps strictly within
	// (0, dt_phys) must both execute exactly k substeps (SPEC_FULL.md §8),
	// since the accumulator loop uses strict `>`, not `>=`.
	obsA, err := sim.SimulateDelta(3*dtPhys+0.1*dtPhys, Channels{})
	if err != nil {
		t.Fatalf("SimulateDelta: %v", err)
	}

	drone2 := freeFallDrone(t)
	sim2 := NewSimulator(drone2, NewPassThroughController(DefaultMotorPWMs, 1), NewMemoryLogger(), dtPhys)
	obsB, err := sim2.SimulateDelta(3*dtPhys+0.9*dtPhys, Channels{})
	if err != nil {
		t.Fatalf("SimulateDelta: %v", err)
	}

	if obsA.Position != obsB.Position {
		t.Fatalf("expected identical positions for k*dt_phys+eps bursts regardless of eps in (0,dt_phys), got %+v vs %+v", obsA.Position, obsB.Position)
	}
}

func TestSimulatorPanicsOnReentrantCall(t *testing.T) {
	drone := freeFallDrone(t)
	sim := NewSimulator(drone, NewPassThroughController(DefaultMotorPWMs, 0.005), NewMemoryLogger(), 5e-6)
	sim.updating = true

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected SimulateDelta to panic on reentrancy")
		}
	}()
	sim.SimulateDelta(0.001, Channels{})
}
