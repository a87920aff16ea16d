package quadsim

import (
	"testing"

	"quadsim/dynamics"
)

func testDroneModels(t *testing.T) (BatteryModel, RotorModel, DroneModel, GyroModel) {
	t.Helper()
	curve, err := NewSampleCurve([]SamplePoint{
		{Discharge: 0, Voltage: 4.2},
		{Discharge: 0.5, Voltage: 3.8},
		{Discharge: 1, Voltage: 3.3},
	})
	if err != nil {
		t.Fatalf("NewSampleCurve: %v", err)
	}
	battery := BatteryModel{
		NominalCapacityMAh: 1500,
		VoltageCurve:       curve,
		CellCount:          4,
		ChargedCapacityMAh: 1500,
		MaxSagV:            1.2,
	}
	rotors := RotorModel{
		MaxRPM:            25000,
		KV:                2300,
		Resistance:        0.1,
		IdleCurrentA:      0.5,
		ThrustCoeffs:      [3]float64{0.001, 0.01, 0.1},
		TorqueCoefficient: 0.01,
		ACoefficient:      1e-6,
		Inertia:           1e-5,
	}
	body := DroneModel{
		FrameDragArea:     Vec3{X: 0.02, Y: 0.02, Z: 0.02},
		FrameDragConstant: 1.5,
		Mass:              0.8,
		InvTensor:         dynamics.Identity3(),
	}
	gyro := GyroModel{}
	return battery, rotors, body, gyro
}

func testInitialFrame() SimulationFrame {
	var rotors [4]RotorState
	for i := range rotors {
		rotors[i] = RotorState{
			PWM:           0,
			SpinDirection: 1,
			MotorPosition: Vec3{X: 0.1, Y: 0, Z: 0.1},
		}
	}
	return SimulationFrame{
		Battery: BatteryState{CapacityMAh: 1500},
		Rotors:  rotors,
		Drone: DroneFrameState{
			Rotation: dynamics.Identity3(),
		},
	}
}

func TestDroneUpdateAdvancesFrameAndSwaps(t *testing.T) {
	battery, rotors, body, gyro := testDroneModels(t)
	d := newDroneFromModels(battery, rotors, body, gyro, testInitialFrame(), 1)

	before := d.Position()
	d.Update(0.001)
	after := d.Position()

	if before == after {
		t.Fatalf("expected position to change under gravity, stayed at %+v", after)
	}
	// Free fall with zero thrust: the drone should only have moved downward (Y).
	if after.X != 0 || after.Z != 0 {
		t.Fatalf("expected no lateral motion under pure gravity, got %+v", after)
	}
	if after.Y >= before.Y {
		t.Fatalf("expected downward motion under gravity, got Y=%v (was %v)", after.Y, before.Y)
	}
}

func TestDroneSetMotorPWMsIsReadBackByMotorPWMs(t *testing.T) {
	battery, rotors, body, gyro := testDroneModels(t)
	d := newDroneFromModels(battery, rotors, body, gyro, testInitialFrame(), 2)

	want := MotorPWMs{0.25, 0.5, 0.75, 1.0}
	d.SetMotorPWMs(want)
	if got := d.MotorPWMs(); got != want {
		t.Fatalf("MotorPWMs() = %+v, want %+v", got, want)
	}
}

func TestDroneResetReplacesBothFrames(t *testing.T) {
	battery, rotors, body, gyro := testDroneModels(t)
	d := newDroneFromModels(battery, rotors, body, gyro, testInitialFrame(), 3)

	d.Update(0.001)
	moved := d.Position()
	if moved.Y == 0 {
		t.Fatalf("expected the drone to have moved before reset")
	}

	fresh := testInitialFrame()
	d.Reset(fresh)
	if got := d.Position(); got != fresh.Drone.Position {
		t.Fatalf("Position() after Reset = %+v, want %+v", got, fresh.Drone.Position)
	}
	// A subsequent update should behave exactly like the first update from a
	// fresh drone, proving next was reset too, not just current.
	d.Update(0.001)
	if d.Position() != moved {
		t.Fatalf("post-reset update diverged from first update: got %+v, want %+v", d.Position(), moved)
	}
}

func TestDroneUpdatePanicsOnReentrancy(t *testing.T) {
	battery, rotors, body, gyro := testDroneModels(t)
	d := newDroneFromModels(battery, rotors, body, gyro, testInitialFrame(), 4)
	d.updating = true

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected Update to panic on reentrancy")
		}
	}()
	d.Update(0.001)
}

func TestDroneBatteryAndGyroUpdateReflectCurrentFrame(t *testing.T) {
	battery, rotors, body, gyro := testDroneModels(t)
	d := newDroneFromModels(battery, rotors, body, gyro, testInitialFrame(), 5)
	d.Update(0.001)

	bu := d.BatteryUpdate()
	if bu.CellCount != battery.CellCount {
		t.Fatalf("BatteryUpdate.CellCount = %d, want %d", bu.CellCount, battery.CellCount)
	}
	if bu.SagVoltage <= 0 {
		t.Fatalf("expected a positive sag voltage, got %v", bu.SagVoltage)
	}

	gu := d.GyroUpdate()
	if gu.Rotation == ([4]float64{}) {
		t.Fatalf("expected a non-zero quaternion after the gyro has run")
	}
}
