package quadsim

import "fmt"

// Drone owns exactly two SimulationFrames (current, next) and the four
// component models. Per substep, update(dt) runs each component against
// current and writes into next in a fixed order (battery, rotor, rigid
// body, gyro), then swaps current and next. No other entity may observe
// next mid-update (SPEC_FULL.md §4.7, §9).
type Drone struct {
	current SimulationFrame
	next    SimulationFrame

	battery BatteryModel
	rotors  RotorModel
	body    DroneModel
	gyro    GyroModel

	components [4]frameComponent

	rng      *prng
	updating bool // reentrancy guard: a contract violation panics rather than racing
}

// newDroneFromModels constructs a Drone from its component models and an
// initial frame, with its own scoped PRNG seeded from seed (SPEC_FULL.md §9:
// no PRNG stream is ever shared between drones/simulators). NewDrone, in
// config.go, builds the models from a DroneConfig and calls this.
func newDroneFromModels(battery BatteryModel, rotors RotorModel, body DroneModel, gyro GyroModel, initial SimulationFrame, seed uint64) *Drone {
	d := &Drone{
		current: initial.Clone(),
		next:    initial.Clone(),
		battery: battery,
		rotors:  rotors,
		body:    body,
		gyro:    gyro,
		rng:     newPRNG(seed),
	}
	d.components = [4]frameComponent{
		&d.battery,
		rotorsComponent{Model: &d.rotors},
		&d.body,
		&d.gyro,
	}
	return d
}

// Update runs exactly one physics substep. It panics if called re-entrantly
// (e.g. from within a component's own update), which would otherwise mean a
// second update mutating next while the first is still being assembled.
func (d *Drone) Update(dt float64) {
	if d.updating {
		panic("quadsim: Drone.Update called re-entrantly")
	}
	d.updating = true
	for _, c := range d.components {
		c.setNewState(&d.current, &d.next, dt, d.rng)
	}
	d.current, d.next = d.next, d.current
	d.updating = false
}

// SetMotorPWMs writes into current.Rotors[*].PWM only; it is the sole
// mutation path available to external controllers/replayers.
func (d *Drone) SetMotorPWMs(pwms MotorPWMs) {
	for i := range d.current.Rotors {
		d.current.Rotors[i].PWM = pwms[i]
	}
}

// Reset replaces both current and next with clones of frame, for the
// Replayer's reset contract (SPEC_FULL.md §4.9).
func (d *Drone) Reset(frame SimulationFrame) {
	d.current = frame.Clone()
	d.next = frame.Clone()
}

// Current returns a copy of the drone's current (externally visible) frame.
func (d *Drone) Current() SimulationFrame {
	return d.current
}

// BatteryUpdate returns the controller-facing battery readout from current.
func (d *Drone) BatteryUpdate() BatteryUpdate {
	b := d.current.Battery
	return BatteryUpdate{
		CellCount:   d.battery.CellCount,
		SagVoltage:  b.SagVoltage,
		OpenVoltage: b.OpenVoltage,
		AmperageA:   b.AmperageA,
		MAhDrawn:    b.MAhDrawn,
	}
}

// GyroUpdate returns the controller-facing IMU readout from current.
func (d *Drone) GyroUpdate() GyroUpdate {
	g := d.current.Gyro
	return GyroUpdate{
		Rotation:        [4]float64{g.Rotation.X, g.Rotation.Y, g.Rotation.Z, g.Rotation.W},
		LinearAccel:     g.AccelerationBody.Array(),
		AngularVelocity: g.AngularVelocityBody.Array(),
	}
}

// MotorPWMs returns the current commanded PWMs, in rotor index order.
func (d *Drone) MotorPWMs() MotorPWMs {
	var p MotorPWMs
	for i, r := range d.current.Rotors {
		p[i] = r.PWM
	}
	return p
}

// Position returns the drone's current world-frame position.
func (d *Drone) Position() Vec3 {
	return d.current.Drone.Position
}

func (d *Drone) String() string {
	p := d.current.Drone.Position
	return fmt.Sprintf("drone@(%.3f,%.3f,%.3f)", p.X, p.Y, p.Z)
}
