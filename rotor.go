package quadsim

import "math"

// RotorModel is shared across the four rotors: the physical motor/propeller
// parameters are identical per airframe, only state (RotorState) differs
// per rotor.
type RotorModel struct {
	MaxRPM            float64
	KV                float64 // motor velocity constant, rpm per volt at no load
	Resistance        float64 // armature resistance, ohms
	IdleCurrentA      float64
	ThrustCoeffs      [3]float64 // c0, c1, c2 of prop_F(vel_up) = c0*v^2 + c1*v + c2
	TorqueCoefficient float64
	ACoefficient      float64 // the `a` term of the quadratic thrust-vs-rpm map
	Inertia           float64
}

// motorTorque is the standard brushed-motor back-EMF model: base current
// from (V - backEMF)/R, idle current subtracted with sign preserved, scaled
// to torque via the 8.3/kv torque constant (see SPEC_FULL.md §4.4 step 7).
func (m *RotorModel) motorTorque(armatureVolts, rpm float64) float64 {
	backEMF := rpm / m.KV
	baseCurrent := (armatureVolts - backEMF) / m.Resistance
	var armatureCurrent float64
	if baseCurrent > 0 {
		armatureCurrent = math.Max(0, baseCurrent-m.IdleCurrentA)
	} else {
		armatureCurrent = math.Min(0, baseCurrent+m.IdleCurrentA)
	}
	torqueConstant := 8.3 / m.KV
	return armatureCurrent * torqueConstant
}

// propThrust is the quadratic propeller map of SPEC_FULL.md §4.4 step 9.
func (m *RotorModel) propThrust(velUp, rpm float64) float64 {
	propF := m.ThrustCoeffs[0]*velUp*velUp + m.ThrustCoeffs[1]*velUp + m.ThrustCoeffs[2]
	b := (propF - m.ACoefficient*m.MaxRPM*m.MaxRPM) / m.MaxRPM
	thrust := b*rpm + m.ACoefficient*rpm*rpm
	return math.Max(thrust, 0)
}

// rotorsComponent adapts RotorModel to frameComponent: it runs the rotor
// update once per rotor, in index order, reading current.Rotors[i] and
// writing next.Rotors[i].
type rotorsComponent struct {
	Model *RotorModel
}

// setNewState implements frameComponent. See SPEC_FULL.md §4.4. It reads
// next.Battery, which the battery component has already written this
// substep (battery runs before rotor in the Drone's fixed update order).
//
// The update order here is the one flagged in SPEC_FULL.md §9 item 2:
// prop_torque uses the *old* effective thrust, new rpm is derived from that,
// then motor_torque is recomputed from the *old* rpm with the *new* voltage,
// and current from the *new* torque. This looks circular; it is reproduced
// exactly because the logged trajectories this simulator is meant to match
// were generated against it.
func (c rotorsComponent) setNewState(current, next *SimulationFrame, dt float64, rng *prng) {
	m := c.Model
	velUp := math.Max(0, current.Drone.LinearVelocity.Dot(toVec3(current.Drone.Rotation.Col(0))))

	for i, rotor := range current.Rotors {
		filtered := rotor.PWMFilter.Update(rotor.PWM, dt, 120)
		armatureVolt := filtered.Output * next.Battery.SagVoltage

		propTorque := rotor.EffectiveThrust * m.TorqueCoefficient
		netTorque := rotor.MotorTorque - propTorque
		domega := netTorque / m.Inertia
		drpm := domega * dt * 60.0 / (2.0 * math.Pi)
		maxDRPM := math.Abs(armatureVolt*m.KV - rotor.RPM)
		rpm := rotor.RPM + clamp(drpm, -maxDRPM, maxDRPM)

		motorTorque := m.motorTorque(armatureVolt, rotor.RPM)
		newCurrent := motorTorque * m.KV / 8.3
		effectiveThrust := m.propThrust(velUp, rpm)

		next.Rotors[i] = RotorState{
			RPM:             rpm,
			CurrentA:        newCurrent,
			EffectiveThrust: effectiveThrust,
			MotorTorque:     motorTorque,
			PWM:             rotor.PWM,
			SpinDirection:   rotor.SpinDirection,
			MotorPosition:   rotor.MotorPosition,
			PWMFilter:       filtered,
		}
	}
}
