package quadsim

import (
	"math"

	"quadsim/dynamics"
)

const (
	gravity           = 9.81
	airDensity        = 1.225 // kg/m^3
	maxEffectSpeed    = 18.0  // m/s, speed at which prop-wash/reverse-thrust effects saturate
	orthonormTol      = 1e-10
	orthonormMaxIters = 100
)

// DroneModel is the rigid-body airframe: mass, inertia tensor, and quadratic
// frame-drag parameters. State (position, orientation, velocities) lives in
// DroneFrameState.
type DroneModel struct {
	FrameDragArea     Vec3 // projected drag area per axis, m^2
	FrameDragConstant float64
	Mass              float64
	InvTensor         dynamics.Matrix3 // inverse body inertia tensor
}

// setNewState implements frameComponent. It is permitted to read
// next.Rotors because the rotor component runs before the rigid body in the
// Drone's fixed update order (see SPEC_FULL.md §4.5, §4.7).
func (m *DroneModel) setNewState(current, next *SimulationFrame, dt float64, rng *prng) {
	rotation := current.Drone.Rotation

	sumForce := Vec3{0, -gravity * m.Mass, 0}
	sumTorque := Vec3{}

	var linVelDir Vec3
	var speed float64
	if current.Drone.LinearVelocity.Norm() > 0 {
		linVelDir = current.Drone.LinearVelocity.Unit()
		speed = current.Drone.LinearVelocity.Norm()
	}

	dragDir := linVelDir.Scale(speed * speed * 0.5 * airDensity * m.FrameDragConstant)
	sumForce = sumForce.Sub(m.dragLinear(dragDir, linVelDir, rotation))

	speedFactor := math.Min(speed/maxEffectSpeed, 1)

	for _, rotor := range next.Rotors {
		sumTorque = sumTorque.Add(toVec3(rotation.Col(1)).Scale(rotor.MotorTorque * rotor.SpinDirection))

		thrustDir := toVec3(rotation.Col(0)).Scale(rotor.EffectiveThrust).Unit()
		reverseThrust := -linVelDir.Dot(thrustDir)
		reverseThrust = math.Max(0, reverseThrust-0.5) * 2
		reverseThrust *= reverseThrust
		propWash := 1.0 - speedFactor*reverseThrust*0.95

		actualThrust := toVec3(rotation.MulVec(Vec3{0, rotor.EffectiveThrust * propWash, 0}.toDyn()))

		rad := toVec3(rotation.MulVec(rotor.MotorPosition.toDyn()))
		sumTorque = sumTorque.Add(rad.Cross(actualThrust))
		sumForce = sumForce.Add(actualThrust)
	}

	acceleration := sumForce.Scale(1 / m.Mass)
	position := current.Drone.Position.
		Add(current.Drone.LinearVelocity.Scale(dt)).
		Add(acceleration.Scale(dt * dt / 2))
	linearVelocity := current.Drone.LinearVelocity.Add(acceleration.Scale(dt))

	angularAcc := toVec3(rotation.MulVec(m.InvTensor.MulVec(rotation.Transpose().MulVec(sumTorque.toDyn()))))
	angularVelocity := current.Drone.AngularVelocity.Add(angularAcc.Scale(dt))

	drift := addMatrix3(dynamics.Identity3(), dynamics.CrossMatrix(angularVelocity.Scale(dt).toDyn()))
	candidate := drift.Mul(rotation)

	newRotation, err := dynamics.Orthonormalize(candidate, orthonormTol, orthonormMaxIters)
	if err != nil {
		// Contract violation: the integrator produced a matrix that cannot
		// be projected back onto SO(3) within tolerance. This should not
		// happen for any physically reasonable angular velocity; surface it
		// loudly rather than silently keeping a non-orthonormal rotation.
		panic("quadsim: rigid body rotation reconstruction failed: " + err.Error())
	}

	next.Drone = DroneFrameState{
		Position:           position,
		Rotation:           newRotation,
		LinearVelocity:     linearVelocity,
		AngularVelocity:    angularVelocity,
		LinearAcceleration: acceleration,
	}
}

func (m *DroneModel) dragLinear(dragDir, linVelDir Vec3, rotation dynamics.Matrix3) Vec3 {
	localDir := toVec3(rotation.Transpose().MulVec(linVelDir.toDyn()))
	areaLinear := m.FrameDragArea.Dot(localDir.Abs())
	return dragDir.Scale(areaLinear)
}

func addMatrix3(a, b dynamics.Matrix3) dynamics.Matrix3 {
	var r dynamics.Matrix3
	for i := range a {
		r[i] = a[i] + b[i]
	}
	return r
}
