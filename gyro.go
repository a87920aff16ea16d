package quadsim

import "quadsim/dynamics"

// defaultGyroCutoffHz is the IMU's per-axis low-pass cutoff when a
// configuration doesn't override it (SPEC_FULL.md §4.6).
const defaultGyroCutoffHz = 300.0

// GyroModel's only tunable is the per-axis low-pass cutoff; CutoffHz of 0
// means defaultGyroCutoffHz (the zero value is useful for literal composite
// construction in tests and Non-config code paths).
type GyroModel struct {
	CutoffHz float64
}

func (g *GyroModel) cutoff() float64 {
	if g.CutoffHz <= 0 {
		return defaultGyroCutoffHz
	}
	return g.CutoffHz
}

// setNewState implements frameComponent. It reads next.Drone, which the
// rigid body has already written this substep, and current.Gyro.LPFs for
// the filter state carried from the previous substep.
func (g *GyroModel) setNewState(current, next *SimulationFrame, dt float64, rng *prng) {
	rotation := next.Drone.Rotation
	worldAngVel := next.Drone.AngularVelocity
	cutoff := g.cutoff()

	var filtered [3]LowPassFilter
	filtered[0] = current.Gyro.LPFs[0].Update(worldAngVel.X, dt, cutoff)
	filtered[1] = current.Gyro.LPFs[1].Update(worldAngVel.Y, dt, cutoff)
	filtered[2] = current.Gyro.LPFs[2].Update(worldAngVel.Z, dt, cutoff)

	filteredWorld := Vec3{filtered[0].Output, filtered[1].Output, filtered[2].Output}
	angularVelocityBody := toVec3(rotation.Transpose().MulVec(filteredWorld.toDyn()))
	accelerationBody := toVec3(rotation.Transpose().MulVec(next.Drone.LinearAcceleration.toDyn()))

	next.Gyro = GyroState{
		Rotation:            dynamics.FromRotationMatrix(rotation),
		AccelerationBody:    accelerationBody,
		AngularVelocityBody: angularVelocityBody,
		LPFs:                filtered,
	}
}
