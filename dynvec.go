package quadsim

import "quadsim/dynamics"

// toVec3 converts a dynamics.Vec3 (the type Matrix3 operations in the
// dynamics package return) to the root package's Vec3. Both are plain
// {X, Y, Z float64} structs, so this is a field-for-field conversion, not a
// copy-and-rebuild. It is a plain function, not a method, because Go forbids
// declaring methods on a type defined in another package (even through a
// local alias).
func toVec3(v dynamics.Vec3) Vec3 { return Vec3(v) }

// toDyn converts a Vec3 to the dynamics package's Vec3, for calls into
// Matrix3 methods.
func (v Vec3) toDyn() dynamics.Vec3 { return dynamics.Vec3(v) }
