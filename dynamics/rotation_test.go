package dynamics

import (
	"math"
	"testing"
)

func TestIdentityIsOrthonormal(t *testing.T) {
	m := Identity3()
	if math.Abs(m.Det()-1) > 1e-12 {
		t.Fatalf("expected det(I) = 1, got %f", m.Det())
	}
}

func TestOrthonormalizeConvergesOnDrift(t *testing.T) {
	// Simulate one small-angle integration step drifting off SO(3).
	w := Vec3{0.01, -0.02, 0.03}
	dt := 0.01
	drifted := Matrix3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}.Mul(Identity3())
	drifted = addMatrices(Identity3(), CrossMatrix(w.scale(dt)))

	r, err := Orthonormalize(drifted, 1e-10, 100)
	if err != nil {
		t.Fatalf("expected convergence, got %v", err)
	}
	if math.Abs(r.Det()-1) > 1e-6 {
		t.Fatalf("expected det(R) ~= 1, got %f", r.Det())
	}
	// R^T R should be close to identity.
	rtr := r.Transpose().Mul(r)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(rtr.At(i, j)-want) > 1e-6 {
				t.Fatalf("R^T R not close to I at (%d,%d): %f", i, j, rtr.At(i, j))
			}
		}
	}
}

func TestFromRotationMatrixIdentityIsUnitQuaternion(t *testing.T) {
	q := FromRotationMatrix(Identity3())
	if math.Abs(q.W-1) > 1e-9 || math.Abs(q.X) > 1e-9 || math.Abs(q.Y) > 1e-9 || math.Abs(q.Z) > 1e-9 {
		t.Fatalf("expected identity quaternion, got %+v", q)
	}
}

func addMatrices(a, b Matrix3) Matrix3 {
	var r Matrix3
	for i := range a {
		r[i] = a[i] + b[i]
	}
	return r
}

func (v Vec3) scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}
