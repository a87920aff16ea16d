// Package dynamics holds the rotation and orientation math shared by the
// rigid-body and gyro models: SO(3) matrices, the iterative re-orthonormalisation
// used after every angular-velocity integration step, and quaternion readout.
package dynamics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix3 is a row-major 3x3 matrix, used exclusively to represent elements
// of SO(3) (drone/body orientation) and the body inertia tensor.
type Matrix3 [9]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Matrix3 {
	return Matrix3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// At returns the element at row i, column j (0-indexed).
func (m Matrix3) At(i, j int) float64 {
	return m[i*3+j]
}

// Col returns column j as a Vec3.
func (m Matrix3) Col(j int) Vec3 {
	return Vec3{m.At(0, j), m.At(1, j), m.At(2, j)}
}

// Transpose returns the transpose of m.
func (m Matrix3) Transpose() Matrix3 {
	var t Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[j*3+i] = m[i*3+j]
		}
	}
	return t
}

// MulVec returns m*v.
func (m Matrix3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

// Mul returns m*o.
func (m Matrix3) Mul(o Matrix3) Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += m.At(i, k) * o.At(k, j)
			}
			r[i*3+j] = s
		}
	}
	return r
}

// Vec3 mirrors quadsim.Vec3 so this package has no import cycle back to the
// root package; quadsim.Vec3 values convert to/from dynamics.Vec3 trivially
// since both are plain {X, Y, Z float64} structs.
type Vec3 struct {
	X, Y, Z float64
}

// CrossMatrix returns the skew-symmetric cross-product matrix [v]x such that
// [v]x * w == v.Cross(w).
func CrossMatrix(v Vec3) Matrix3 {
	return Matrix3{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	}
}

// toDense converts m to a gonum dense matrix for the linear-algebra ops
// (inverse) that Matrix3 does not implement directly.
func (m Matrix3) toDense() *mat.Dense {
	return mat.NewDense(3, 3, m[:])
}

func fromDense(d mat.Matrix) Matrix3 {
	var m Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i*3+j] = d.At(i, j)
		}
	}
	return m
}

// Orthonormalize projects a matrix that has drifted off SO(3) (typically
// (I + [w*dt]x) * R after one angular-velocity integration step) back onto
// the nearest rotation matrix, via the Newton fixed-point iteration for the
// polar decomposition: X_{k+1} = 0.5 * (X_k + inverse(transpose(X_k))).
// It stops once successive iterates differ by less than tol in Frobenius
// norm, or returns an error after maxIter iterations without convergence.
func Orthonormalize(candidate Matrix3, tol float64, maxIter int) (Matrix3, error) {
	x := candidate
	for iter := 0; iter < maxIter; iter++ {
		var inv mat.Dense
		if err := inv.Inverse(x.Transpose().toDense()); err != nil {
			return Matrix3{}, errors.New("dynamics: matrix not invertible during orthonormalisation")
		}
		next := Matrix3{}
		nd := fromDense(&inv)
		for i := range x {
			next[i] = 0.5 * (x[i] + nd[i])
		}
		if frobeniusDelta(x, next) < tol {
			return next, nil
		}
		x = next
	}
	return Matrix3{}, errors.New("dynamics: orthonormalisation failed to converge within maxIter")
}

func frobeniusDelta(a, b Matrix3) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Quaternion is a unit quaternion (w, x, y, z) used for the gyro's reported
// orientation; the physics itself integrates in matrix form (Matrix3).
type Quaternion struct {
	W, X, Y, Z float64
}

// FromRotationMatrix converts a (near-)orthonormal rotation matrix to a unit
// quaternion using Shepperd's method, choosing the numerically largest
// denominator to avoid dividing by a near-zero term.
func FromRotationMatrix(m Matrix3) Quaternion {
	trace := m.At(0, 0) + m.At(1, 1) + m.At(2, 2)
	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		q.W = 0.25 / s
		q.X = (m.At(2, 1) - m.At(1, 2)) * s
		q.Y = (m.At(0, 2) - m.At(2, 0)) * s
		q.Z = (m.At(1, 0) - m.At(0, 1)) * s
	case m.At(0, 0) > m.At(1, 1) && m.At(0, 0) > m.At(2, 2):
		s := 2.0 * math.Sqrt(1.0+m.At(0, 0)-m.At(1, 1)-m.At(2, 2))
		q.W = (m.At(2, 1) - m.At(1, 2)) / s
		q.X = 0.25 * s
		q.Y = (m.At(0, 1) + m.At(1, 0)) / s
		q.Z = (m.At(0, 2) + m.At(2, 0)) / s
	case m.At(1, 1) > m.At(2, 2):
		s := 2.0 * math.Sqrt(1.0+m.At(1, 1)-m.At(0, 0)-m.At(2, 2))
		q.W = (m.At(0, 2) - m.At(2, 0)) / s
		q.X = (m.At(0, 1) + m.At(1, 0)) / s
		q.Y = 0.25 * s
		q.Z = (m.At(1, 2) + m.At(2, 1)) / s
	default:
		s := 2.0 * math.Sqrt(1.0+m.At(2, 2)-m.At(0, 0)-m.At(1, 1))
		q.W = (m.At(1, 0) - m.At(0, 1)) / s
		q.X = (m.At(0, 2) + m.At(2, 0)) / s
		q.Y = (m.At(1, 2) + m.At(2, 1)) / s
		q.Z = 0.25 * s
	}
	return q
}

// Det returns the determinant of m, used by tests asserting m stays in SO(3).
func (m Matrix3) Det() float64 {
	return m.At(0, 0)*(m.At(1, 1)*m.At(2, 2)-m.At(1, 2)*m.At(2, 1)) -
		m.At(0, 1)*(m.At(1, 0)*m.At(2, 2)-m.At(1, 2)*m.At(2, 0)) +
		m.At(0, 2)*(m.At(1, 0)*m.At(2, 1)-m.At(1, 1)*m.At(2, 0))
}
