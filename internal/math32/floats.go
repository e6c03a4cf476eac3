// Package math32 provides float32 vector kernels for the matrix backend.
// This is an internal package - external users should use the matrix package.
package math32

import "math"

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}

	return ret
}

// Norm calculates the L2 norm of a vector.
func Norm(a []float32) float32 {
	return Sqrt(Dot(a, a))
}

// Sqrt returns the square root of x.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// ScaleInPlace multiplies all elements of a by scalar.
//
// This is primarily used by row normalization.
func ScaleInPlace(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}

// Zero sets all elements of a to zero.
func Zero(a []float32) {
	for i := range a {
		a[i] = 0
	}
}
