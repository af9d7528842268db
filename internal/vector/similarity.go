// Package vector provides similarity helpers for embedding vectors.
package vector

import (
	"gonum.org/v1/gonum/floats"
)

// InnerProduct returns the inner product of two vectors, or 0 when lengths differ or are empty.
func InnerProduct(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return floats.Dot(a, b)
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, 2)
}

// Cosine returns dot(a,b)/(|a||b|). It returns 0 when either norm is 0
// or the vectors have different lengths.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return InnerProduct(a, b) / (na * nb)
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
