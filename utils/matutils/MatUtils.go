// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"gonum.org/v1/gonum/mat"
)

// VecOnes returns a vector of 1.0's
func VecOnes(length int) *mat.VecDense {
	oneSlice := make([]float64, length)
	for i := 0; i < length; i++ {
		oneSlice[i] = 1.0
	}
	return mat.NewVecDense(length, oneSlice)
}
