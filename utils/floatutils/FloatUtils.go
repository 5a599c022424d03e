// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// MaxSlice gets the maximum value and indices of the maximum values in
// a slice of float64.
func MaxSlice(values []float64) (max float64, indices []int) {
	max, indices = values[0], []int{0}

	for i, value := range values {
		if value > max {
			max = value
			indices = []int{i}
		} else if value == max && i != 0 {
			indices = append(indices, i)
		}
	}
	return
}

// ArgMax returns the index of the first maximum value in values.
func ArgMax(values []float64) int {
	_, indices := MaxSlice(values)
	return indices[0]
}

// Mean computes the arithmetic mean of values.
func Mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Sign returns -1.0, 0.0, or 1.0 depending on the sign of x.
func Sign(x float64) float64 {
	if x > 0 {
		return 1.0
	} else if x < 0 {
		return -1.0
	}
	return 0.0
}

// Huber computes the smooth-L1 (Huber) loss of a residual with unit
// transition point.
func Huber(d float64) float64 {
	if math.Abs(d) < 1.0 {
		return 0.5 * d * d
	}
	return math.Abs(d) - 0.5
}

// HuberGrad computes the derivative of the smooth-L1 (Huber) loss with
// respect to its residual.
func HuberGrad(d float64) float64 {
	if math.Abs(d) < 1.0 {
		return d
	}
	return Sign(d)
}
