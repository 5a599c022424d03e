package network

import (
	"fmt"
	"math"

	"github.com/qvalue/qvalue/utils/floatutils"
)

// ClipGrads clamps each gradient of net's learnables into [min, max]
// in place. It should be called after the backward pass and before the
// solver updates the weights. ClipGrads returns the largest absolute
// gradient component after clipping.
func ClipGrads(net NeuralNet, min, max float64) (float64, error) {
	if min > max {
		return 0, fmt.Errorf("clipgrads: min > max \n\thave(%v > %v)", min,
			max)
	}

	var bound float64
	for i, learnable := range net.Learnables() {
		grad, err := learnable.Grad()
		if err != nil {
			return 0, fmt.Errorf("clipgrads: no gradient for learnable "+
				"%v: %v", i, err)
		}
		data, ok := grad.Data().([]float64)
		if !ok {
			return 0, fmt.Errorf("clipgrads: gradient of learnable %v is "+
				"not []float64", i)
		}
		for j := range data {
			data[j] = floatutils.Clip(data[j], min, max)
			if abs := math.Abs(data[j]); abs > bound {
				bound = abs
			}
		}
	}
	return bound, nil
}
