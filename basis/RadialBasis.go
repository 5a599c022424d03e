// Package basis implements feature maps from state-action pairs to
// fixed-length vectors for linear value-function approximation.
package basis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RadialBasis maps a (state, action) pair to a fixed-length feature
// vector. The vector is block sparse per action: the block of the
// given action holds a bias unit followed by the responses of
// numBasis Gaussian radial basis functions of the state, and every
// other block is zero. Centers are linearly spaced between the state
// bounds, so the map is a deterministic pure function of its inputs.
type RadialBasis struct {
	numBasis   int
	numActions int
	features   int

	centers *mat.Dense
	width   float64
}

// NewRadialBasis returns a new RadialBasis of numBasis functions per
// action for states bounded elementwise by low and high. The width
// argument is the common bandwidth of the Gaussian responses.
func NewRadialBasis(numBasis, numActions int, low, high mat.Vector,
	width float64) (*RadialBasis, error) {
	if numBasis < 1 || numActions < 1 {
		return nil, fmt.Errorf("radialbasis: need at least one basis "+
			"function and action \n\thave(%v, %v)", numBasis, numActions)
	}
	if low.Len() != high.Len() {
		return nil, fmt.Errorf("radialbasis: bound lengths differ "+
			"\n\thave(%v, %v)", low.Len(), high.Len())
	}
	if width <= 0 {
		return nil, fmt.Errorf("radialbasis: width must be positive "+
			"\n\thave(%v)", width)
	}

	features := low.Len()
	centers := mat.NewDense(numBasis, features, nil)
	for b := 0; b < numBasis; b++ {
		fraction := 0.5
		if numBasis > 1 {
			fraction = float64(b) / float64(numBasis-1)
		}
		for d := 0; d < features; d++ {
			centers.Set(b, d,
				low.AtVec(d)+fraction*(high.AtVec(d)-low.AtVec(d)))
		}
	}

	return &RadialBasis{
		numBasis:   numBasis,
		numActions: numActions,
		features:   features,
		centers:    centers,
		width:      width,
	}, nil
}

// Size returns the length of feature vectors produced by the basis
func (r *RadialBasis) Size() int {
	return r.numActions * (r.numBasis + 1)
}

// NumActions returns the number of actions the basis encodes
func (r *RadialBasis) NumActions() int {
	return r.numActions
}

// Features computes the feature vector of a state-action pair.
func (r *RadialBasis) Features(state mat.Vector, action int) (*mat.VecDense,
	error) {
	if state.Len() != r.features {
		return nil, fmt.Errorf("features: invalid state size \n\twant(%v)"+
			"\n\thave(%v)", r.features, state.Len())
	}
	if action < 0 || action >= r.numActions {
		return nil, fmt.Errorf("features: invalid action \n\twant[0, %v)"+
			"\n\thave(%v)", r.numActions, action)
	}

	features := mat.NewVecDense(r.Size(), nil)
	block := action * (r.numBasis + 1)
	features.SetVec(block, 1.0)
	for b := 0; b < r.numBasis; b++ {
		dist2 := 0.0
		for d := 0; d < r.features; d++ {
			diff := state.AtVec(d) - r.centers.At(b, d)
			dist2 += diff * diff
		}
		features.SetVec(block+1+b,
			math.Exp(-dist2/(2.0*r.width*r.width)))
	}

	return features, nil
}
