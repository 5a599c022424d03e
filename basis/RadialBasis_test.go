package basis

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// TestRadialBasisSize ensures the feature length is one bias unit
// plus one response per basis function, replicated per action.
func TestRadialBasisSize(t *testing.T) {
	low := mat.NewVecDense(2, []float64{-1, -1})
	high := mat.NewVecDense(2, []float64{1, 1})

	b, err := NewRadialBasis(3, 4, low, high, 1.0)
	if err != nil {
		t.Fatalf("could not create basis: %v", err)
	}
	if b.Size() != 4*(3+1) {
		t.Errorf("wrong size \n\twant(%v)\n\thave(%v)", 16, b.Size())
	}
}

// TestRadialBasisBlockSparsity ensures only the block of the given
// action is populated and that the block starts with a bias unit.
func TestRadialBasisBlockSparsity(t *testing.T) {
	low := mat.NewVecDense(2, []float64{-1, -1})
	high := mat.NewVecDense(2, []float64{1, 1})
	b, err := NewRadialBasis(3, 2, low, high, 1.0)
	if err != nil {
		t.Fatalf("could not create basis: %v", err)
	}

	state := mat.NewVecDense(2, []float64{0.25, -0.5})
	for action := 0; action < 2; action++ {
		features, err := b.Features(state, action)
		if err != nil {
			t.Fatalf("could not compute features: %v", err)
		}

		block := action * 4
		if features.AtVec(block) != 1.0 {
			t.Errorf("action %v: bias unit is %v", action,
				features.AtVec(block))
		}
		for j := 1; j < 4; j++ {
			if v := features.AtVec(block + j); v <= 0 || v > 1 {
				t.Errorf("action %v: response %v out of (0, 1] "+
					"\n\thave(%v)", action, j, v)
			}
		}

		otherBlock := (1 - action) * 4
		for j := 0; j < 4; j++ {
			if features.AtVec(otherBlock+j) != 0 {
				t.Errorf("action %v: other action's block is populated",
					action)
			}
		}
	}
}

// TestRadialBasisDeterministic ensures the map is a pure function of
// its inputs.
func TestRadialBasisDeterministic(t *testing.T) {
	low := mat.NewVecDense(1, []float64{0})
	high := mat.NewVecDense(1, []float64{1})
	b, err := NewRadialBasis(5, 2, low, high, 0.5)
	if err != nil {
		t.Fatalf("could not create basis: %v", err)
	}

	state := mat.NewVecDense(1, []float64{0.7})
	first, err := b.Features(state, 1)
	if err != nil {
		t.Fatalf("could not compute features: %v", err)
	}
	second, err := b.Features(state, 1)
	if err != nil {
		t.Fatalf("could not compute features: %v", err)
	}

	for i := 0; i < first.Len(); i++ {
		if first.AtVec(i) != second.AtVec(i) {
			t.Fatalf("feature %v differs between calls", i)
		}
	}
}

// TestRadialBasisCenterResponse ensures a state sitting exactly on a
// center produces the maximal response of 1 for that basis function.
func TestRadialBasisCenterResponse(t *testing.T) {
	low := mat.NewVecDense(1, []float64{0})
	high := mat.NewVecDense(1, []float64{1})
	b, err := NewRadialBasis(3, 1, low, high, 1.0)
	if err != nil {
		t.Fatalf("could not create basis: %v", err)
	}

	// Centers are linearly spaced at 0, 0.5, and 1
	state := mat.NewVecDense(1, []float64{0.5})
	features, err := b.Features(state, 0)
	if err != nil {
		t.Fatalf("could not compute features: %v", err)
	}
	if math.Abs(features.AtVec(2)-1.0) > 1e-12 {
		t.Errorf("response at center is %v", features.AtVec(2))
	}
}
