package lspi

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/qvalue/qvalue/basis"
	"github.com/qvalue/qvalue/timestep"
)

func testBasis(t *testing.T) *basis.RadialBasis {
	t.Helper()

	low := mat.NewVecDense(2, []float64{-1, -1})
	high := mat.NewVecDense(2, []float64{1, 1})
	b, err := basis.NewRadialBasis(3, 2, low, high, 1.0)
	if err != nil {
		t.Fatalf("could not create basis: %v", err)
	}
	return b
}

func nonTerminalBatch(size int) timestep.Batch {
	rng := rand.New(rand.NewSource(1223334444))

	batch := timestep.NewBatch(size, 2)
	for i := 0; i < size; i++ {
		for d := 0; d < 2; d++ {
			batch.States[i*2+d] = rng.Float64()*2 - 1
			batch.NextStates[i*2+d] = rng.Float64()*2 - 1
		}
		batch.Actions[i] = rng.Intn(2)
		batch.Rewards[i] = rng.Float64()
		batch.Dones[i] = false
	}
	return batch
}

// TestNormalEquationsSymmetry checks that with no discounting the
// accumulated system matrix is symmetric up to the diagonal
// regularizer: every rank-one term is then an outer product of a
// feature vector with itself.
func TestNormalEquationsSymmetry(t *testing.T) {
	agent, err := New(testBasis(t), 0.0, 10, 4242)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	A, _, err := agent.NormalEquations(nonTerminalBatch(10))
	if err != nil {
		t.Fatalf("could not build normal equations: %v", err)
	}

	n, _ := A.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if math.Abs(A.At(i, j)-A.At(j, i)) > 1e-10 {
				t.Errorf("A(%v, %v) and A(%v, %v) differ \n\thave(%v, %v)",
					i, j, j, i, A.At(i, j), A.At(j, i))
			}
		}
	}
}

// TestNormalEquationsRegularizer checks the diagonal seeding: an
// empty batch leaves A at 0.1 times the identity and b at zero.
func TestNormalEquationsRegularizer(t *testing.T) {
	agent, err := New(testBasis(t), 0.9, 10, 4242)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	A, b, err := agent.NormalEquations(timestep.NewBatch(0, 2))
	if err != nil {
		t.Fatalf("could not build normal equations: %v", err)
	}

	n, _ := A.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = 0.1
			}
			if A.At(i, j) != want {
				t.Errorf("A(%v, %v) \n\twant(%v)\n\thave(%v)", i, j, want,
					A.At(i, j))
			}
		}
		if b.AtVec(i) != 0 {
			t.Errorf("b(%v) is %v without data", i, b.AtVec(i))
		}
	}
}

// TestLearnBatchReplacesWeights ensures a solve replaces the weight
// vector wholesale and that repeated solves on the same batch keep
// the weights finite.
func TestLearnBatchReplacesWeights(t *testing.T) {
	agent, err := New(testBasis(t), 0.9, 1, 4242)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	initial := make([]float64, agent.Weights().Len())
	for i := range initial {
		initial[i] = agent.Weights().AtVec(i)
	}

	batch := nonTerminalBatch(20)
	if err := agent.LearnBatch(batch); err != nil {
		t.Fatalf("could not learn from batch: %v", err)
	}

	moved := false
	for i := 0; i < agent.Weights().Len(); i++ {
		if agent.Weights().AtVec(i) != initial[i] {
			moved = true
			break
		}
	}
	if !moved {
		t.Fatal("weights did not change after a solve")
	}

	for i := 0; i < 3; i++ {
		if err := agent.LearnBatch(batch); err != nil {
			t.Fatalf("could not learn from batch: %v", err)
		}
		for j := 0; j < agent.Weights().Len(); j++ {
			w := agent.Weights().AtVec(j)
			if math.IsNaN(w) || math.IsInf(w, 0) {
				t.Fatalf("weight %v is not finite after solve %v", j, i)
			}
		}
	}
}

// TestNewDrawsWeights ensures fresh agents start from uniformly drawn
// weights in (-1, 1], reproducibly per seed.
func TestNewDrawsWeights(t *testing.T) {
	first, err := New(testBasis(t), 0.9, 10, 4242)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	second, err := New(testBasis(t), 0.9, 10, 4242)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	nonzero := false
	for i := 0; i < first.Weights().Len(); i++ {
		w := first.Weights().AtVec(i)
		if w <= -1 || w > 1 {
			t.Errorf("weight %v outside (-1, 1] \n\thave(%v)", i, w)
		}
		if w != 0 {
			nonzero = true
		}
		if w != second.Weights().AtVec(i) {
			t.Errorf("weight %v differs between same-seed agents "+
				"\n\thave(%v, %v)", i, w, second.Weights().AtVec(i))
		}
	}
	if !nonzero {
		t.Error("every initial weight is zero")
	}
}

// TestSelectActionGreedy ensures action selection maximizes the
// linear value under the current weights.
func TestSelectActionGreedy(t *testing.T) {
	b := testBasis(t)
	agent, err := New(b, 0.9, 10, 4242)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	// Weight only action 1's bias unit, making action 1 dominant
	weights := mat.NewVecDense(b.Size(), nil)
	weights.SetVec(4, 10.0)
	agent.weights = weights

	state := mat.NewVecDense(2, []float64{0.1, 0.2})
	step := timestep.New(timestep.Mid, 0.0, state, 3)
	action := agent.SelectAction(step)
	if action.AtVec(0) != 1.0 {
		t.Errorf("wrong greedy action \n\twant(1)\n\thave(%v)",
			action.AtVec(0))
	}
}
