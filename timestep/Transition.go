package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (s, a, r, done, s') tuple of the
// agent-environment interaction. Actions are discrete indices in
// [0, numActions).
type Transition struct {
	State     mat.Vector
	Action    int
	Reward    float64
	Done      bool
	NextState mat.Vector
}

// NewTransition packages two sequential timesteps and the action taken
// between them into a Transition. The reward and terminality of the
// transition are those of the later timestep.
func NewTransition(step TimeStep, action int, nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		Done:      nextStep.Last(),
		NextState: nextStep.Observation,
	}
}

// Batch holds a batch of transitions in flat, row-major storage. For
// sample i, the state occupies States[i*Features:(i+1)*Features] and
// similarly for NextStates.
type Batch struct {
	Size     int
	Features int

	States     []float64
	Actions    []int
	Rewards    []float64
	Dones      []bool
	NextStates []float64
}

// NewBatch returns an empty Batch with capacity for size transitions of
// features state features each.
func NewBatch(size, features int) Batch {
	return Batch{
		Size:       size,
		Features:   features,
		States:     make([]float64, size*features),
		Actions:    make([]int, size),
		Rewards:    make([]float64, size),
		Dones:      make([]bool, size),
		NextStates: make([]float64, size*features),
	}
}

// Set copies transition t into position i of the batch.
func (b Batch) Set(i int, t Transition) error {
	if t.State.Len() != b.Features || t.NextState.Len() != b.Features {
		return fmt.Errorf("set: invalid state size \n\twant(%v)\n\thave(%v)",
			b.Features, t.State.Len())
	}

	start := i * b.Features
	for j := 0; j < b.Features; j++ {
		b.States[start+j] = t.State.AtVec(j)
		b.NextStates[start+j] = t.NextState.AtVec(j)
	}
	b.Actions[i] = t.Action
	b.Rewards[i] = t.Reward
	b.Dones[i] = t.Done
	return nil
}

// State returns the state of sample i as a vector backed by the batch.
func (b Batch) State(i int) mat.Vector {
	return mat.NewVecDense(b.Features, b.States[i*b.Features:(i+1)*b.Features])
}

// NextState returns the next state of sample i as a vector backed by
// the batch.
func (b Batch) NextState(i int) mat.Vector {
	return mat.NewVecDense(b.Features,
		b.NextStates[i*b.Features:(i+1)*b.Features])
}

// Validate checks that the batch is internally consistent and holds
// states of the given feature size.
func (b Batch) Validate(features int) error {
	if b.Features != features {
		return fmt.Errorf("validate: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", features, b.Features)
	}
	if len(b.States) != b.Size*b.Features ||
		len(b.NextStates) != b.Size*b.Features {
		return fmt.Errorf("validate: state storage size inconsistent with "+
			"batch size %v", b.Size)
	}
	if len(b.Actions) != b.Size || len(b.Rewards) != b.Size ||
		len(b.Dones) != b.Size {
		return fmt.Errorf("validate: per-sample storage inconsistent with "+
			"batch size %v", b.Size)
	}
	return nil
}
