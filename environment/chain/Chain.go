// Package chain implements a small deterministic chain-walk
// environment. The agent starts in the middle of a chain of states
// and moves left or right; reaching the right end pays a reward of
// +1 and ends the episode, reaching the left end ends the episode
// with no reward. Observations are one-hot encodings of the current
// state. The environment is intended for examples and end-to-end
// tests rather than serious benchmarking.
package chain

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/qvalue/qvalue/environment"
	"github.com/qvalue/qvalue/timestep"
	"github.com/qvalue/qvalue/utils/matutils"
)

const (
	// Actions
	left int = iota
	right
)

// Chain implements the chain-walk environment
type Chain struct {
	numStates int
	stepLimit int

	state            int
	stepsThisEpisode int
	lastStep         timestep.TimeStep
}

// New returns a new chain of numStates states. Episodes end when
// either end of the chain is reached or after stepLimit steps.
func New(numStates, stepLimit int) (*Chain, timestep.TimeStep, error) {
	if numStates < 3 {
		return nil, timestep.TimeStep{}, fmt.Errorf("chain: need at least "+
			"3 states \n\thave(%v)", numStates)
	}
	if stepLimit < 1 {
		return nil, timestep.TimeStep{}, fmt.Errorf("chain: step limit "+
			"must be positive \n\thave(%v)", stepLimit)
	}

	c := &Chain{numStates: numStates, stepLimit: stepLimit}
	first := c.Reset()

	return c, first, nil
}

// Reset resets the environment to the middle of the chain and returns
// the starting timestep.
func (c *Chain) Reset() timestep.TimeStep {
	c.state = c.numStates / 2
	c.stepsThisEpisode = 0
	c.lastStep = timestep.New(timestep.First, 0.0, c.observe(), 0)

	return c.lastStep
}

// Step takes one environmental step given an action and returns the
// next timestep and whether the episode ended on that step.
func (c *Chain) Step(action mat.Vector) (timestep.TimeStep, bool) {
	a := int(action.AtVec(0))
	switch a {
	case left:
		c.state--
	case right:
		c.state++
	default:
		panic(fmt.Sprintf("step: invalid action %v", a))
	}
	c.stepsThisEpisode++

	reward := 0.0
	stepType := timestep.Mid
	if c.state == c.numStates-1 {
		reward = 1.0
		stepType = timestep.Last
	} else if c.state == 0 || c.stepsThisEpisode >= c.stepLimit {
		stepType = timestep.Last
	}

	c.lastStep = timestep.New(stepType, reward, c.observe(),
		c.lastStep.Number+1)

	return c.lastStep, c.lastStep.Last()
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Chain) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(c.numStates, nil)
	low := mat.NewVecDense(c.numStates, nil)
	high := matutils.VecOnes(c.numStates)

	return environment.NewSpec(shape, environment.Observation, low, high,
		environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (c *Chain) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{float64(left)})
	high := mat.NewVecDense(1, []float64{float64(right)})

	return environment.NewSpec(shape, environment.Action, low, high,
		environment.Discrete)
}

// String implements the fmt.Stringer interface
func (c *Chain) String() string {
	return fmt.Sprintf("Chain(%v states, state %v)", c.numStates, c.state)
}

// observe returns the one-hot observation of the current state
func (c *Chain) observe() mat.Vector {
	obs := mat.NewVecDense(c.numStates, nil)
	obs.SetVec(c.state, 1.0)

	return obs
}
