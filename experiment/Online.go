// Package experiment implements the driver loops that connect agents
// to their data: an online loop stepping an agent through an
// environment, and an offline loop feeding a recorded dataset to an
// offline agent epoch by epoch.
package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/environment"
	"github.com/qvalue/qvalue/timestep"
)

// Online runs an agent online in an environment for a fixed budget of
// environmental steps. There is no cancellation: the loop runs to its
// budget or to the first error.
type Online struct {
	environment.Environment
	agent.Agent

	maxSteps     uint
	currentSteps uint
}

// NewOnline creates and returns a new online experiment running a for
// steps environmental steps in e.
func NewOnline(e environment.Environment, a agent.Agent,
	steps uint) *Online {
	return &Online{Environment: e, Agent: a, maxSteps: steps}
}

// RunEpisode runs a single episode of the experiment and returns
// whether the step budget has been reached.
func (o *Online) RunEpisode() (bool, error) {
	step := o.Environment.Reset()
	if err := o.Agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runepisode: %v", err)
	}

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		action := o.Agent.SelectAction(step)
		step, _ = o.Environment.Step(action)

		if err := o.Agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}
		if err := o.Agent.Step(); err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}
	}
	o.Agent.EndEpisode()

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the experiment to its step budget
func (o *Online) Run() error {
	ended := false
	for !ended {
		var err error
		if ended, err = o.RunEpisode(); err != nil {
			return err
		}
	}
	return nil
}

// Steps returns the number of environmental steps taken so far
func (o *Online) Steps() uint {
	return o.currentSteps
}

// Collect runs the given behaviour policy in e for steps
// environmental steps and records every transition. The recorder is
// any transition sink, typically a dataset being built for offline
// training.
func Collect(e environment.Environment, steps uint,
	record func(timestep.Transition) error,
	selectAction func(timestep.TimeStep) int) error {
	step := e.Reset()

	for i := uint(0); i < steps; i++ {
		action := selectAction(step)
		next, done := e.Step(actionVec(action))

		t := timestep.NewTransition(step, action, next)
		if err := record(t); err != nil {
			return fmt.Errorf("collect: %v", err)
		}

		if done {
			step = e.Reset()
		} else {
			step = next
		}
	}
	return nil
}

func actionVec(a int) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(a)})
}
