package dqn

import (
	"fmt"

	"github.com/qvalue/qvalue/exploration"
	"github.com/qvalue/qvalue/initwfn"
	"github.com/qvalue/qvalue/network"
	"github.com/qvalue/qvalue/solver"
)

// Config describes an online DQN agent
type Config struct {
	// Value network architecture
	HiddenSizes []int
	Biases      []bool
	Activations []*network.Activation
	InitWFn     *initwfn.InitWFn

	// Solver for learning network weights
	Solver *solver.Solver

	// Epsilon describes the exploration schedule
	Epsilon exploration.Config

	// Rule selects the bootstrap computation
	Rule Rule

	ReplayCapacity       int
	BatchSize            int
	TargetUpdateInterval int
	SummaryCheckpoint    int
	Gamma                float64
}

// Validate returns an error describing whether or not the
// configuration is valid.
func (c Config) Validate() error {
	if len(c.HiddenSizes) != len(c.Biases) ||
		len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("validate: hidden sizes, biases, and activations "+
			"must have equal lengths \n\thave(%v, %v, %v)",
			len(c.HiddenSizes), len(c.Biases), len(c.Activations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: no solver given")
	}
	if err := c.Epsilon.Validate(); err != nil {
		return fmt.Errorf("validate: invalid exploration schedule: %v", err)
	}
	if c.Rule != MaxTarget && c.Rule != DoubleQ {
		return fmt.Errorf("validate: unknown update rule %v", int(c.Rule))
	}
	if c.ReplayCapacity < 1 {
		return fmt.Errorf("validate: replay capacity must be positive "+
			"\n\thave(%v)", c.ReplayCapacity)
	}
	if c.BatchSize < 1 || c.BatchSize > c.ReplayCapacity {
		return fmt.Errorf("validate: batch size must be in [1, %v] "+
			"\n\thave(%v)", c.ReplayCapacity, c.BatchSize)
	}
	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("validate: target update interval must be "+
			"positive \n\thave(%v)", c.TargetUpdateInterval)
	}
	if c.SummaryCheckpoint < 1 {
		return fmt.Errorf("validate: summary checkpoint must be positive "+
			"\n\thave(%v)", c.SummaryCheckpoint)
	}
	if c.Gamma < 0 || c.Gamma >= 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1) \n\thave(%v)",
			c.Gamma)
	}
	return nil
}
