// Package agent defines the agent interfaces and the registry of
// agent variants.
//
// An Agent is composed of a Learner, which updates value-function
// weights, and a Policy, which chooses actions in each state. Agent
// variants form a closed set of registered Types selected by
// configuration rather than an open inheritance hierarchy: every
// variant shares the same act/observe/learn surface and differs only
// in how its Learner computes update targets.
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qvalue/qvalue/summary"
	"github.com/qvalue/qvalue/timestep"
)

// Agent determines the implementation details of an agent or
// algorithm that interacts with an environment online.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights
// are updated from the agent's own stream of experience.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that the previous action led to some timestep
	Observe(action mat.Vector, nextStep timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy determines how agents select actions. The Policy and Learner
// of an agent share weights so that updates made by the Learner are
// reflected in the actions the Policy chooses.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// OfflineAgent learns from externally supplied batches of transitions
// rather than from its own environment interaction. Offline agents
// still expose a Policy so that learned behaviour can be evaluated.
type OfflineAgent interface {
	Policy

	// Name returns the agent's name, used to key checkpoints and
	// summaries
	Name() string

	// LearnBatch performs a single update from a complete batch of
	// transitions
	LearnBatch(timestep.Batch) error

	// SetSummary sets the Writer that learn-time scalars are reported
	// to. A nil Writer disables reporting.
	SetSummary(summary.Writer)

	// Save checkpoints the agent's learned weights for an epoch under
	// the given run directory
	Save(dir string, epoch int) error
}

// A Closer is an agent holding resources that must be released after
// it is done learning.
type Closer interface {
	Close() error
}
