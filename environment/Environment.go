// Package environment outlines the interfaces that concrete
// environments implement. Agents in this module learn from discrete
// action spaces, so every environment declares how many actions it
// supports through its action Spec.
package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/qvalue/qvalue/timestep"
)

// SpecType determines what kind of specification a Spec is. A Spec
// can specify the layout of an action, an observation, or a reward.
type SpecType int

const (
	Action SpecType = iota
	Observation
	Reward
)

// Cardinality determines the cardinality of a number (discrete or
// continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, or reward in an
// environment.
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification. The shape
// argument outlines the shape of the data described by the
// specification, t outlines what the specification describes, and the
// cardinality argument describes whether the described values are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// Environment implements a simulated environment with a discrete
// action space. Environments start ready to use and Reset between
// episodes. Step returns the next timestep and whether the episode
// ended on that step.
type Environment interface {
	fmt.Stringer
	Reset() timestep.TimeStep
	Step(action mat.Vector) (timestep.TimeStep, bool)
	ObservationSpec() Spec
	ActionSpec() Spec
}

// Features returns the number of features in an observation vector
// of env.
func Features(env Environment) int {
	return env.ObservationSpec().Shape.Len()
}

// NumActions returns the number of discrete actions available in env.
// The action Spec must describe a single discrete action with bounds
// [0, N-1].
func NumActions(env Environment) int {
	spec := env.ActionSpec()
	if spec.Cardinality != Discrete {
		panic("numactions: environment does not have discrete actions")
	}
	return int(spec.UpperBound.AtVec(0)) + 1
}
