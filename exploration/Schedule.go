// Package exploration implements epsilon decay schedules for
// epsilon-greedy action selection.
package exploration

import (
	"fmt"
	"math"
)

// Schedule produces the epsilon threshold for epsilon-greedy action
// selection. Advance must be called exactly once per action selection,
// regardless of whether the greedy or the random branch is taken.
// Epsilon values decay from a starting threshold toward a final
// threshold and are never reset.
type Schedule interface {
	// Advance returns the epsilon to use for the current action
	// selection and advances the schedule by one step
	Advance() float64

	// Epsilon returns the current epsilon without advancing the
	// schedule
	Epsilon() float64
}

// Exponential computes epsilon fresh on every call from a step counter:
//
//	epsilon(t) = end + (start - end) * exp(-t / decay)
//
// The step counter is the schedule's only state.
type Exponential struct {
	start float64
	end   float64
	decay float64
	steps int
}

// NewExponential returns a new exponential decay Schedule.
func NewExponential(start, end, decay float64) (*Exponential, error) {
	if start < end {
		return nil, fmt.Errorf("exponential: start (%v) must be >= end (%v)",
			start, end)
	}
	if decay <= 0 {
		return nil, fmt.Errorf("exponential: decay must be positive")
	}
	return &Exponential{start: start, end: end, decay: decay}, nil
}

// Advance implements the Schedule interface
func (e *Exponential) Advance() float64 {
	eps := e.Epsilon()
	e.steps++
	return eps
}

// Epsilon implements the Schedule interface
func (e *Exponential) Epsilon() float64 {
	return e.end + (e.start-e.end)*math.Exp(-float64(e.steps)/e.decay)
}

// Linear decrements a stored threshold by a fixed step size on every
// call until the threshold reaches the final epsilon, after which the
// threshold is held constant.
type Linear struct {
	threshold float64
	end       float64
	step      float64
}

// NewLinear returns a new linear decay Schedule which reaches end
// after (start - end) / step calls to Advance.
func NewLinear(start, end, step float64) (*Linear, error) {
	if start < end {
		return nil, fmt.Errorf("linear: start (%v) must be >= end (%v)",
			start, end)
	}
	if step <= 0 {
		return nil, fmt.Errorf("linear: step must be positive")
	}
	return &Linear{threshold: start, end: end, step: step}, nil
}

// Advance implements the Schedule interface
func (l *Linear) Advance() float64 {
	if l.threshold > l.end {
		l.threshold = math.Max(l.threshold-l.step, l.end)
	}
	return l.threshold
}

// Epsilon implements the Schedule interface
func (l *Linear) Epsilon() float64 {
	return l.threshold
}

// Constant holds epsilon fixed forever. A Constant of 0 yields a
// purely greedy policy, which offline agents use since they never
// explore.
type Constant struct {
	epsilon float64
}

// NewConstant returns a new constant Schedule.
func NewConstant(epsilon float64) (*Constant, error) {
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("constant: epsilon must be in [0, 1] "+
			"\n\thave(%v)", epsilon)
	}
	return &Constant{epsilon: epsilon}, nil
}

// Advance implements the Schedule interface
func (c *Constant) Advance() float64 {
	return c.epsilon
}

// Epsilon implements the Schedule interface
func (c *Constant) Epsilon() float64 {
	return c.epsilon
}
