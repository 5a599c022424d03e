// Package dqn implements deep Q-learning. The package provides both
// an online agent that owns a replay buffer and an exploration
// schedule, and offline variants that learn from externally supplied
// batches. The Rule flag selects between the classic update, which
// bootstraps from the maximal target-network value, and the
// double-Q update, which selects the bootstrap action with the
// current weights but evaluates it with the target network.
package dqn

import (
	"fmt"

	"github.com/qvalue/qvalue/agent/qnet"
	"github.com/qvalue/qvalue/timestep"
	"github.com/qvalue/qvalue/utils/floatutils"
)

// Rule selects how the bootstrap term of the TD target is computed
type Rule int

const (
	// MaxTarget bootstraps from the maximal target-network value
	MaxTarget Rule = iota

	// DoubleQ selects the bootstrap action with the current weights
	// and evaluates it with the target network
	DoubleQ
)

// String implements the fmt.Stringer interface
func (r Rule) String() string {
	switch r {
	case DoubleQ:
		return "DoubleQ"
	default:
		return "MaxTarget"
	}
}

// update computes the loss derivatives for one batch along with the
// scalar loss and the mean TD target, both for reporting.
// The loss is the smooth-L1 (Huber) loss between the taken-action
// values and their TD targets, averaged over the batch; targets of
// terminal transitions are the reward alone.
func update(l *qnet.Learner, b timestep.Batch, gamma float64,
	rule Rule) (grads []float64, loss, expectedQ float64, err error) {
	numActions := l.Outputs()

	preds, err := l.EvalForward(b.States)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("update: %v", err)
	}
	targetNext, err := l.TargetForward(b.NextStates)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("update: %v", err)
	}
	var evalNext []float64
	if rule == DoubleQ {
		evalNext, err = l.EvalForward(b.NextStates)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("update: %v", err)
		}
	}

	grads = make([]float64, b.Size*numActions)
	norm := float64(b.Size)
	for i := 0; i < b.Size; i++ {
		row := i * numActions
		q := preds[row+b.Actions[i]]

		var bootstrap float64
		if !b.Dones[i] {
			next := targetNext[row : row+numActions]
			switch rule {
			case DoubleQ:
				best := floatutils.ArgMax(evalNext[row : row+numActions])
				bootstrap = next[best]
			default:
				bootstrap, _ = floatutils.MaxSlice(next)
			}
		}
		target := b.Rewards[i] + gamma*bootstrap

		diff := q - target
		grads[row+b.Actions[i]] = floatutils.HuberGrad(diff) / norm
		loss += floatutils.Huber(diff)
		expectedQ += target
	}
	loss /= norm
	expectedQ /= norm

	return grads, loss, expectedQ, nil
}
