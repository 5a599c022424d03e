// Package qrdqn implements offline quantile-regression deep
// Q-learning. The value network predicts NumHeads return quantiles
// per action, stored action-major so action a's quantile j sits at
// index a*numQuantiles + j of the flat output. Quantile levels are
// fixed at tau_j = (j+1)/N. Action selection and bootstrapping both
// score actions by their quantile mean; the learning update applies
// the asymmetric quantile-Huber weighting elementwise, treating the
// weights as constants of the update.
package qrdqn

import (
	"fmt"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/agent/egreedy"
	"github.com/qvalue/qvalue/agent/qnet"
	"github.com/qvalue/qvalue/environment"
	"github.com/qvalue/qvalue/exploration"
	"github.com/qvalue/qvalue/solver"
	"github.com/qvalue/qvalue/timestep"
	"github.com/qvalue/qvalue/utils/floatutils"
)

func init() {
	agent.RegisterOffline(agent.QRDQN,
		func(env environment.Environment, c agent.OfflineConfig,
			seed uint64) (agent.OfflineAgent, error) {
			return NewOffline(env, c, seed)
		})
}

// NewOffline returns an offline QR-DQN agent learning from externally
// supplied batches of transitions. The configuration's NumHeads field
// sets the number of return quantiles per action.
func NewOffline(env environment.Environment, c agent.OfflineConfig,
	seed uint64) (agent.OfflineAgent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("qrdqn: %v", err)
	}

	features := environment.Features(env)
	numActions := environment.NumActions(env)
	numQuantiles := c.NumHeads

	proto, err := qnet.DefaultValueNet(features, numActions*numQuantiles)
	if err != nil {
		return nil, fmt.Errorf("qrdqn: could not create value network: %v",
			err)
	}
	sol, err := solver.NewDefaultAdam(c.LearningRate, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("qrdqn: %v", err)
	}
	learner, err := qnet.New(proto, c.BatchSize, sol)
	if err != nil {
		return nil, fmt.Errorf("qrdqn: %v", err)
	}

	greedy, err := exploration.NewConstant(0.0)
	if err != nil {
		return nil, fmt.Errorf("qrdqn: %v", err)
	}
	policy, err := egreedy.New(learner.TrainNet(), greedy,
		egreedy.QuantileMean(numQuantiles, numActions), numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("qrdqn: %v", err)
	}

	tau := taus(numQuantiles)
	deriveFn := func(l *qnet.Learner, b timestep.Batch,
		gamma float64) ([]float64, float64, float64, error) {
		return derive(l, b, gamma, tau, numActions)
	}

	return qnet.NewOffline(string(agent.QRDQN), learner, policy, features,
		c.TargetUpdateInterval, c.SummaryCheckpoint, c.Gamma, deriveFn)
}

// taus returns the n quantile levels (j+1)/n for j in [0, n)
func taus(n int) []float64 {
	tau := make([]float64, n)
	for j := range tau {
		tau[j] = float64(j+1) / float64(n)
	}
	return tau
}

// quantileWeights returns the asymmetric weights |tau_j - 1{diff_j > 0}|
// for the elementwise quantile-Huber loss, where diff_j is the
// predicted quantile minus its target. Every weight lies in [0, 1].
func quantileWeights(tau, diffs []float64) []float64 {
	weights := make([]float64, len(tau))
	for j := range tau {
		indicator := 0.0
		if diffs[j] > 0 {
			indicator = 1.0
		}
		weights[j] = tau[j] - indicator
		if weights[j] < 0 {
			weights[j] = -weights[j]
		}
	}
	return weights
}

// derive computes the loss derivatives of the quantile-regression
// update for one batch.
func derive(l *qnet.Learner, b timestep.Batch, gamma float64,
	tau []float64, numActions int) ([]float64, float64, float64, error) {
	preds, err := l.EvalForward(b.States)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("derive: %v", err)
	}
	targetNext, err := l.TargetForward(b.NextStates)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("derive: %v", err)
	}

	numQuantiles := len(tau)
	outputs := numActions * numQuantiles
	grads := make([]float64, b.Size*outputs)
	norm := float64(b.Size * numQuantiles)

	var loss, expectedQ float64
	diffs := make([]float64, numQuantiles)
	targets := make([]float64, numQuantiles)
	for i := 0; i < b.Size; i++ {
		row := i * outputs
		taken := row + b.Actions[i]*numQuantiles

		var bootstrap []float64
		if !b.Dones[i] {
			best, bestMean := 0, 0.0
			for a := 0; a < numActions; a++ {
				m := floatutils.Mean(
					targetNext[row+a*numQuantiles : row+(a+1)*numQuantiles])
				if a == 0 || m > bestMean {
					best, bestMean = a, m
				}
			}
			bootstrap = targetNext[row+best*numQuantiles : row+(best+1)*numQuantiles]
		}

		for j := 0; j < numQuantiles; j++ {
			targets[j] = b.Rewards[i]
			if bootstrap != nil {
				targets[j] += gamma * bootstrap[j]
			}
			diffs[j] = preds[taken+j] - targets[j]
		}
		weights := quantileWeights(tau, diffs)

		for j := 0; j < numQuantiles; j++ {
			grads[taken+j] = weights[j] * floatutils.HuberGrad(diffs[j]) / norm
			loss += weights[j] * floatutils.Huber(diffs[j])
			expectedQ += targets[j]
		}
	}
	loss /= norm
	expectedQ /= norm

	return grads, loss, expectedQ, nil
}
