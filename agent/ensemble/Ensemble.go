// Package ensemble implements offline ensemble deep Q-learning. The
// value network predicts NumHeads values per action, stored
// head-major so head k's value for action a sits at index
// k*numActions + a of the flat output. The Mixture flag selects how
// the heads combine during learning: Mean regresses every head toward
// its own per-head target and averages the loss across heads, while
// Random draws a fresh random convex combination of heads on every
// learn call and regresses the combined value toward the combined
// target.
package ensemble

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/agent/egreedy"
	"github.com/qvalue/qvalue/agent/qnet"
	"github.com/qvalue/qvalue/environment"
	"github.com/qvalue/qvalue/exploration"
	"github.com/qvalue/qvalue/solver"
	"github.com/qvalue/qvalue/timestep"
	"github.com/qvalue/qvalue/utils/floatutils"
)

// Mixture selects how ensemble heads combine during learning
type Mixture int

const (
	// Mean regresses each head toward its own target and averages
	// the loss across heads
	Mean Mixture = iota

	// Random regresses a fresh random convex combination of heads
	// toward the equally combined target on every learn call
	Random
)

// String implements the fmt.Stringer interface
func (m Mixture) String() string {
	switch m {
	case Random:
		return "Random"
	default:
		return "Mean"
	}
}

func init() {
	agent.RegisterOffline(agent.EnsembleDQN,
		func(env environment.Environment, c agent.OfflineConfig,
			seed uint64) (agent.OfflineAgent, error) {
			return NewOffline(env, c, seed, Mean)
		})
	agent.RegisterOffline(agent.REMDQN,
		func(env environment.Environment, c agent.OfflineConfig,
			seed uint64) (agent.OfflineAgent, error) {
			return NewOffline(env, c, seed, Random)
		})
}

// NewOffline returns an offline ensemble agent learning from
// externally supplied batches of transitions.
func NewOffline(env environment.Environment, c agent.OfflineConfig,
	seed uint64, mixture Mixture) (agent.OfflineAgent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("ensemble: %v", err)
	}
	if mixture != Mean && mixture != Random {
		return nil, fmt.Errorf("ensemble: unknown mixture %v", int(mixture))
	}

	features := environment.Features(env)
	numActions := environment.NumActions(env)
	numHeads := c.NumHeads

	proto, err := qnet.DefaultValueNet(features, numHeads*numActions)
	if err != nil {
		return nil, fmt.Errorf("ensemble: could not create value network: "+
			"%v", err)
	}
	sol, err := solver.NewDefaultAdam(c.LearningRate, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("ensemble: %v", err)
	}
	learner, err := qnet.New(proto, c.BatchSize, sol)
	if err != nil {
		return nil, fmt.Errorf("ensemble: %v", err)
	}

	greedy, err := exploration.NewConstant(0.0)
	if err != nil {
		return nil, fmt.Errorf("ensemble: %v", err)
	}
	policy, err := egreedy.New(learner.TrainNet(), greedy,
		egreedy.HeadMean(numHeads, numActions), numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("ensemble: %v", err)
	}

	uniform := distuv.Uniform{Min: 0.0, Max: 1.0,
		Src: rand.NewSource(seed)}

	var derive qnet.DeriveFn
	name := string(agent.EnsembleDQN)
	switch mixture {
	case Random:
		name = string(agent.REMDQN)
		derive = func(l *qnet.Learner, b timestep.Batch,
			gamma float64) ([]float64, float64, float64, error) {
			alphas := sampleMixture(uniform, numHeads)
			return deriveRandom(l, b, gamma, alphas, numActions)
		}
	default:
		derive = func(l *qnet.Learner, b timestep.Batch,
			gamma float64) ([]float64, float64, float64, error) {
			return deriveMean(l, b, gamma, numHeads, numActions)
		}
	}

	return qnet.NewOffline(name, learner, policy, features,
		c.TargetUpdateInterval, c.SummaryCheckpoint, c.Gamma, derive)
}

// sampleMixture draws a random convex combination of numHeads heads:
// independent U(0, 1) draws normalized by their sum.
func sampleMixture(uniform distuv.Uniform, numHeads int) []float64 {
	alphas := make([]float64, numHeads)
	sum := 0.0
	for k := range alphas {
		alphas[k] = uniform.Rand()
		sum += alphas[k]
	}
	for k := range alphas {
		alphas[k] /= sum
	}
	return alphas
}

// deriveMean computes the loss derivatives of the per-head update.
// Each head regresses its taken-action value toward a target
// bootstrapped from the same head of the target network; the loss
// averages the per-head smooth-L1 losses. Terminal transitions zero
// the bootstrap of every head at once.
func deriveMean(l *qnet.Learner, b timestep.Batch, gamma float64,
	numHeads, numActions int) ([]float64, float64, float64, error) {
	preds, err := l.EvalForward(b.States)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("derivemean: %v", err)
	}
	targetNext, err := l.TargetForward(b.NextStates)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("derivemean: %v", err)
	}

	outputs := numHeads * numActions
	grads := make([]float64, b.Size*outputs)
	norm := float64(b.Size * numHeads)

	var loss, expectedQ float64
	for i := 0; i < b.Size; i++ {
		row := i * outputs
		for k := 0; k < numHeads; k++ {
			head := row + k*numActions
			q := preds[head+b.Actions[i]]

			var bootstrap float64
			if !b.Dones[i] {
				bootstrap, _ = floatutils.MaxSlice(
					targetNext[head : head+numActions])
			}
			target := b.Rewards[i] + gamma*bootstrap

			diff := q - target
			grads[head+b.Actions[i]] = floatutils.HuberGrad(diff) / norm
			loss += floatutils.Huber(diff)
			expectedQ += target
		}
	}
	loss /= norm
	expectedQ /= norm

	return grads, loss, expectedQ, nil
}

// deriveRandom computes the loss derivatives of the random-mixture
// update. The heads are combined with the given convex weights on
// both sides of the TD error, and the derivative of the combined
// value distributes the combination weights back onto the heads.
func deriveRandom(l *qnet.Learner, b timestep.Batch, gamma float64,
	alphas []float64, numActions int) ([]float64, float64, float64, error) {
	preds, err := l.EvalForward(b.States)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("deriverandom: %v", err)
	}
	targetNext, err := l.TargetForward(b.NextStates)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("deriverandom: %v", err)
	}

	numHeads := len(alphas)
	outputs := numHeads * numActions
	grads := make([]float64, b.Size*outputs)
	norm := float64(b.Size)

	var loss, expectedQ float64
	combined := make([]float64, numActions)
	for i := 0; i < b.Size; i++ {
		row := i * outputs

		q := 0.0
		for k := 0; k < numHeads; k++ {
			q += alphas[k] * preds[row+k*numActions+b.Actions[i]]
		}

		var bootstrap float64
		if !b.Dones[i] {
			for a := 0; a < numActions; a++ {
				combined[a] = 0.0
				for k := 0; k < numHeads; k++ {
					combined[a] += alphas[k] * targetNext[row+k*numActions+a]
				}
			}
			bootstrap, _ = floatutils.MaxSlice(combined)
		}
		target := b.Rewards[i] + gamma*bootstrap

		diff := q - target
		dLoss := floatutils.HuberGrad(diff) / norm
		for k := 0; k < numHeads; k++ {
			grads[row+k*numActions+b.Actions[i]] = alphas[k] * dLoss
		}
		loss += floatutils.Huber(diff)
		expectedQ += target
	}
	loss /= norm
	expectedQ /= norm

	return grads, loss, expectedQ, nil
}
