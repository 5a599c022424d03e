package dqn

import (
	"fmt"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/agent/egreedy"
	"github.com/qvalue/qvalue/agent/qnet"
	"github.com/qvalue/qvalue/environment"
	"github.com/qvalue/qvalue/exploration"
	"github.com/qvalue/qvalue/solver"
	"github.com/qvalue/qvalue/timestep"
)

func init() {
	agent.RegisterOffline(agent.DQN,
		func(env environment.Environment, c agent.OfflineConfig,
			seed uint64) (agent.OfflineAgent, error) {
			return NewOffline(env, c, seed, MaxTarget)
		})
	agent.RegisterOffline(agent.DoubleDQN,
		func(env environment.Environment, c agent.OfflineConfig,
			seed uint64) (agent.OfflineAgent, error) {
			return NewOffline(env, c, seed, DoubleQ)
		})
}

// NewOffline returns an offline DQN variant that learns from
// externally supplied batches of transitions.
func NewOffline(env environment.Environment, c agent.OfflineConfig,
	seed uint64, rule Rule) (agent.OfflineAgent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}
	if c.NumHeads != 1 {
		return nil, fmt.Errorf("dqn: offline %v predicts one value per "+
			"action \n\thave(NumHeads = %v)", rule, c.NumHeads)
	}

	features := environment.Features(env)
	numActions := environment.NumActions(env)

	proto, err := qnet.DefaultValueNet(features, numActions)
	if err != nil {
		return nil, fmt.Errorf("dqn: could not create value network: %v", err)
	}
	sol, err := solver.NewDefaultAdam(c.LearningRate, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}
	learner, err := qnet.New(proto, c.BatchSize, sol)
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}

	greedy, err := exploration.NewConstant(0.0)
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}
	policy, err := egreedy.New(learner.TrainNet(), greedy,
		egreedy.Identity(), numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}

	derive := func(l *qnet.Learner, b timestep.Batch,
		gamma float64) ([]float64, float64, float64, error) {
		return update(l, b, gamma, rule)
	}

	name := string(agent.DQN)
	if rule == DoubleQ {
		name = string(agent.DoubleDQN)
	}
	return qnet.NewOffline(name, learner, policy, features,
		c.TargetUpdateInterval, c.SummaryCheckpoint, c.Gamma, derive)
}
