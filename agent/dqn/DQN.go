package dqn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/qvalue/qvalue/agent/egreedy"
	"github.com/qvalue/qvalue/agent/qnet"
	"github.com/qvalue/qvalue/environment"
	"github.com/qvalue/qvalue/expreplay"
	"github.com/qvalue/qvalue/network"
	"github.com/qvalue/qvalue/summary"
	"github.com/qvalue/qvalue/timestep"
)

// DQN is an online deep Q-learning agent. It acts epsilon-greedily
// with respect to its value network, stores transitions in a replay
// buffer, and learns from uniformly sampled batches. The target
// network is synchronized every TargetUpdateInterval acting steps.
type DQN struct {
	policy  *egreedy.Policy
	learner *qnet.Learner
	replay  *expreplay.Buffer

	gamma           float64
	rule            Rule
	targetInterval  int
	summaryInterval int
	stepsDone       int
	learnsDone      int

	summary  summary.Writer
	prevStep timestep.TimeStep
}

// New returns a new online DQN agent acting in env.
func New(env environment.Environment, c Config, seed uint64) (*DQN, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}

	features := environment.Features(env)
	numActions := environment.NumActions(env)

	proto, err := network.NewMultiHeadMLP(features, 1, numActions,
		G.NewGraph(), c.HiddenSizes, c.Biases, c.InitWFn.InitWFn(),
		c.Activations)
	if err != nil {
		return nil, fmt.Errorf("dqn: could not create value network: %v", err)
	}

	learner, err := qnet.New(proto, c.BatchSize, c.Solver)
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}

	schedule, err := c.Epsilon.Create()
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}
	policy, err := egreedy.New(learner.TrainNet(), schedule,
		egreedy.Identity(), numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}

	replay, err := expreplay.New(c.ReplayCapacity, c.BatchSize, features,
		seed)
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}

	return &DQN{
		policy:          policy,
		learner:         learner,
		replay:          replay,
		gamma:           c.Gamma,
		rule:            c.Rule,
		targetInterval:  c.TargetUpdateInterval,
		summaryInterval: c.SummaryCheckpoint,
	}, nil
}

// SelectAction selects an action given the current timestep and
// advances the exploration schedule.
func (d *DQN) SelectAction(t timestep.TimeStep) *mat.VecDense {
	action := d.policy.SelectAction(t)
	if !d.policy.IsEval() {
		d.stepsDone++
	}
	return action
}

// ObserveFirst records the first timestep in an episode
func (d *DQN) ObserveFirst(t timestep.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep is not first "+
			"\n\thave(%v)", t)
	}
	d.prevStep = t
	return nil
}

// Observe records that the previous action led to nextStep and stores
// the resulting transition in the replay buffer.
func (d *DQN) Observe(action mat.Vector, nextStep timestep.TimeStep) error {
	transition := timestep.NewTransition(d.prevStep, int(action.AtVec(0)),
		nextStep)
	d.prevStep = nextStep

	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: could not store transition: %v", err)
	}
	return nil
}

// Step performs a single learning update. When the replay buffer does
// not yet hold a full batch the step is skipped without error and
// without touching the weights.
func (d *DQN) Step() error {
	batch, err := d.replay.Sample()
	if expreplay.IsInsufficientData(err) || expreplay.IsEmpty(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	grads, loss, expectedQ, err := update(d.learner, batch, d.gamma, d.rule)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := d.learner.Step(batch.States, grads); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	d.learnsDone++
	if err := d.policy.Network().Set(d.learner.TrainNet()); err != nil {
		return fmt.Errorf("step: could not refresh policy weights: %v", err)
	}

	if d.stepsDone%d.targetInterval == 0 {
		if err := d.learner.SyncTarget(); err != nil {
			return fmt.Errorf("step: could not sync target network: %v", err)
		}
	}

	if d.summary != nil && d.learnsDone%d.summaryInterval == 0 {
		d.summary.AddScalar(qnet.LossTag, d.learnsDone, loss)
		d.summary.AddScalar(qnet.ExpectedQTag, d.learnsDone, expectedQ)
	}
	return nil
}

// SetSummary sets the Writer that learn-time scalars are reported to.
// A nil Writer disables reporting.
func (d *DQN) SetSummary(w summary.Writer) {
	d.summary = w
}

// EndEpisode performs cleanup at the end of an episode
func (d *DQN) EndEpisode() {}

// Eval sets the agent to evaluation mode
func (d *DQN) Eval() {
	d.policy.Eval()
}

// Train sets the agent to training mode
func (d *DQN) Train() {
	d.policy.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (d *DQN) IsEval() bool {
	return d.policy.IsEval()
}

// Learner returns the agent's gradient learner
func (d *DQN) Learner() *qnet.Learner {
	return d.learner
}

// Close releases the agent's virtual machines
func (d *DQN) Close() error {
	if err := d.policy.Close(); err != nil {
		return err
	}
	return d.learner.Close()
}
