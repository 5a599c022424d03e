package qnet

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/qvalue/qvalue/agent/egreedy"
	"github.com/qvalue/qvalue/checkpointer"
	"github.com/qvalue/qvalue/network"
	"github.com/qvalue/qvalue/summary"
	"github.com/qvalue/qvalue/timestep"
)

// DefaultValueNet returns the value-network architecture the offline
// agents use: two ReLU hidden layers of 64 units with Glorot-uniform
// weights, predicting outputs values per state.
func DefaultValueNet(features, outputs int) (network.NeuralNet, error) {
	return network.NewMultiHeadMLP(features, 1, outputs, G.NewGraph(),
		[]int{64, 64}, []bool{true, true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU(), network.ReLU()})
}

// Summary tags written by offline agents
const (
	LossTag      string = "Loss"
	ExpectedQTag string = "Expected Q Values"
)

// A DeriveFn computes the loss derivatives for a batch of transitions
// along with the scalar loss and the mean update target. The
// deep offline agent variants differ only in their DeriveFn.
type DeriveFn func(l *Learner, b timestep.Batch, gamma float64) (grads []float64,
	loss, expectedQ float64, err error)

// Offline drives a Learner from externally supplied batches of
// transitions and implements the bookkeeping shared by the offline
// deep agents: target synchronizations counted in learn calls,
// periodic scalar summaries, and per-epoch checkpoints of the target
// network. The embedded policy acts greedily for evaluating learned
// behaviour.
type Offline struct {
	*egreedy.Policy
	learner *Learner
	derive  DeriveFn

	name     string
	features int
	gamma    float64

	targetInterval  int
	summaryInterval int
	batchesDone     int

	summary summary.Writer
}

// NewOffline returns a new Offline agent named name. After every
// targetInterval-th learn call, starting with the first, the target
// network is synchronized to the freshly updated weights.
func NewOffline(name string, learner *Learner, policy *egreedy.Policy,
	features, targetInterval, summaryInterval int, gamma float64,
	derive DeriveFn) (*Offline, error) {
	if learner == nil || policy == nil {
		return nil, fmt.Errorf("newoffline: no learner or policy given")
	}
	if derive == nil {
		return nil, fmt.Errorf("newoffline: no derivative function given")
	}
	if targetInterval < 1 || summaryInterval < 1 {
		return nil, fmt.Errorf("newoffline: intervals must be positive "+
			"\n\thave(%v, %v)", targetInterval, summaryInterval)
	}

	return &Offline{
		Policy:          policy,
		learner:         learner,
		derive:          derive,
		name:            name,
		features:        features,
		gamma:           gamma,
		targetInterval:  targetInterval,
		summaryInterval: summaryInterval,
	}, nil
}

// Name returns the agent's name, used to key checkpoints and
// summaries
func (o *Offline) Name() string {
	return o.name
}

// LearnBatch performs a single update from a complete batch of
// transitions. A failed learn call leaves the weights untouched.
func (o *Offline) LearnBatch(b timestep.Batch) error {
	if err := b.Validate(o.features); err != nil {
		return fmt.Errorf("learnbatch: %v", err)
	}
	if b.Size != o.learner.BatchSize() {
		return fmt.Errorf("learnbatch: invalid batch size \n\twant(%v)"+
			"\n\thave(%v)", o.learner.BatchSize(), b.Size)
	}

	grads, loss, expectedQ, err := o.derive(o.learner, b, o.gamma)
	if err != nil {
		return fmt.Errorf("learnbatch: %v", err)
	}
	if err := o.learner.Step(b.States, grads); err != nil {
		return fmt.Errorf("learnbatch: %v", err)
	}

	// Sync after the weight update and before the counter increments,
	// so every targetInterval-th learn call (the first included)
	// leaves the target equal to the freshly updated weights.
	if o.batchesDone%o.targetInterval == 0 {
		if err := o.learner.SyncTarget(); err != nil {
			return fmt.Errorf("learnbatch: could not sync target network: "+
				"%v", err)
		}
	}
	o.batchesDone++

	if err := o.Network().Set(o.learner.TrainNet()); err != nil {
		return fmt.Errorf("learnbatch: could not refresh policy weights: "+
			"%v", err)
	}

	if o.summary != nil && o.batchesDone%o.summaryInterval == 0 {
		o.summary.AddScalar(LossTag, o.batchesDone, loss)
		o.summary.AddScalar(ExpectedQTag, o.batchesDone, expectedQ)
	}
	return nil
}

// SetSummary sets the Writer that learn-time scalars are reported to.
// A nil Writer disables reporting.
func (o *Offline) SetSummary(w summary.Writer) {
	o.summary = w
}

// Save checkpoints the target network for an epoch under dir
func (o *Offline) Save(dir string, epoch int) error {
	_, err := checkpointer.Save(dir, o.name, epoch, o.learner.TargetNet())
	return err
}

// BatchesDone returns the number of completed learn calls
func (o *Offline) BatchesDone() int {
	return o.batchesDone
}

// Learner returns the agent's gradient learner
func (o *Offline) Learner() *Learner {
	return o.learner
}

// Close releases the agent's virtual machines
func (o *Offline) Close() error {
	if err := o.Policy.Close(); err != nil {
		return err
	}
	return o.learner.Close()
}
