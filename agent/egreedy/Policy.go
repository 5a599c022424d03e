// Package egreedy implements epsilon-greedy action selection over a
// value network. The same Policy serves every gradient-based agent
// variant in this module: variants whose networks predict more than
// one value per action (ensemble heads, return quantiles) supply a
// Reducer that collapses the network output to one score per action
// before the argmax.
package egreedy

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"

	"github.com/qvalue/qvalue/exploration"
	"github.com/qvalue/qvalue/network"
	"github.com/qvalue/qvalue/timestep"
	"github.com/qvalue/qvalue/utils/floatutils"
)

// A Reducer collapses a network's flat output for a single state into
// one score per action.
type Reducer func(values []float64) []float64

// Identity returns the network output unchanged. It is the Reducer of
// networks predicting exactly one value per action.
func Identity() Reducer {
	return func(values []float64) []float64 {
		return values
	}
}

// HeadMean reduces the output of a network predicting numHeads values
// per action in head-major order, where head k's value for action a
// is at index k*numActions + a, to the mean over heads.
func HeadMean(numHeads, numActions int) Reducer {
	return func(values []float64) []float64 {
		scores := make([]float64, numActions)
		for a := 0; a < numActions; a++ {
			for k := 0; k < numHeads; k++ {
				scores[a] += values[k*numActions+a]
			}
			scores[a] /= float64(numHeads)
		}
		return scores
	}
}

// QuantileMean reduces the output of a network predicting
// numQuantiles return quantiles per action in action-major order,
// where action a's quantile j is at index a*numQuantiles + j, to the
// quantile mean.
func QuantileMean(numQuantiles, numActions int) Reducer {
	return func(values []float64) []float64 {
		scores := make([]float64, numActions)
		for a := 0; a < numActions; a++ {
			scores[a] = floatutils.Mean(
				values[a*numQuantiles : (a+1)*numQuantiles])
		}
		return scores
	}
}

// Policy selects actions epsilon-greedily with respect to a value
// network. The epsilon threshold follows an exploration Schedule that
// is advanced exactly once per action selection; in evaluation mode
// the schedule is frozen and actions are purely greedy. Ties between
// maximal actions are broken uniformly at random.
type Policy struct {
	net        network.NeuralNet
	vm         G.VM
	schedule   exploration.Schedule
	reduce     Reducer
	numActions int

	uniform distuv.Uniform
	rng     *rand.Rand
	eval    bool
}

// New returns a new Policy acting greedily with respect to net. The
// policy owns a batch-1 clone of net; keep the clone's weights
// current with Network().Set as learning progresses.
func New(net network.NeuralNet, schedule exploration.Schedule,
	reduce Reducer, numActions int, seed uint64) (*Policy, error) {
	if numActions < 1 {
		return nil, fmt.Errorf("egreedy: need at least one action "+
			"\n\thave(%v)", numActions)
	}
	if schedule == nil {
		return nil, fmt.Errorf("egreedy: no exploration schedule given")
	}
	if reduce == nil {
		reduce = Identity()
	}

	actNet, err := net.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("egreedy: could not clone value network: %v",
			err)
	}

	source := rand.NewSource(seed)
	p := &Policy{
		net:        actNet,
		vm:         G.NewTapeMachine(actNet.Graph()),
		schedule:   schedule,
		reduce:     reduce,
		numActions: numActions,
		uniform:    distuv.Uniform{Min: 0.0, Max: 1.0, Src: source},
		rng:        rand.New(source),
	}
	return p, nil
}

// SelectAction selects an action epsilon-greedily given the current
// timestep.
func (p *Policy) SelectAction(t timestep.TimeStep) *mat.VecDense {
	if !p.eval {
		eps := p.schedule.Advance()
		if p.uniform.Rand() < eps {
			action := p.rng.Intn(p.numActions)
			return mat.NewVecDense(1, []float64{float64(action)})
		}
	}

	values := p.reduce(p.actionValues(t.Observation))
	_, maxIndices := floatutils.MaxSlice(values)
	action := maxIndices[p.rng.Intn(len(maxIndices))]

	return mat.NewVecDense(1, []float64{float64(action)})
}

// actionValues runs the value network forward on a single observation
func (p *Policy) actionValues(obs mat.Vector) []float64 {
	input := make([]float64, obs.Len())
	for i := range input {
		input[i] = obs.AtVec(i)
	}
	if err := p.net.SetInput(input); err != nil {
		panic(fmt.Sprintf("selectaction: could not set network input: %v",
			err))
	}
	if err := p.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: could not run value network: %v",
			err))
	}
	p.vm.Reset()

	output := p.net.Output().Data().([]float64)
	values := make([]float64, len(output))
	copy(values, output)

	return values
}

// Network returns the policy's value network
func (p *Policy) Network() network.NeuralNet {
	return p.net
}

// Epsilon returns the current epsilon threshold without advancing the
// schedule
func (p *Policy) Epsilon() float64 {
	return p.schedule.Epsilon()
}

// Eval sets the policy to evaluation mode
func (p *Policy) Eval() {
	p.eval = true
}

// Train sets the policy to training mode
func (p *Policy) Train() {
	p.eval = false
}

// IsEval returns whether the policy is in evaluation mode
func (p *Policy) IsEval() bool {
	return p.eval
}

// Close releases the policy's virtual machine
func (p *Policy) Close() error {
	return p.vm.Close()
}
