// Package qnet implements the gradient machinery shared by the
// deep value-based agent variants. A Learner owns three clones of a
// value network: a training network whose graph computes parameter
// gradients, an inference network used to evaluate the current
// weights without touching the training graph, and a frozen target
// network synchronized on demand.
//
// The agent variants differ only in the targets they regress toward.
// Rather than building a separate loss graph per variant, the
// training graph computes the linear objective
//
//	cost = sum(outputGrads ⊙ prediction)
//
// where outputGrads is an input node holding the derivative of the
// variant's loss with respect to each network output, computed by the
// caller from inference-network predictions. Since the inference
// network carries the same weights as the training network when those
// derivatives are computed, backpropagating the linear objective
// yields exactly the gradient of the variant's loss.
package qnet

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/qvalue/qvalue/network"
	"github.com/qvalue/qvalue/solver"
)

// Gradients are clamped element-wise into [GradMin, GradMax] before
// every solver step.
const (
	GradMin float64 = -1.0
	GradMax float64 = 1.0
)

// Learner performs gradient updates on a value network from
// externally computed output derivatives.
type Learner struct {
	trainNet    network.NeuralNet
	outputGrads *G.Node
	trainVM     G.VM

	evalNet network.NeuralNet
	evalVM  G.VM

	targetNet network.NeuralNet
	targetVM  G.VM

	sol       *solver.Solver
	gradBound float64
}

// New returns a new Learner updating a network of proto's
// architecture on batches of batchSize states. The prototype's weight
// values seed all three network clones, so the target network starts
// synchronized.
func New(proto network.NeuralNet, batchSize int,
	sol *solver.Solver) (*Learner, error) {
	if sol == nil {
		return nil, fmt.Errorf("qnet: no solver given")
	}

	trainNet, err := proto.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("qnet: could not clone training network: %v",
			err)
	}
	graph := trainNet.Graph()

	outputGrads := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, trainNet.Outputs()),
		G.WithName("outputGrads"),
		G.WithInit(G.Zeroes()),
	)
	weighted := G.Must(G.HadamardProd(outputGrads, trainNet.Prediction()))
	cost := G.Must(G.Sum(weighted))
	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("qnet: could not construct gradient: %v", err)
	}

	evalNet, err := trainNet.Clone()
	if err != nil {
		return nil, fmt.Errorf("qnet: could not clone inference network: %v",
			err)
	}
	targetNet, err := trainNet.Clone()
	if err != nil {
		return nil, fmt.Errorf("qnet: could not clone target network: %v",
			err)
	}

	return &Learner{
		trainNet:    trainNet,
		outputGrads: outputGrads,
		trainVM: G.NewTapeMachine(graph,
			G.BindDualValues(trainNet.Learnables()...)),
		evalNet:   evalNet,
		evalVM:    G.NewTapeMachine(evalNet.Graph()),
		targetNet: targetNet,
		targetVM:  G.NewTapeMachine(targetNet.Graph()),
		sol:       sol,
	}, nil
}

// EvalForward predicts with the current weights on a batch of states
// without running the training graph. The returned slice is owned by
// the caller.
func (l *Learner) EvalForward(states []float64) ([]float64, error) {
	return l.forward(l.evalNet, l.evalVM, states)
}

// TargetForward predicts with the frozen target weights on a batch of
// states.
func (l *Learner) TargetForward(states []float64) ([]float64, error) {
	return l.forward(l.targetNet, l.targetVM, states)
}

func (l *Learner) forward(net network.NeuralNet, vm G.VM,
	states []float64) ([]float64, error) {
	if err := net.SetInput(states); err != nil {
		return nil, fmt.Errorf("forward: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward: could not run network: %v", err)
	}
	vm.Reset()

	output := net.Output().Data().([]float64)
	predictions := make([]float64, len(output))
	copy(predictions, output)

	return predictions, nil
}

// Step performs one gradient update. The outputGrads argument holds
// the derivative of the loss with respect to each training-network
// output for the given states, in the same row-major layout as the
// network's predictions. Gradients are clamped into
// [GradMin, GradMax] before the solver applies them.
func (l *Learner) Step(states, outputGrads []float64) error {
	batch, outputs := l.trainNet.BatchSize(), l.trainNet.Outputs()
	if len(outputGrads) != batch*outputs {
		return &network.ShapeError{
			Op:   "step",
			Want: batch * outputs,
			Have: len(outputGrads),
		}
	}

	if err := l.trainNet.SetInput(states); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	gradTensor := tensor.New(
		tensor.WithBacking(outputGrads),
		tensor.WithShape(batch, outputs),
	)
	if err := G.Let(l.outputGrads, gradTensor); err != nil {
		return fmt.Errorf("step: could not set output derivatives: %v", err)
	}

	if err := l.trainVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run training graph: %v", err)
	}

	bound, err := network.ClipGrads(l.trainNet, GradMin, GradMax)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	l.gradBound = bound

	if err := l.sol.Step(l.trainNet.Model()); err != nil {
		return fmt.Errorf("step: could not update weights: %v", err)
	}
	l.trainVM.Reset()

	if err := l.evalNet.Set(l.trainNet); err != nil {
		return fmt.Errorf("step: could not refresh inference network: %v",
			err)
	}
	return nil
}

// SyncTarget overwrites the target network's weights with the current
// training weights.
func (l *Learner) SyncTarget() error {
	return l.targetNet.Set(l.trainNet)
}

// GradBound returns the largest absolute gradient component of the
// most recent Step, measured after clamping.
func (l *Learner) GradBound() float64 {
	return l.gradBound
}

// TrainNet returns the network holding the current training weights
func (l *Learner) TrainNet() network.NeuralNet {
	return l.trainNet
}

// TargetNet returns the frozen target network
func (l *Learner) TargetNet() network.NeuralNet {
	return l.targetNet
}

// BatchSize returns the number of transitions consumed per Step
func (l *Learner) BatchSize() int {
	return l.trainNet.BatchSize()
}

// Outputs returns the number of values the network predicts per state
func (l *Learner) Outputs() int {
	return l.trainNet.Outputs()
}

// Close releases the Learner's virtual machines
func (l *Learner) Close() error {
	if err := l.trainVM.Close(); err != nil {
		return err
	}
	if err := l.evalVM.Close(); err != nil {
		return err
	}
	return l.targetVM.Close()
}
