package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// multiHeadMLP implements a multi-layered perceptron with multiple
// output nodes, one for each value that should be predicted. A network
// predicting K values per action (ensemble heads or return quantiles)
// is a multiHeadMLP with numActions * K outputs; callers fix the
// layout of the flat output themselves.
type multiHeadMLP struct {
	g          *G.ExprGraph
	layers     []*fcLayer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	// Data needed for gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMultiHeadMLP creates and returns a new multi-layered perceptron
// that predicts outputs values for each of batch input rows of
// features state features. The graph g is populated with the MLP.
//
// The MLP has len(hiddenSizes) + 1 layers: a final linear layer with a
// bias unit and no activation is always added so that the network
// predicts outputs values regardless of the hidden layer sizes. An
// MLP with hiddenSizes = []int{} is therefore a linear function
// approximator.
func NewMultiHeadMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if len(hiddenSizes) != len(activations) {
		msg := "newmultiheadmlp: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newmultiheadmlp: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}
	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newmultiheadmlp: features, batch, and "+
			"outputs must be positive \n\thave(%v, %v, %v)", features, batch,
			outputs)
	}

	// Final linear layer predicting the outputs
	sizes := make([]int, len(hiddenSizes), len(hiddenSizes)+1)
	copy(sizes, hiddenSizes)
	sizes = append(sizes, outputs)
	layerBiases := make([]bool, len(biases), len(biases)+1)
	copy(layerBiases, biases)
	layerBiases = append(layerBiases, true)
	layerActivations := make([]*Activation, len(activations),
		len(activations)+1)
	copy(layerActivations, activations)
	layerActivations = append(layerActivations, Identity())

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))
	layers := addLayers(g, sizes, layerBiases, layerActivations, init,
		features)

	network := multiHeadMLP{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: sizes,
		biases:      layerBiases,
		activations: layerActivations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newmultiheadmlp: could not compute forward "+
			"pass: %v", err)
	}

	return &network, nil
}

// Graph returns the computational graph of the multiHeadMLP.
func (e *multiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones a multiHeadMLP
func (e *multiHeadMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones a multiHeadMLP, weight values included, into a
// fresh graph with a new input batch size.
func (e *multiHeadMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("clonewithbatch: batch size must be positive")
	}
	graph := G.NewGraph()

	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	layers := make([]*fcLayer, len(e.layers))
	for i := range e.layers {
		layers[i] = e.layers[i].cloneTo(graph)
	}

	network := multiHeadMLP{
		g:           graph,
		layers:      layers,
		input:       input,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute forward "+
			"pass: %v", err)
	}

	return &network, nil
}

// BatchSize returns the number of input rows the network predicts on
func (e *multiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (e *multiHeadMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs predicted per input row
func (e *multiHeadMLP) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *multiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return &ShapeError{
			Op:   "setinput",
			Want: e.numInputs * e.batchSize,
			Have: len(input),
		}
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set overwrites the weights of a multiHeadMLP with the weights of
// another NeuralNet of the same architecture.
func (dest *multiHeadMLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: source has a different number of "+
			"learnables \n\twant(%v)\n\thave(%v)", len(nodes),
			len(sourceNodes))
	}
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in a multiHeadMLP
func (e *multiHeadMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(e.layers))
		for i := range e.layers {
			learnables = append(learnables, e.layers[i].weights)
			if bias := e.layers[i].bias; bias != nil {
				learnables = append(learnables, bias)
			}
		}
		e.learnables = G.Nodes(learnables)
	}
	return e.learnables
}

// Model returns the learnable nodes with their gradients.
func (e *multiHeadMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		model := make([]G.ValueGrad, 0, 2*len(e.layers))
		for _, node := range e.Learnables() {
			model = append(model, node)
		}
		e.model = model
	}
	return e.model
}

// fwd performs the forward pass of the multiHeadMLP on the input node
func (e *multiHeadMLP) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)
	return nil
}

// Output returns the predictions computed by the last run of the graph
func (e *multiHeadMLP) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the multiHeadMLP
func (e *multiHeadMLP) Prediction() *G.Node {
	return e.prediction
}

// GobEncode implements the gob.GobEncoder interface
func (e *multiHeadMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(e.numInputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode features: %v", err)
	}
	if err := enc.Encode(e.batchSize); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch size: %v",
			err)
	}
	if err := enc.Encode(e.numOutputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode outputs: %v", err)
	}
	if err := enc.Encode(e.hiddenSizes); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes: %v",
			err)
	}
	if err := enc.Encode(e.biases); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases: %v", err)
	}
	if err := enc.Encode(e.activations); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations: %v",
			err)
	}

	for i, learnable := range e.Learnables() {
		t, ok := learnable.Value().(*tensor.Dense)
		if !ok {
			return nil, fmt.Errorf("gobencode: learnable %v is not a dense "+
				"tensor", i)
		}
		if err := enc.Encode(t); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode learnable "+
				"%v: %v", i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *multiHeadMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var features, batchSize, outputs int
	if err := dec.Decode(&features); err != nil {
		return fmt.Errorf("gobdecode: could not decode features: %v", err)
	}
	if err := dec.Decode(&batchSize); err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size: %v", err)
	}
	if err := dec.Decode(&outputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode outputs: %v", err)
	}

	var sizes []int
	if err := dec.Decode(&sizes); err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes: %v", err)
	}
	var biases []bool
	if err := dec.Decode(&biases); err != nil {
		return fmt.Errorf("gobdecode: could not decode biases: %v", err)
	}
	var activations []*Activation
	if err := dec.Decode(&activations); err != nil {
		return fmt.Errorf("gobdecode: could not decode activations: %v", err)
	}

	// Sizes were encoded with the final output layer included
	g := G.NewGraph()
	newNet, err := NewMultiHeadMLP(features, batchSize, outputs, g,
		sizes[:len(sizes)-1], biases[:len(biases)-1],
		G.Zeroes(), activations[:len(activations)-1])
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new MLP: %v", err)
	}
	newMLP := newNet.(*multiHeadMLP)

	for i, learnable := range newMLP.Learnables() {
		var t *tensor.Dense
		if err := dec.Decode(&t); err != nil {
			return fmt.Errorf("gobdecode: could not decode learnable %v: %v",
				i, err)
		}
		if err := G.Let(learnable, t); err != nil {
			return fmt.Errorf("gobdecode: could not set learnable %v: %v", i,
				err)
		}
	}

	*e = *newMLP
	return nil
}

// NewMLP returns an empty multiHeadMLP into which gob-encoded network
// weights can be decoded.
func NewMLP() NeuralNet {
	return &multiHeadMLP{}
}
