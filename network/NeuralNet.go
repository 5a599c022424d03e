// Package network implements the function approximators that
// value-based agents learn. Approximators are treated as an opaque
// capability: given a batch of states they predict action values, and
// their parameters can be enumerated and overwritten wholesale for
// target-network synchronization.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a function approximator living in a gorgonia
// computational graph. A NeuralNet does not own a virtual machine;
// callers run the graph with an external VM after SetInput and read
// predictions from Output.
type NeuralNet interface {
	// Graph returns the computational graph holding the network
	Graph() *G.ExprGraph

	// Clone clones the network, weights included, into a fresh graph
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network into a fresh graph with a new
	// input batch size
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of rows in the network's input
	BatchSize() int

	// Features returns the number of state features per input row
	Features() int

	// Outputs returns the number of predicted values per input row
	Outputs() int

	// SetInput sets the value of the input node before the graph is
	// run. The input must hold BatchSize() * Features() values in
	// row-major order.
	SetInput([]float64) error

	// Set overwrites this network's parameters with those of source
	Set(source NeuralNet) error

	// Learnables returns the parameter nodes of the network
	Learnables() G.Nodes

	// Model returns the parameter nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the value of the prediction node computed by the
	// last run of the graph
	Output() G.Value

	// Prediction returns the node of the computational graph that
	// stores the network's predictions
	Prediction() *G.Node
}
