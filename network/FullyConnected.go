package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x = G.Must(G.Mul(x, f.weights))
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.bias, nil, []byte{0}))
	}
	if f.act == nil || f.act.IsIdentity() {
		return x, nil
	}
	return f.act.fwd(x)
}

// cloneTo clones an fcLayer, weight values included, to a new
// computational graph
func (f *fcLayer) cloneTo(g *G.ExprGraph) *fcLayer {
	var newBias *G.Node

	newWeights := f.weights.CloneTo(g)
	if f.bias != nil {
		newBias = f.bias.CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

// addLayers populates a graph with the fully connected layers of an
// MLP. For index i, sizes[i] is the number of units in layer i,
// biases[i] determines whether layer i has a bias unit, and
// activations[i] is the activation function of layer i.
func addLayers(g *G.ExprGraph, sizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int) []*fcLayer {
	layers := make([]*fcLayer, len(sizes))

	in := features
	for i, out := range sizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(in, out),
			G.WithName(fmt.Sprintf("L%vW", i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewVector(
				g,
				tensor.Float64,
				G.WithShape(out),
				G.WithName(fmt.Sprintf("L%vB", i)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers[i] = &fcLayer{weights: weights, bias: bias, act: activations[i]}
		in = out
	}
	return layers
}
