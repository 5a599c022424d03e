// Package expreplay implements an experience replay buffer with
// first-in-first-out eviction and uniform random sampling.
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/qvalue/qvalue/timestep"
)

// Buffer is a fixed-capacity circular store of transitions. Once the
// buffer is full, each Add overwrites the oldest stored transition.
// Sample draws batchSize distinct transitions uniformly at random;
// the draw is with replacement across calls but never contains the
// same stored transition twice within one batch. No recency or
// priority weighting is applied.
type Buffer struct {
	states     []float64
	actions    []int
	rewards    []float64
	dones      []bool
	nextStates []float64

	featureSize int
	capacity    int
	batchSize   int

	// next is the index that the next Add writes to; size is the
	// number of stored transitions, at most capacity
	next int
	size int

	rng *rand.Rand
}

// New creates and returns a new Buffer storing at most capacity
// transitions of featureSize state features, sampled in batches of
// batchSize.
func New(capacity, batchSize, featureSize int,
	seed uint64) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("new: batch size must be >= 1")
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: feature size must be >= 1")
	}
	if batchSize > capacity {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > "+
			"capacity (%v)", batchSize, capacity)
	}

	return &Buffer{
		states:      make([]float64, capacity*featureSize),
		actions:     make([]int, capacity),
		rewards:     make([]float64, capacity),
		dones:       make([]bool, capacity),
		nextStates:  make([]float64, capacity*featureSize),
		featureSize: featureSize,
		capacity:    capacity,
		batchSize:   batchSize,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Add inserts a transition into the buffer, evicting the oldest stored
// transition when the buffer is at capacity.
func (b *Buffer) Add(t timestep.Transition) error {
	if t.State.Len() != b.featureSize || t.NextState.Len() != b.featureSize {
		return fmt.Errorf("add: invalid state size \n\twant(%v)\n\thave(%v)",
			b.featureSize, t.State.Len())
	}

	start := b.next * b.featureSize
	for j := 0; j < b.featureSize; j++ {
		b.states[start+j] = t.State.AtVec(j)
		b.nextStates[start+j] = t.NextState.AtVec(j)
	}
	b.actions[b.next] = t.Action
	b.rewards[b.next] = t.Reward
	b.dones[b.next] = t.Done

	b.next = (b.next + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
	return nil
}

// Sample draws a batch of BatchSize() distinct transitions uniformly
// at random from the buffer. Sampling a buffer holding fewer
// transitions than the batch size is an error reported by
// IsInsufficientData.
func (b *Buffer) Sample() (timestep.Batch, error) {
	if b.size == 0 {
		return timestep.Batch{}, &Error{Op: "sample", Err: errEmpty}
	}
	if b.size < b.batchSize {
		return timestep.Batch{}, &Error{Op: "sample", Err: errInsufficientData}
	}

	indices := b.choose()

	batch := timestep.NewBatch(b.batchSize, b.featureSize)
	for i, index := range indices {
		batchStart := i * b.featureSize
		expStart := index * b.featureSize
		copy(batch.States[batchStart:batchStart+b.featureSize],
			b.states[expStart:expStart+b.featureSize])
		copy(batch.NextStates[batchStart:batchStart+b.featureSize],
			b.nextStates[expStart:expStart+b.featureSize])

		batch.Actions[i] = b.actions[index]
		batch.Rewards[i] = b.rewards[index]
		batch.Dones[i] = b.dones[index]
	}

	return batch, nil
}

// choose selects batchSize distinct indices uniformly at random by a
// partial Fisher-Yates shuffle over the stored transitions.
func (b *Buffer) choose() []int {
	indices := make([]int, b.size)
	for i := range indices {
		indices[i] = i
	}

	for i := 0; i < b.batchSize; i++ {
		j := i + b.rng.Intn(b.size-i)
		indices[i], indices[j] = indices[j], indices[i]
	}
	return indices[:b.batchSize]
}

// Size returns the current number of transitions in the buffer
func (b *Buffer) Size() int {
	return b.size
}

// Capacity returns the maximum number of transitions the buffer stores
func (b *Buffer) Capacity() int {
	return b.capacity
}

// BatchSize returns the number of transitions returned by Sample()
func (b *Buffer) BatchSize() int {
	return b.batchSize
}

// String returns the string representation of the buffer
func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer | Size: %v  |  Capacity: %v  |  Batch "+
		"Size: %v", b.size, b.capacity, b.batchSize)
}
