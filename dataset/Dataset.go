// Package dataset provides recorded transitions to the offline
// agents. A Dataset holds a fixed collection of transitions, persists
// to disk with gob, and serves complete batches in a freshly shuffled
// order each epoch. Batches are assembled on a background goroutine
// and prefetched through a buffered channel so that batch assembly
// overlaps the consumer's learning; the channel is intended for a
// single consumer.
package dataset

import (
	"encoding/gob"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"github.com/qvalue/qvalue/timestep"
	"github.com/qvalue/qvalue/utils/intutils"
)

// Number of assembled batches buffered ahead of the consumer
const prefetch int = 4

// record is the gob-persisted form of a transition
type record struct {
	State     []float64
	Action    int
	Reward    float64
	Done      bool
	NextState []float64
}

// Dataset is a fixed collection of transitions served in shuffled
// complete batches.
type Dataset struct {
	records   []record
	features  int
	batchSize int
	rng       *rand.Rand
}

// New returns a new empty Dataset of transitions with features state
// features, serving batches of batchSize.
func New(features, batchSize int, seed uint64) (*Dataset, error) {
	if features < 1 {
		return nil, fmt.Errorf("dataset: features must be positive "+
			"\n\thave(%v)", features)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("dataset: batch size must be positive "+
			"\n\thave(%v)", batchSize)
	}

	return &Dataset{
		features:  features,
		batchSize: batchSize,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Add appends a transition to the dataset
func (d *Dataset) Add(t timestep.Transition) error {
	if t.State.Len() != d.features || t.NextState.Len() != d.features {
		return fmt.Errorf("add: invalid state size \n\twant(%v)\n\thave(%v)",
			d.features, t.State.Len())
	}

	r := record{
		State:     make([]float64, d.features),
		Action:    t.Action,
		Reward:    t.Reward,
		Done:      t.Done,
		NextState: make([]float64, d.features),
	}
	for i := 0; i < d.features; i++ {
		r.State[i] = t.State.AtVec(i)
		r.NextState[i] = t.NextState.AtVec(i)
	}
	d.records = append(d.records, r)

	return nil
}

// Len returns the number of transitions in the dataset
func (d *Dataset) Len() int {
	return len(d.records)
}

// BatchSize returns the number of transitions per served batch
func (d *Dataset) BatchSize() int {
	return d.batchSize
}

// NumBatches returns the number of complete batches served per epoch.
// Transitions beyond the last complete batch of an epoch are left out
// of that epoch.
func (d *Dataset) NumBatches() int {
	return len(d.records) / d.batchSize
}

// Batches serves the complete batches of one epoch in a fresh
// shuffled order. The returned channel closes after the last batch of
// the epoch. Closing done stops the serving goroutine early, for
// consumers that abandon an epoch before draining it; a nil done never
// stops serving.
func (d *Dataset) Batches(done <-chan struct{}) <-chan timestep.Batch {
	perm := d.rng.Perm(len(d.records))
	numBatches := d.NumBatches()

	batches := make(chan timestep.Batch, intutils.Min(prefetch, numBatches))
	go func() {
		defer close(batches)
		for i := 0; i < numBatches; i++ {
			batch := timestep.NewBatch(d.batchSize, d.features)
			for j := 0; j < d.batchSize; j++ {
				r := d.records[perm[i*d.batchSize+j]]
				copy(batch.States[j*d.features:], r.State)
				copy(batch.NextStates[j*d.features:], r.NextState)
				batch.Actions[j] = r.Action
				batch.Rewards[j] = r.Reward
				batch.Dones[j] = r.Done
			}
			select {
			case batches <- batch:
			case <-done:
				return
			}
		}
	}()

	return batches
}

// Save persists the dataset's transitions to a file
func (d *Dataset) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(d.features); err != nil {
		return fmt.Errorf("save: could not encode features: %v", err)
	}
	if err := enc.Encode(d.records); err != nil {
		return fmt.Errorf("save: could not encode transitions: %v", err)
	}
	return nil
}

// Load reads a dataset previously persisted with Save, serving
// batches of batchSize in orders drawn from seed.
func Load(filename string, batchSize int, seed uint64) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not open file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var features int
	if err := dec.Decode(&features); err != nil {
		return nil, fmt.Errorf("load: could not decode features: %v", err)
	}

	d, err := New(features, batchSize, seed)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	if err := dec.Decode(&d.records); err != nil {
		return nil, fmt.Errorf("load: could not decode transitions: %v", err)
	}
	return d, nil
}
