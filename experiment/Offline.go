package experiment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/dataset"
	"github.com/qvalue/qvalue/summary"
	"github.com/qvalue/qvalue/utils/progressbar"
)

// Width of the printed epoch progress bars
const barWidth int = 40

// Offline trains an offline agent on a recorded dataset for a fixed
// number of epochs. Each epoch feeds every complete batch of the
// dataset to the agent in a fresh shuffled order, then checkpoints the
// agent and flushes the accumulated scalar summaries under the run
// directory.
type Offline struct {
	agent agent.OfflineAgent
	data  *dataset.Dataset

	epochs  int
	runDir  string
	tracker *summary.Tracker

	showProgress bool
}

// NewOffline creates and returns a new offline experiment training a
// on data for epochs epochs, writing checkpoints and summaries under
// runDir. When showProgress is set, per-epoch progress bars are
// printed to standard output.
func NewOffline(a agent.OfflineAgent, data *dataset.Dataset, epochs int,
	runDir string, showProgress bool) (*Offline, error) {
	if epochs < 1 {
		return nil, fmt.Errorf("offline: epochs must be positive "+
			"\n\thave(%v)", epochs)
	}
	if data.NumBatches() < 1 {
		return nil, fmt.Errorf("offline: dataset holds no complete batch "+
			"of %v transitions", data.BatchSize())
	}

	tracker := summary.NewTracker()
	a.SetSummary(tracker)

	return &Offline{
		agent:        a,
		data:         data,
		epochs:       epochs,
		runDir:       runDir,
		tracker:      tracker,
		showProgress: showProgress,
	}, nil
}

// Run trains the agent to its epoch budget
func (o *Offline) Run() error {
	for epoch := 1; epoch <= o.epochs; epoch++ {
		if err := o.RunEpoch(epoch); err != nil {
			return err
		}
	}
	return nil
}

// RunEpoch runs one full pass over the dataset, then checkpoints the
// agent and flushes the summaries for the epoch.
func (o *Offline) RunEpoch(epoch int) error {
	var bar *progressbar.ProgressBar
	if o.showProgress {
		fmt.Printf("Epoch %v/%v\n", epoch, o.epochs)
		bar = progressbar.New(os.Stdout, barWidth, o.data.NumBatches())
	}

	// Closing done on an early return stops the serving goroutine
	done := make(chan struct{})
	defer close(done)
	for batch := range o.data.Batches(done) {
		if err := o.agent.LearnBatch(batch); err != nil {
			return fmt.Errorf("runepoch: %v", err)
		}
		if bar != nil {
			bar.Increment()
			bar.Display()
		}
	}
	if bar != nil {
		bar.Close()
	}

	if err := o.agent.Save(o.runDir, epoch); err != nil {
		return fmt.Errorf("runepoch: could not checkpoint agent: %v", err)
	}
	if err := o.flushSummaries(); err != nil {
		return fmt.Errorf("runepoch: %v", err)
	}
	return nil
}

// Tracker returns the scalar summaries accumulated so far
func (o *Offline) Tracker() *summary.Tracker {
	return o.tracker
}

func (o *Offline) flushSummaries() error {
	dir := filepath.Join(o.runDir, "summaries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create summary directory: %v", err)
	}
	name := fmt.Sprintf("%v.bin", o.agent.Name())
	return o.tracker.Save(filepath.Join(dir, name))
}
