package dataset

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/qvalue/qvalue/timestep"
)

func filledDataset(t *testing.T, n int) *Dataset {
	t.Helper()

	d, err := New(2, 4, 42)
	if err != nil {
		t.Fatalf("could not create dataset: %v", err)
	}
	for i := 0; i < n; i++ {
		tr := timestep.Transition{
			State:     mat.NewVecDense(2, []float64{float64(i), 0}),
			Action:    i % 2,
			Reward:    float64(i),
			Done:      i%5 == 4,
			NextState: mat.NewVecDense(2, []float64{float64(i + 1), 0}),
		}
		if err := d.Add(tr); err != nil {
			t.Fatalf("could not add transition: %v", err)
		}
	}
	return d
}

// TestBatchesServesCompleteBatches ensures an epoch serves exactly
// the complete batches, dropping the remainder, and that every served
// transition appears at most once.
func TestBatchesServesCompleteBatches(t *testing.T) {
	d := filledDataset(t, 10) // 2 complete batches of 4, remainder 2

	if d.NumBatches() != 2 {
		t.Fatalf("wrong number of batches \n\twant(2)\n\thave(%v)",
			d.NumBatches())
	}

	seen := make(map[float64]bool)
	count := 0
	for batch := range d.Batches(nil) {
		if batch.Size != 4 {
			t.Fatalf("incomplete batch of size %v", batch.Size)
		}
		count++
		for i := 0; i < batch.Size; i++ {
			id := batch.State(i).AtVec(0)
			if seen[id] {
				t.Fatalf("transition %v served twice in one epoch", id)
			}
			seen[id] = true
		}
	}
	if count != 2 {
		t.Errorf("wrong number of served batches \n\twant(2)\n\thave(%v)",
			count)
	}
	if len(seen) != 8 {
		t.Errorf("wrong number of served transitions \n\twant(8)"+
			"\n\thave(%v)", len(seen))
	}
}

// TestBatchesReshufflesEpochs ensures consecutive epochs serve the
// data in different orders.
func TestBatchesReshufflesEpochs(t *testing.T) {
	d := filledDataset(t, 64)

	var first, second []float64
	for batch := range d.Batches(nil) {
		for i := 0; i < batch.Size; i++ {
			first = append(first, batch.State(i).AtVec(0))
		}
	}
	for batch := range d.Batches(nil) {
		for i := 0; i < batch.Size; i++ {
			second = append(second, batch.State(i).AtVec(0))
		}
	}

	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("two epochs served the data in the same order")
	}
}

// TestBatchesStopsWhenAbandoned ensures closing done stops epoch
// serving early: the channel closes without serving the full epoch and
// the serving goroutines exit instead of blocking on the abandoned
// channels forever.
func TestBatchesStopsWhenAbandoned(t *testing.T) {
	d := filledDataset(t, 64) // 16 complete batches of 4

	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		done := make(chan struct{})
		batches := d.Batches(done)
		<-batches
		close(done)

		// At most the prefetched batches remain after done closes
		count := 1
		for range batches {
			count++
		}
		if count >= d.NumBatches() {
			t.Fatalf("abandoned epoch served %v of %v batches", count,
				d.NumBatches())
		}
	}

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := runtime.NumGoroutine(); n > before {
		t.Errorf("serving goroutines outlived their abandoned epochs "+
			"\n\twant(<=%v)\n\thave(%v)", before, n)
	}
}

// TestAddRejectsWrongStateSize ensures transitions of the wrong
// feature size are refused.
func TestAddRejectsWrongStateSize(t *testing.T) {
	d, err := New(2, 4, 42)
	if err != nil {
		t.Fatalf("could not create dataset: %v", err)
	}

	tr := timestep.Transition{
		State:     mat.NewVecDense(3, nil),
		NextState: mat.NewVecDense(3, nil),
	}
	if err := d.Add(tr); err == nil {
		t.Error("expected error for wrongly sized state")
	}
}

// TestSaveLoadRoundTrip ensures a persisted dataset restores with the
// same transitions.
func TestSaveLoadRoundTrip(t *testing.T) {
	d := filledDataset(t, 12)

	path := filepath.Join(t.TempDir(), "transitions.bin")
	if err := d.Save(path); err != nil {
		t.Fatalf("could not save dataset: %v", err)
	}

	restored, err := Load(path, 4, 42)
	if err != nil {
		t.Fatalf("could not load dataset: %v", err)
	}
	if restored.Len() != d.Len() {
		t.Fatalf("wrong number of transitions \n\twant(%v)\n\thave(%v)",
			d.Len(), restored.Len())
	}

	total := 0.0
	for batch := range restored.Batches(nil) {
		for i := 0; i < batch.Size; i++ {
			total += batch.Rewards[i]
		}
	}
	// Rewards 0..11 sum to 66 over 3 complete batches
	if total != 66 {
		t.Errorf("wrong reward sum over restored batches \n\twant(66)"+
			"\n\thave(%v)", total)
	}
}
