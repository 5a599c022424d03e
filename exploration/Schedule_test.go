package exploration

import (
	"math"
	"testing"
)

func TestExponentialMonotoneNonIncreasing(t *testing.T) {
	schedule, err := NewExponential(0.99, 0.05, 500)
	if err != nil {
		t.Fatal(err)
	}

	prev := math.Inf(1)
	for i := 0; i < 10_000; i++ {
		eps := schedule.Advance()
		if eps > prev {
			t.Fatalf("epsilon increased at step %v: %v -> %v", i, prev, eps)
		}
		if eps < 0.05 {
			t.Fatalf("epsilon fell below the final threshold at step %v: %v",
				i, eps)
		}
		prev = eps
	}

	if diff := schedule.Epsilon() - 0.05; diff > 1e-6 {
		t.Errorf("epsilon did not converge to the final threshold: %v",
			schedule.Epsilon())
	}
}

func TestExponentialFirstStepIsStart(t *testing.T) {
	schedule, err := NewExponential(0.99, 0.05, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if eps := schedule.Advance(); eps != 0.99 {
		t.Errorf("first epsilon should equal start \n\twant(%v)\n\thave(%v)",
			0.99, eps)
	}
}

func TestLinearDecaysAndHolds(t *testing.T) {
	start, end, step := 0.99, 0.05, 0.01
	schedule, err := NewLinear(start, end, step)
	if err != nil {
		t.Fatal(err)
	}

	prev := math.Inf(1)
	for i := 0; i < 200; i++ {
		eps := schedule.Advance()
		if eps > prev {
			t.Fatalf("epsilon increased at step %v: %v -> %v", i, prev, eps)
		}
		if eps < end {
			t.Fatalf("epsilon fell below the final threshold: %v", eps)
		}
		prev = eps
	}

	// (start-end)/step = 94 calls reach the floor; later calls hold
	if schedule.Epsilon() != end {
		t.Errorf("epsilon should hold at end \n\twant(%v)\n\thave(%v)", end,
			schedule.Epsilon())
	}
	if eps := schedule.Advance(); eps != end {
		t.Errorf("advancing at the floor should return end, got %v", eps)
	}
}

func TestConfigCreate(t *testing.T) {
	tests := []struct {
		config  Config
		wantErr bool
	}{
		{Config{Type: ExponentialDecay, Start: 0.9, End: 0.1, Decay: 100}, false},
		{Config{Type: LinearDecay, Start: 0.9, End: 0.1, Decay: 0.001}, false},
		{Config{Type: "Cosine", Start: 0.9, End: 0.1, Decay: 100}, true},
		{Config{Type: LinearDecay, Start: 0.1, End: 0.9, Decay: 0.001}, true},
		{Config{Type: ExponentialDecay, Start: 0.9, End: 0.1, Decay: 0}, true},
	}

	for i, test := range tests {
		_, err := test.config.Create()
		if (err != nil) != test.wantErr {
			t.Errorf("test %v: unexpected error state: %v", i, err)
		}
	}
}
