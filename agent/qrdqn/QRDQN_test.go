package qrdqn

import (
	"math"
	"testing"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/agent/qnet"
	"github.com/qvalue/qvalue/environment/chain"
	"github.com/qvalue/qvalue/timestep"
)

const testSeed uint64 = 55121

// TestTaus ensures the quantile levels of a 5-quantile agent are
// 0.2, 0.4, 0.6, 0.8, and 1.0.
func TestTaus(t *testing.T) {
	want := []float64{0.2, 0.4, 0.6, 0.8, 1.0}
	tau := taus(5)

	if len(tau) != len(want) {
		t.Fatalf("wrong number of levels \n\twant(%v)\n\thave(%v)",
			len(want), len(tau))
	}
	for j := range want {
		if math.Abs(tau[j]-want[j]) > 1e-12 {
			t.Errorf("level %v \n\twant(%v)\n\thave(%v)", j, want[j], tau[j])
		}
	}
}

// TestQuantileWeightsInUnitInterval ensures every asymmetric weight
// lies in [0, 1] regardless of the sign of the residuals.
func TestQuantileWeightsInUnitInterval(t *testing.T) {
	tau := taus(5)
	diffs := [][]float64{
		{1.0, 1.0, 1.0, 1.0, 1.0},
		{-1.0, -1.0, -1.0, -1.0, -1.0},
		{-2.5, 0.0, 0.3, -0.1, 7.0},
	}

	for _, d := range diffs {
		weights := quantileWeights(tau, d)
		for j, w := range weights {
			if w < 0 || w > 1 {
				t.Errorf("weight %v out of [0, 1] for diffs %v \n\thave(%v)",
					j, d, w)
			}
		}
	}
}

// TestQuantileWeightsAsymmetry ensures overestimation of quantile j
// is weighted by 1 - tau_j and underestimation by tau_j.
func TestQuantileWeightsAsymmetry(t *testing.T) {
	tau := taus(5)

	over := quantileWeights(tau, []float64{1, 1, 1, 1, 1})
	under := quantileWeights(tau, []float64{-1, -1, -1, -1, -1})
	for j := range tau {
		if math.Abs(over[j]-(1.0-tau[j])) > 1e-12 {
			t.Errorf("overestimation weight %v \n\twant(%v)\n\thave(%v)",
				j, 1.0-tau[j], over[j])
		}
		if math.Abs(under[j]-tau[j]) > 1e-12 {
			t.Errorf("underestimation weight %v \n\twant(%v)\n\thave(%v)",
				j, tau[j], under[j])
		}
	}
}

// TestOfflineQRDQNLearns checks that learning on a small batch keeps
// the loss finite and clamps the applied gradients.
func TestOfflineQRDQNLearns(t *testing.T) {
	env, _, err := chain.New(4, 50)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}

	c := agent.OfflineConfig{
		SummaryCheckpoint:    10,
		TargetUpdateInterval: 5,
		Gamma:                0.99,
		LearningRate:         0.001,
		NumHeads:             5,
		BatchSize:            8,
	}
	a, err := NewOffline(env, c, testSeed)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	offline := a.(*qnet.Offline)
	defer offline.Close()

	batch := timestep.NewBatch(8, 4)
	for i := 0; i < 8; i++ {
		batch.States[i*4+i%4] = 1.0
		batch.NextStates[i*4+(i+1)%4] = 1.0
		batch.Actions[i] = i % 2
		batch.Rewards[i] = float64(i%3) * 0.5
		batch.Dones[i] = i%4 == 3
	}

	_, loss, _, err := derive(offline.Learner(), batch, 0.99, taus(5), 2)
	if err != nil {
		t.Fatalf("could not compute update: %v", err)
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		t.Fatalf("loss is not finite \n\thave(%v)", loss)
	}

	for i := 0; i < 3; i++ {
		if err := offline.LearnBatch(batch); err != nil {
			t.Fatalf("could not learn from batch: %v", err)
		}
		if bound := offline.Learner().GradBound(); bound > qnet.GradMax {
			t.Fatalf("gradient bound exceeds clamp range \n\thave(%v)",
				bound)
		}
	}
}
