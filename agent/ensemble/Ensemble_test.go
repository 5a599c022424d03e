package ensemble

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/agent/qnet"
	"github.com/qvalue/qvalue/environment/chain"
	"github.com/qvalue/qvalue/timestep"
)

const testSeed uint64 = 87234

func testConfig(numHeads int) agent.OfflineConfig {
	return agent.OfflineConfig{
		SummaryCheckpoint:    10,
		TargetUpdateInterval: 5,
		Gamma:                0.99,
		LearningRate:         0.001,
		NumHeads:             numHeads,
		BatchSize:            8,
	}
}

// TestSampleMixtureIsConvex ensures the random head combinations are
// valid convex weights: nonnegative and summing to 1.
func TestSampleMixtureIsConvex(t *testing.T) {
	uniform := distuv.Uniform{Min: 0.0, Max: 1.0,
		Src: rand.NewSource(testSeed)}

	for trial := 0; trial < 100; trial++ {
		alphas := sampleMixture(uniform, 4)

		sum := 0.0
		for k, alpha := range alphas {
			if alpha < 0 {
				t.Fatalf("trial %v: weight %v is negative \n\thave(%v)",
					trial, k, alpha)
			}
			sum += alpha
		}
		if math.Abs(sum-1.0) > 1e-12 {
			t.Fatalf("trial %v: weights sum to %v", trial, sum)
		}
	}
}

// TestDeriveMeanMasksAllHeadsOnTerminal ensures a terminal transition
// zeroes the bootstrap of every head at once, so each head regresses
// its taken-action value on the reward alone.
func TestDeriveMeanMasksAllHeadsOnTerminal(t *testing.T) {
	const numHeads, numActions, batchSize = 3, 2, 8

	env, _, err := chain.New(4, 50)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	a, err := NewOffline(env, testConfig(numHeads), testSeed, Mean)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	offline := a.(*qnet.Offline)
	defer offline.Close()
	learner := offline.Learner()

	batch := timestep.NewBatch(batchSize, 4)
	for i := 0; i < batchSize; i++ {
		batch.States[i*4+i%4] = 1.0
		batch.NextStates[i*4+(i+1)%4] = 1.0
		batch.Actions[i] = i % numActions
		batch.Rewards[i] = 1.0
		batch.Dones[i] = true
	}

	preds, err := learner.EvalForward(batch.States)
	if err != nil {
		t.Fatalf("could not run inference network: %v", err)
	}
	grads, loss, _, err := deriveMean(learner, batch, 0.99, numHeads,
		numActions)
	if err != nil {
		t.Fatalf("could not compute update: %v", err)
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		t.Fatalf("loss is not finite \n\thave(%v)", loss)
	}

	outputs := numHeads * numActions
	norm := float64(batchSize * numHeads)
	for i := 0; i < batchSize; i++ {
		for k := 0; k < numHeads; k++ {
			idx := i*outputs + k*numActions + batch.Actions[i]
			diff := preds[idx] - batch.Rewards[i]

			want := diff
			if math.Abs(diff) >= 1.0 {
				want = math.Copysign(1.0, diff)
			}
			want /= norm

			if math.Abs(grads[idx]-want) > 1e-12 {
				t.Errorf("transition %v head %v: wrong derivative "+
					"\n\twant(%v)\n\thave(%v)", i, k, want, grads[idx])
			}

			other := i*outputs + k*numActions + (1 - batch.Actions[i])
			if grads[other] != 0 {
				t.Errorf("transition %v head %v: untaken action has "+
					"derivative %v", i, k, grads[other])
			}
		}
	}
}

// TestDeriveRandomDistributesWeights ensures the random-mixture
// update scales each head's derivative by its combination weight.
func TestDeriveRandomDistributesWeights(t *testing.T) {
	const numHeads, numActions, batchSize = 4, 2, 8

	env, _, err := chain.New(4, 50)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	a, err := NewOffline(env, testConfig(numHeads), testSeed, Random)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	offline := a.(*qnet.Offline)
	defer offline.Close()
	learner := offline.Learner()

	batch := timestep.NewBatch(batchSize, 4)
	for i := 0; i < batchSize; i++ {
		batch.States[i*4+i%4] = 1.0
		batch.NextStates[i*4+(i+1)%4] = 1.0
		batch.Actions[i] = i % numActions
		batch.Rewards[i] = 0.5
		batch.Dones[i] = true
	}

	alphas := []float64{0.4, 0.3, 0.2, 0.1}
	grads, _, _, err := deriveRandom(learner, batch, 0.99, alphas,
		numActions)
	if err != nil {
		t.Fatalf("could not compute update: %v", err)
	}

	outputs := numHeads * numActions
	for i := 0; i < batchSize; i++ {
		base := grads[i*outputs+batch.Actions[i]] / alphas[0]
		for k := 1; k < numHeads; k++ {
			idx := i*outputs + k*numActions + batch.Actions[i]
			if math.Abs(grads[idx]-alphas[k]*base) > 1e-12 {
				t.Errorf("transition %v head %v: derivative not scaled "+
					"by its weight", i, k)
			}
		}
	}
}
