package chain

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/qvalue/qvalue/environment"
)

func action(a int) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(a)})
}

// TestChainEpisode walks to the right end of a 5-state chain and
// checks termination and the goal reward.
func TestChainEpisode(t *testing.T) {
	env, first, err := New(5, 50)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	if !first.First() {
		t.Error("starting timestep is not first")
	}
	if first.Observation.AtVec(2) != 1.0 {
		t.Error("did not start in the middle of the chain")
	}

	step, done := env.Step(action(1))
	if done || step.Reward != 0 {
		t.Errorf("mid-chain step ended the episode or paid reward "+
			"\n\thave(%v, %v)", done, step.Reward)
	}
	step, done = env.Step(action(1))
	if !done || step.Reward != 1.0 {
		t.Errorf("goal step did not terminate with reward 1 "+
			"\n\thave(%v, %v)", done, step.Reward)
	}
}

// TestChainSpecs ensures the declared observation and action
// cardinalities match what the agents derive from them.
func TestChainSpecs(t *testing.T) {
	env, _, err := New(7, 50)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}

	if environment.Features(env) != 7 {
		t.Errorf("wrong feature count \n\twant(7)\n\thave(%v)",
			environment.Features(env))
	}
	if environment.NumActions(env) != 2 {
		t.Errorf("wrong action count \n\twant(2)\n\thave(%v)",
			environment.NumActions(env))
	}
}

// TestChainStepLimit ensures episodes end at the step limit even away
// from the chain's ends.
func TestChainStepLimit(t *testing.T) {
	env, _, err := New(9, 3)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}

	var done bool
	for i, a := range []int{0, 1, 0} {
		if _, done = env.Step(action(a)); done && i < 2 {
			t.Fatalf("episode ended early at step %v", i)
		}
	}
	if !done {
		t.Error("episode did not end at the step limit")
	}
}
