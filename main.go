package main

import (
	"fmt"
	"log"

	"golang.org/x/exp/rand"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/agent/dqn"
	_ "github.com/qvalue/qvalue/agent/ensemble"
	_ "github.com/qvalue/qvalue/agent/lspi"
	_ "github.com/qvalue/qvalue/agent/qrdqn"
	"github.com/qvalue/qvalue/dataset"
	"github.com/qvalue/qvalue/environment/chain"
	"github.com/qvalue/qvalue/experiment"
	"github.com/qvalue/qvalue/exploration"
	"github.com/qvalue/qvalue/initwfn"
	"github.com/qvalue/qvalue/network"
	"github.com/qvalue/qvalue/solver"
	"github.com/qvalue/qvalue/timestep"
)

func main() {
	var seed uint64 = 192382

	// Online DQN on the chain walk
	env, _, err := chain.New(7, 50)
	if err != nil {
		log.Fatal(err)
	}

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		log.Fatal(err)
	}
	sol, err := solver.NewDefaultAdam(0.001, 32)
	if err != nil {
		log.Fatal(err)
	}

	config := dqn.Config{
		HiddenSizes: []int{32, 32},
		Biases:      []bool{true, true},
		Activations: []*network.Activation{network.ReLU(), network.ReLU()},
		InitWFn:     init,
		Solver:      sol,
		Epsilon: exploration.Config{
			Type:  exploration.ExponentialDecay,
			Start: 0.9,
			End:   0.05,
			Decay: 1000,
		},
		Rule:                 dqn.MaxTarget,
		ReplayCapacity:       10_000,
		BatchSize:            32,
		TargetUpdateInterval: 100,
		SummaryCheckpoint:    100,
		Gamma:                0.99,
	}
	q, err := dqn.New(env, config, seed)
	if err != nil {
		log.Fatal(err)
	}
	defer q.Close()

	e := experiment.NewOnline(env, q, 10_000)
	if err := e.Run(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("online: trained for %v steps\n", e.Steps())

	// Record a dataset with a uniform-random behaviour policy, then
	// train an offline agent on it
	data, err := dataset.New(7, 32, seed)
	if err != nil {
		log.Fatal(err)
	}
	rng := rand.New(rand.NewSource(seed))
	err = experiment.Collect(env, 5_000, data.Add,
		func(timestep.TimeStep) int { return rng.Intn(2) })
	if err != nil {
		log.Fatal(err)
	}

	offlineConfig := agent.OfflineConfig{
		SummaryCheckpoint:    25,
		TargetUpdateInterval: 10,
		Gamma:                0.99,
		LearningRate:         0.001,
		NumHeads:             1,
		BatchSize:            32,
	}
	offlineAgent, err := agent.CreateOffline(agent.DoubleDQN, env,
		offlineConfig, seed)
	if err != nil {
		log.Fatal(err)
	}

	run, err := experiment.NewOffline(offlineAgent, data, 3, "./runs/chain",
		true)
	if err != nil {
		log.Fatal(err)
	}
	if err := run.Run(); err != nil {
		log.Fatal(err)
	}

	tracker := run.Tracker()
	for _, tag := range tracker.Tags() {
		points := tracker.Scalar(tag)
		fmt.Printf("%v: %v points, last %.4f\n", tag, len(points),
			points[len(points)-1].Value)
	}
}
