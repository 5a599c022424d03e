package agent

import (
	"fmt"
	"sort"

	"github.com/qvalue/qvalue/environment"
)

// Type identifies a registered agent variant
type Type string

// Registered agent types
const (
	DQN         Type = "DQN"
	DoubleDQN   Type = "DoubleDQN"
	EnsembleDQN Type = "EnsembleDQN"
	REMDQN      Type = "REMDQN"
	QRDQN       Type = "QRDQN"
	LSPI        Type = "LSPI"
)

// OfflineConfig is the shared configuration surface of the offline
// agents. Every field is required: zero values are rejected by
// Validate and no defaults are substituted, so run configurations
// must be explicit.
type OfflineConfig struct {
	// SummaryCheckpoint is the number of learn steps between scalar
	// summary reports
	SummaryCheckpoint int

	// TargetUpdateInterval is the number of learn steps between
	// target-network synchronizations
	TargetUpdateInterval int

	// Gamma is the discount applied to the bootstrap term
	Gamma float64

	// LearningRate is the solver step size
	LearningRate float64

	// NumHeads is the number of value predictions per action: ensemble
	// members for the ensemble agents, quantiles for QR-DQN, radial
	// basis functions for LSPI. Plain DQN variants require NumHeads=1.
	NumHeads int

	// BatchSize is the number of transitions per learn step
	BatchSize int
}

// Validate returns an error describing whether or not the
// configuration is valid.
func (c OfflineConfig) Validate() error {
	if c.SummaryCheckpoint <= 0 {
		return fmt.Errorf("validate: summary checkpoint must be positive "+
			"\n\thave(%v)", c.SummaryCheckpoint)
	}
	if c.TargetUpdateInterval <= 0 {
		return fmt.Errorf("validate: target update interval must be "+
			"positive \n\thave(%v)", c.TargetUpdateInterval)
	}
	if c.Gamma <= 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in (0, 1] \n\thave(%v)",
			c.Gamma)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("validate: learning rate must be positive "+
			"\n\thave(%v)", c.LearningRate)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("validate: num heads must be positive \n\thave(%v)",
			c.NumHeads)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be positive "+
			"\n\thave(%v)", c.BatchSize)
	}
	return nil
}

// An OfflineConstructor creates a registered offline agent variant
// for an environment.
type OfflineConstructor func(env environment.Environment, c OfflineConfig,
	seed uint64) (OfflineAgent, error)

var offlineRegistry = map[Type]OfflineConstructor{}

// RegisterOffline registers an offline agent constructor under a
// Type. Packages implementing agent variants call RegisterOffline
// from an init function; registering the same Type twice panics.
func RegisterOffline(t Type, f OfflineConstructor) {
	if _, ok := offlineRegistry[t]; ok {
		panic(fmt.Sprintf("registeroffline: type %v already registered", t))
	}
	offlineRegistry[t] = f
}

// CreateOffline creates the registered offline agent variant of the
// given Type.
func CreateOffline(t Type, env environment.Environment, c OfflineConfig,
	seed uint64) (OfflineAgent, error) {
	f, ok := offlineRegistry[t]
	if !ok {
		return nil, fmt.Errorf("createoffline: no registered agent type %v "+
			"(have %v)", t, RegisteredOffline())
	}
	return f(env, c, seed)
}

// RegisteredOffline returns the sorted Types with registered offline
// constructors.
func RegisteredOffline() []Type {
	types := make([]Type, 0, len(offlineRegistry))
	for t := range offlineRegistry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
