// Package lspi implements least-squares policy iteration over radial
// basis features. Each learn call builds the regularized LSTDQ normal
// equations for its batch and replaces the weight vector wholesale
// with the closed-form solution, so there is no gradient machinery
// and no target network.
//
// This agent is experimental: the closed-form solve is sensitive to
// the conditioning of the feature matrix, and small batches over
// near-duplicate states can make the system unsolvable.
package lspi

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/qvalue/qvalue/agent"
	"github.com/qvalue/qvalue/basis"
	"github.com/qvalue/qvalue/environment"
	"github.com/qvalue/qvalue/summary"
	"github.com/qvalue/qvalue/timestep"
)

// DistanceTag is the summary tag of the Euclidean distance between
// consecutive weight solutions.
const DistanceTag string = "Distance"

// Diagonal regularizer seeding the normal-equation matrix
const regularizer float64 = 0.1

// Bandwidth of the radial basis functions
const rbfWidth float64 = 1.0

func init() {
	agent.RegisterOffline(agent.LSPI,
		func(env environment.Environment, c agent.OfflineConfig,
			seed uint64) (agent.OfflineAgent, error) {
			return NewOffline(env, c, seed)
		})
}

// LSPI learns a linear action-value function over radial basis
// features.
type LSPI struct {
	basis   *basis.RadialBasis
	weights *mat.VecDense
	gamma   float64

	summaryInterval int
	batchesDone     int
	summary         summary.Writer

	eval bool
}

// NewOffline returns an offline LSPI agent for env. The
// configuration's NumHeads field sets the number of radial basis
// functions per action; the LearningRate field is unused since the
// weights are solved in closed form.
func NewOffline(env environment.Environment, c agent.OfflineConfig,
	seed uint64) (agent.OfflineAgent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("lspi: %v", err)
	}

	obsSpec := env.ObservationSpec()
	rbf, err := basis.NewRadialBasis(c.NumHeads,
		environment.NumActions(env), obsSpec.LowerBound, obsSpec.UpperBound,
		rbfWidth)
	if err != nil {
		return nil, fmt.Errorf("lspi: %v", err)
	}

	return New(rbf, c.Gamma, c.SummaryCheckpoint, seed)
}

// New returns a new LSPI agent over the given basis, with weights
// drawn uniformly from (-1, 1]. Gamma may be 0, which reduces the
// solve to one-step reward regression.
func New(b *basis.RadialBasis, gamma float64, summaryInterval int,
	seed uint64) (*LSPI, error) {
	if b == nil {
		return nil, fmt.Errorf("lspi: no basis given")
	}
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("lspi: gamma must be in [0, 1] \n\thave(%v)",
			gamma)
	}
	if summaryInterval < 1 {
		return nil, fmt.Errorf("lspi: summary interval must be positive "+
			"\n\thave(%v)", summaryInterval)
	}
	log.Printf("lspi: experimental agent, solves may fail on poorly " +
		"conditioned batches")

	rng := rand.New(rand.NewSource(seed))
	weights := mat.NewVecDense(b.Size(), nil)
	for i := 0; i < weights.Len(); i++ {
		weights.SetVec(i, 1.0-2.0*rng.Float64())
	}

	return &LSPI{
		basis:           b,
		weights:         weights,
		gamma:           gamma,
		summaryInterval: summaryInterval,
	}, nil
}

// Name returns the agent's name, used to key checkpoints and
// summaries
func (l *LSPI) Name() string {
	return string(agent.LSPI)
}

// NormalEquations builds the regularized LSTDQ system (A, b) for a
// batch with the current weights:
//
//	A = 0.1*I + sum_i phi_i (phi_i - gamma*phi'_i)^T
//	b = sum_i phi_i * r_i
//
// where phi_i is the feature vector of transition i's state and
// action and phi'_i is the feature vector of its next state under the
// greedy action. Terminal transitions contribute phi'_i = 0. The
// greedy action is computed from the transition's state.
func (l *LSPI) NormalEquations(b timestep.Batch) (*mat.Dense, *mat.VecDense,
	error) {
	n := l.basis.Size()
	A := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		A.Set(i, i, regularizer)
	}
	bVec := mat.NewVecDense(n, nil)

	diff := mat.NewVecDense(n, nil)
	for i := 0; i < b.Size; i++ {
		phi, err := l.basis.Features(b.State(i), b.Actions[i])
		if err != nil {
			return nil, nil, fmt.Errorf("normalequations: %v", err)
		}

		phiNext := mat.NewVecDense(n, nil)
		if !b.Dones[i] {
			best, err := l.bestAction(b.State(i))
			if err != nil {
				return nil, nil, fmt.Errorf("normalequations: %v", err)
			}
			phiNext, err = l.basis.Features(b.NextState(i), best)
			if err != nil {
				return nil, nil, fmt.Errorf("normalequations: %v", err)
			}
		}

		diff.AddScaledVec(phi, -l.gamma, phiNext)
		A.RankOne(A, 1.0, phi, diff)
		bVec.AddScaledVec(bVec, b.Rewards[i], phi)
	}

	return A, bVec, nil
}

// LearnBatch solves the normal equations of a batch and replaces the
// weight vector wholesale with the solution. A failed solve surfaces
// a SolveError and leaves the weights untouched.
func (l *LSPI) LearnBatch(b timestep.Batch) error {
	if b.Size < 1 {
		return fmt.Errorf("learnbatch: empty batch")
	}

	A, bVec, err := l.NormalEquations(b)
	if err != nil {
		return fmt.Errorf("learnbatch: %v", err)
	}

	var solved mat.VecDense
	if err := solved.SolveVec(A, bVec); err != nil {
		return &SolveError{Err: err}
	}

	var diff mat.VecDense
	diff.SubVec(&solved, l.weights)
	distance := mat.Norm(&diff, 2)

	l.weights = &solved
	l.batchesDone++

	if l.summary != nil && l.batchesDone%l.summaryInterval == 0 {
		l.summary.AddScalar(DistanceTag, l.batchesDone, distance)
	}
	return nil
}

// Weights returns the agent's current weight vector
func (l *LSPI) Weights() mat.Vector {
	return l.weights
}

// SelectAction selects the greedy action under the current weights
func (l *LSPI) SelectAction(t timestep.TimeStep) *mat.VecDense {
	best, err := l.bestAction(t.Observation)
	if err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	return mat.NewVecDense(1, []float64{float64(best)})
}

// bestAction returns the action maximizing the linear action value of
// state. Ties resolve to the lowest action index.
func (l *LSPI) bestAction(state mat.Vector) (int, error) {
	best, bestValue := 0, 0.0
	for a := 0; a < l.basis.NumActions(); a++ {
		phi, err := l.basis.Features(state, a)
		if err != nil {
			return 0, err
		}
		value := mat.Dot(l.weights, phi)
		if a == 0 || value > bestValue {
			best, bestValue = a, value
		}
	}
	return best, nil
}

// SetSummary sets the Writer that learn-time scalars are reported to.
// A nil Writer disables reporting.
func (l *LSPI) SetSummary(w summary.Writer) {
	l.summary = w
}

// Save persists the weight vector for an epoch under dir
func (l *LSPI) Save(dir string, epoch int) error {
	modelDir := filepath.Join(dir, "models", l.Name())
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return fmt.Errorf("save: could not create model directory: %v", err)
	}

	path := filepath.Join(modelDir, fmt.Sprintf("%v.bin", epoch))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint: %v", err)
	}
	defer file.Close()

	weights := make([]float64, l.weights.Len())
	for i := range weights {
		weights[i] = l.weights.AtVec(i)
	}
	if err := gob.NewEncoder(file).Encode(weights); err != nil {
		return fmt.Errorf("save: could not encode weights: %v", err)
	}
	return nil
}

// Eval sets the agent to evaluation mode
func (l *LSPI) Eval() {
	l.eval = true
}

// Train sets the agent to training mode
func (l *LSPI) Train() {
	l.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (l *LSPI) IsEval() bool {
	return l.eval
}
