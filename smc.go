package smc

import (
	"github.com/rwcarlsen/smc/rng"
	"github.com/rwcarlsen/smc/tree"
)

// ShapeMismatchError is returned when particle counts disagree, either
// between the leaves of a particle tree or between what an injected function
// was asked for and what it returned.
type ShapeMismatchError = tree.ShapeMismatchError

// State is a weighted population.  Every leaf of Particles has a leading
// dimension equal to len(Weights), and Weights are non-negative and sum to
// one.  States are values: Step never modifies the State it is given.
type State struct {
	Particles tree.Tree
	Weights   []float64
}

// Len returns the number of particles in the population.
func (s State) Len() int { return len(s.Weights) }

// Info holds the diagnostics of one Step.
type Info struct {
	// Ancestors[i] is the index into the prior population of the particle
	// that was resampled to seed the i-th resampled particle.
	Ancestors []int
	// LogLikelihoodIncrement estimates the log of the ratio of the
	// normalizing constants of the new and the prior targets.
	LogLikelihoodIncrement float64
	// UpdateInfo is whatever the Updater returned, unmodified.
	UpdateInfo interface{}
}

// Updater is a batched Markov kernel.  Update receives one key per particle
// and must return a tree with the same structure as particles.  It returns as
// many particles as keys unless it deliberately expands its input (waste-free
// SMC).  Particle i's update must depend only on keys[i] and particle i.
type Updater interface {
	Update(keys []rng.Key, particles tree.Tree) (tree.Tree, interface{}, error)
}

// Weigher is a batched potential function.  LogWeights returns one
// unnormalized log-weight per particle and has no side effects.
type Weigher interface {
	LogWeights(particles tree.Tree) ([]float64, error)
}

// Resampler draws n ancestor indices in [0, len(weights)) with probabilities
// proportional to weights, repetitions allowed, using only the randomness
// of key.
type Resampler interface {
	Resample(key rng.Key, weights []float64, n int) ([]int, error)
}

type UpdateFunc func(keys []rng.Key, particles tree.Tree) (tree.Tree, interface{}, error)

func (fn UpdateFunc) Update(keys []rng.Key, particles tree.Tree) (tree.Tree, interface{}, error) {
	return fn(keys, particles)
}

type WeightFunc func(particles tree.Tree) ([]float64, error)

func (fn WeightFunc) LogWeights(particles tree.Tree) ([]float64, error) { return fn(particles) }

type ResampleFunc func(key rng.Key, weights []float64, n int) ([]int, error)

func (fn ResampleFunc) Resample(key rng.Key, weights []float64, n int) ([]int, error) {
	return fn(key, weights, n)
}

// Identity is an Updater that returns the particles unchanged.
var Identity = UpdateFunc(func(keys []rng.Key, particles tree.Tree) (tree.Tree, interface{}, error) {
	return particles, nil, nil
})

// Init creates a uniformly weighted population from particles.  The number of
// particles N is the leading dimension of the first leaf in canonical order;
// Init fails with a *ShapeMismatchError if any leaf disagrees.
func Init(particles tree.Tree) (State, error) {
	n, err := tree.LeadingDim(particles)
	if err != nil {
		return State{}, err
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}
	return State{Particles: particles, Weights: weights}, nil
}

// ESS returns the effective sample size 1/sum(w_i^2) of normalized weights.
// Step does not act on it; deciding when to resample is up to the caller.
func ESS(weights []float64) float64 {
	tot := 0.0
	for _, w := range weights {
		tot += w * w
	}
	return 1 / tot
}
