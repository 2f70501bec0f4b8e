package smc

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/rwcarlsen/smc/rng"
	"github.com/rwcarlsen/smc/tree"
)

// ErrStructureChanged is returned by Step when the Updater returns a particle
// tree whose nesting or leaf shapes differ from its input.
var ErrStructureChanged = errors.New("smc: updater changed the particle tree structure")

type options struct {
	numResampled int
	resampledSet bool
}

type Option func(*options)

// NumResampled sets the number of ancestors M drawn by the resampler.  By
// default M equals the population size N.  With M < N the Updater is
// responsible for expanding the M resampled particles back out to N
// descendants (waste-free SMC); Step does not enforce that.  M > N
// oversamples the population with replacement and yields M particles.
func NumResampled(m int) Option {
	return func(o *options) {
		o.numResampled = m
		o.resampledSet = true
	}
}

// Step performs one SMC transition from state.  key is split into an update
// stream and a resampling stream; the same key, state and injected functions
// always produce the same result.
//
// Errors returned by up, w or rs are passed through unmodified.  A state whose
// weights disagree with its particle count, a resampler
// returning the wrong number of indices and a weigher returning the wrong
// number of log-weights fail with a *ShapeMismatchError; an updater changing
// the particle tree's structure fails with ErrStructureChanged.  Weight
// degeneracy and non-finite log-weights are not corrected.
func Step(key rng.Key, state State, up Updater, w Weigher, rs Resampler, opts ...Option) (State, Info, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	n, err := tree.LeadingDim(state.Particles)
	if err != nil {
		return State{}, Info{}, err
	}
	if len(state.Weights) != n {
		return State{}, Info{}, &ShapeMismatchError{What: "state weights", Want: n, Got: len(state.Weights)}
	}

	updKey, rsKey := key.Split2()

	m := n
	if o.resampledSet {
		m = o.numResampled
	}
	if m < 1 {
		return State{}, Info{}, fmt.Errorf("smc: invalid number of resampled particles %v", m)
	}

	idx, err := rs.Resample(rsKey, state.Weights, m)
	if err != nil {
		tracer().Errorf("smc: resampling failed: %v", err)
		return State{}, Info{}, err
	}
	if len(idx) != m {
		return State{}, Info{}, &ShapeMismatchError{What: "resampled indices", Want: m, Got: len(idx)}
	}
	ancestors, err := tree.Gather(state.Particles, idx)
	if err != nil {
		return State{}, Info{}, err
	}

	particles, updateInfo, err := up.Update(updKey.Split(m), ancestors)
	if err != nil {
		tracer().Errorf("smc: update failed: %v", err)
		return State{}, Info{}, err
	}
	if !tree.SameStructure(ancestors, particles) {
		return State{}, Info{}, ErrStructureChanged
	}
	p, err := tree.LeadingDim(particles)
	if err != nil {
		return State{}, Info{}, err
	}

	logWeights, err := w.LogWeights(particles)
	if err != nil {
		tracer().Errorf("smc: weighting failed: %v", err)
		return State{}, Info{}, err
	}
	if len(logWeights) != p {
		return State{}, Info{}, &ShapeMismatchError{What: "log-weights", Want: p, Got: len(logWeights)}
	}

	// The increment is normalized by the prior population size n, not by m.
	logsum := floats.LogSumExp(logWeights)
	increment := logsum - math.Log(float64(n))
	weights := make([]float64, p)
	for i, lw := range logWeights {
		weights[i] = math.Exp(lw - logsum)
	}
	if math.IsInf(logsum, 0) || math.IsNaN(logsum) {
		tracer().Debugf("smc: non-finite log normalizer %v over %v particles", logsum, p)
	}

	tracer().Debugf("smc: step n=%v m=%v p=%v increment=%v", n, m, p, increment)
	return State{Particles: particles, Weights: weights}, Info{
		Ancestors:              idx,
		LogLikelihoodIncrement: increment,
		UpdateInfo:             updateInfo,
	}, nil
}
