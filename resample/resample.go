// Package resample provides resampling schemes satisfying smc.Resampler.
// Each scheme draws n indices in [0, len(weights)) with expected counts
// proportional to the weights; they differ in the variance of those counts.
//
// For a comparison of the schemes see:
//
//	Douc, R., Cappé, O. and Moulines, E. "Comparison of resampling schemes
//	for particle filtering", ISPA 2005, pp. 64-69.
package resample

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/rwcarlsen/smc"
	"github.com/rwcarlsen/smc/rng"
)

// ErrBadWeights is returned (wrapped) for empty, negative, non-finite or
// all-zero weights.
var ErrBadWeights = errors.New("resample: invalid weights")

var (
	_ smc.Resampler = Multinomial{}
	_ smc.Resampler = Systematic{}
	_ smc.Resampler = Stratified{}
	_ smc.Resampler = Residual{}
)

// ByName maps the names accepted by Lookup to schemes.
var ByName = map[string]smc.Resampler{
	"multinomial": Multinomial{},
	"systematic":  Systematic{},
	"stratified":  Stratified{},
	"residual":    Residual{},
}

// Lookup returns the scheme registered under name.
func Lookup(name string) (smc.Resampler, error) {
	s, ok := ByName[name]
	if !ok {
		return nil, fmt.Errorf("resample: unknown scheme %q", name)
	}
	return s, nil
}

// normalized validates weights and returns them scaled to sum to one.
func normalized(weights []float64, n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("resample: negative sample count %v", n)
	} else if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrBadWeights)
	}
	tot := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %v is %v", ErrBadWeights, i, w)
		}
		tot += w
	}
	if tot == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrBadWeights)
	}
	w := append([]float64{}, weights...)
	floats.Scale(1/tot, w)
	return w, nil
}

// inverse maps sorted positions in [0, 1) to indices through the cumulative
// distribution of w.
func inverse(w, positions []float64) []int {
	cdf := floats.CumSum(make([]float64, len(w)), w)
	idx := make([]int, len(positions))
	j := 0
	for i, u := range positions {
		for j < len(cdf)-1 && cdf[j] <= u {
			j++
		}
		idx[i] = j
	}
	return idx
}

// Multinomial draws n independent indices from the categorical distribution
// defined by the weights.
type Multinomial struct{}

func (Multinomial) Resample(key rng.Key, weights []float64, n int) ([]int, error) {
	w, err := normalized(weights, n)
	if err != nil {
		return nil, err
	}
	return multinomial(key, w, n), nil
}

func multinomial(key rng.Key, w []float64, n int) []int {
	s := sampleuv.NewWeighted(w, key.Source())
	idx := make([]int, n)
	for i := range idx {
		// Take samples without replacement; restore the weight to draw with
		// replacement.
		j, _ := s.Take()
		s.Reweight(j, w[j])
		idx[i] = j
	}
	return idx
}

// Systematic uses a single uniform offset shared by n evenly spaced
// positions.
type Systematic struct{}

func (Systematic) Resample(key rng.Key, weights []float64, n int) ([]int, error) {
	w, err := normalized(weights, n)
	if err != nil {
		return nil, err
	}
	u := key.Uniform(1)[0]
	positions := make([]float64, n)
	for i := range positions {
		positions[i] = (float64(i) + u) / float64(n)
	}
	return inverse(w, positions), nil
}

// Stratified draws one uniform position inside each of n equal strata.
type Stratified struct{}

func (Stratified) Resample(key rng.Key, weights []float64, n int) ([]int, error) {
	w, err := normalized(weights, n)
	if err != nil {
		return nil, err
	}
	positions := key.Uniform(n)
	for i := range positions {
		positions[i] = (float64(i) + positions[i]) / float64(n)
	}
	return inverse(w, positions), nil
}

// Residual copies particle i floor(n*w_i) times and fills the remaining slots
// by multinomial sampling on the residual weights.
type Residual struct{}

func (Residual) Resample(key rng.Key, weights []float64, n int) ([]int, error) {
	w, err := normalized(weights, n)
	if err != nil {
		return nil, err
	}

	idx := make([]int, 0, n)
	resid := make([]float64, len(w))
	for i, wi := range w {
		copies := math.Floor(float64(n) * wi)
		resid[i] = float64(n)*wi - copies
		for c := 0; c < int(copies); c++ {
			idx = append(idx, i)
		}
	}
	if len(idx) > n { // rounding
		idx = idx[:n]
	}

	rest := n - len(idx)
	if rest == 0 {
		return idx, nil
	}
	if floats.Sum(resid) <= 0 {
		resid = w
	}
	rs, err := normalized(resid, rest)
	if err != nil {
		return nil, err
	}
	return append(idx, multinomial(key, rs, rest)...), nil
}
