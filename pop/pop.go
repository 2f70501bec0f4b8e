// Package pop generates random initial particle populations.
package pop

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rwcarlsen/smc/rng"
	"github.com/rwcarlsen/smc/tree"
)

// Uniform generates n particles uniformly distributed in the box defined by
// low and up.  The number of dimensions is equal to len(low).  Dimension j of
// every particle is drawn from its own sub-key of key.
func Uniform(key rng.Key, n int, low, up []float64) (*tree.Leaf, error) {
	if len(low) != len(up) {
		return nil, fmt.Errorf("pop: low and up vectors have different lengths %v and %v", len(low), len(up))
	}
	for j := range low {
		if up[j] < low[j] {
			return nil, fmt.Errorf("pop: dimension %v has empty bounds [%v, %v]", j, low[j], up[j])
		}
	}

	return fill(key, n, len(low), func(j int, k rng.Key) func() float64 {
		return distuv.Uniform{Min: low[j], Max: up[j], Src: k.Source()}.Rand
	})
}

// Normal generates n particles with independent normally distributed
// dimensions of mean mu[j] and standard deviation sigma[j].
func Normal(key rng.Key, n int, mu, sigma []float64) (*tree.Leaf, error) {
	if len(mu) != len(sigma) {
		return nil, fmt.Errorf("pop: mu and sigma vectors have different lengths %v and %v", len(mu), len(sigma))
	}
	for j, s := range sigma {
		if s <= 0 {
			return nil, fmt.Errorf("pop: dimension %v has non-positive sigma %v", j, s)
		}
	}

	return fill(key, n, len(mu), func(j int, k rng.Key) func() float64 {
		return distuv.Normal{Mu: mu[j], Sigma: sigma[j], Src: k.Source()}.Rand
	})
}

// StdNormal generates n particles from the ndim-dimensional standard normal.
func StdNormal(key rng.Key, n, ndim int) (*tree.Leaf, error) {
	mu := make([]float64, ndim)
	sigma := make([]float64, ndim)
	for i := range sigma {
		sigma[i] = 1
	}
	return Normal(key, n, mu, sigma)
}

func fill(key rng.Key, n, ndims int, dist func(j int, k rng.Key) func() float64) (*tree.Leaf, error) {
	if ndims == 0 {
		return nil, fmt.Errorf("pop: zero dimensions")
	}
	if n < 1 {
		return nil, fmt.Errorf("pop: need at least one particle, got %v", n)
	}
	m := mat.NewDense(n, ndims, nil)
	for j, k := range key.Split(ndims) {
		draw := dist(j, k)
		for i := 0; i < n; i++ {
			m.Set(i, j, draw())
		}
	}
	return tree.FromDense(m), nil
}
