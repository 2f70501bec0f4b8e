// Package wastefree implements the update of waste-free SMC: M resampled
// ancestors each seed a Markov chain of length N/M, and every state visited
// by every chain becomes a particle of the next population.  Use it together
// with smc.NumResampled(M).
//
//	Dau, H.D. and Chopin, N. "Waste-free Sequential Monte Carlo", Journal of
//	the Royal Statistical Society Series B, 84(1), 2022.
package wastefree

import (
	"fmt"

	"github.com/rwcarlsen/smc/batch"
	"github.com/rwcarlsen/smc/rng"
	"github.com/rwcarlsen/smc/tree"
)

// Updater expands the particles it is given to N particles.
type Updater struct {
	Kernel batch.Kernel
	// N is the population size to produce.  It must be a multiple of the
	// number of resampled particles.
	N      int
	Evaler batch.Evaler
}

// Update runs one chain per ancestor.  Output particle c*L+j is the j-th
// state of the chain started from ancestor c (j = 0 is the ancestor itself),
// where L = N/M is the chain length.  The returned info is a []interface{}
// of length M whose entries are the []interface{} kernel infos of each chain.
func (u Updater) Update(keys []rng.Key, particles tree.Tree) (tree.Tree, interface{}, error) {
	ancestors, err := tree.Particles(particles)
	if err != nil {
		return nil, nil, err
	}
	m := len(ancestors)
	if len(keys) != m {
		return nil, nil, &tree.ShapeMismatchError{What: "update keys", Want: m, Got: len(keys)}
	} else if u.N < m || u.N%m != 0 {
		return nil, nil, fmt.Errorf("wastefree: population size %v is not a multiple of %v resampled particles", u.N, m)
	}
	length := u.N / m

	ev := u.Evaler
	if ev == nil {
		ev = batch.Serial{}
	}

	out := make([]tree.Particle, u.N)
	infos := make([]interface{}, m)
	err = ev.Eval(m, func(c int) error {
		x := ancestors[c]
		out[c*length] = x
		chain := make([]interface{}, 0, length-1)
		for j, sub := range keys[c].Split(length - 1) {
			y, info, err := u.Kernel(sub, x)
			if err != nil {
				return fmt.Errorf("chain %v: %w", c, err)
			}
			out[c*length+j+1] = y
			chain = append(chain, info)
			x = y
		}
		infos[c] = chain
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	t, err := tree.Assemble(particles, out)
	if err != nil {
		return nil, nil, err
	}
	return t, infos, nil
}
