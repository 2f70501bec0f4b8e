// Package rwm implements a Gaussian random-walk Metropolis kernel that can be
// used as the Markov move of an SMC step.
package rwm

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rwcarlsen/smc/batch"
	"github.com/rwcarlsen/smc/rng"
	"github.com/rwcarlsen/smc/tree"
)

// DefaultScale is the proposal standard deviation used when Scale is zero.
const DefaultScale = 0.5

// Kernel returns a single Metropolis move targeting f.  Every value of the
// particle is perturbed by independent N(0, scale^2) noise; the kernel info
// is true if the proposal was accepted.
func Kernel(f batch.LogDensity, scale float64) batch.Kernel {
	if scale == 0 {
		scale = DefaultScale
	}
	return func(key rng.Key, x tree.Particle) (tree.Particle, interface{}, error) {
		src := key.Source()
		noise := distuv.Normal{Mu: 0, Sigma: scale, Src: src}
		unif := distuv.Uniform{Min: 0, Max: 1, Src: src}

		y := x.Clone()
		for _, row := range y {
			for j := range row {
				row[j] += noise.Rand()
			}
		}

		logratio := f(y) - f(x)
		if math.IsNaN(logratio) || math.Log(unif.Rand()) >= logratio {
			return x, false, nil
		}
		return y, true, nil
	}
}

// Chain composes steps moves of k, each using its own sub-key of the
// incoming key.  Its info is the number of accepted moves.
func Chain(k batch.Kernel, steps int) batch.Kernel {
	if steps < 1 {
		steps = 1
	}
	return func(key rng.Key, x tree.Particle) (tree.Particle, interface{}, error) {
		naccept := 0
		for _, sub := range key.Split(steps) {
			y, info, err := k(sub, x)
			if err != nil {
				return nil, nil, err
			}
			if ok, _ := info.(bool); ok {
				naccept++
			}
			x = y
		}
		return x, naccept, nil
	}
}

// Info summarizes a batched update.
type Info struct {
	// Accepted[i] is the number of accepted moves of particle i.
	Accepted []int
	// AcceptanceRate is the fraction of all proposals that were accepted.
	AcceptanceRate float64
}

// Updater runs Steps Metropolis moves targeting LogDensity on every particle.
type Updater struct {
	LogDensity batch.LogDensity
	Scale      float64
	Steps      int

	// Evaler schedules the particles; nil means batch.Serial.
	Evaler batch.Evaler
}

func (u Updater) steps() int {
	if u.Steps < 1 {
		return 1
	}
	return u.Steps
}

func (u Updater) Update(keys []rng.Key, particles tree.Tree) (tree.Tree, interface{}, error) {
	k := Chain(Kernel(u.LogDensity, u.Scale), u.steps())
	out, infos, err := batch.Updater(u.Evaler, k).Update(keys, particles)
	if err != nil {
		return nil, nil, err
	}

	list := infos.([]interface{})
	info := Info{Accepted: make([]int, len(list))}
	tot := 0
	for i, v := range list {
		info.Accepted[i] = v.(int)
		tot += info.Accepted[i]
	}
	if len(list) > 0 {
		info.AcceptanceRate = float64(tot) / float64(len(list)*u.steps())
	}
	return out, info, nil
}
