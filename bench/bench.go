// Package bench provides target log-densities for exercising samplers.  Most
// are built from the test functions for optimization at
// http://en.wikipedia.org/wiki/Test_functions_for_optimization, turned into
// unnormalized densities exp(-f(x)/T).
package bench

import (
	"fmt"
	"math"

	"github.com/rwcarlsen/smc/batch"
	"github.com/rwcarlsen/smc/tree"
)

var AllFuncs = []Func{
	Gaussian{Mu: []float64{0}, Sigma: []float64{1}},
	Gaussian{Mu: []float64{1, -2}, Sigma: []float64{0.5, 2}},
	Rosenbrock{NDim: 2},
	Rosenbrock{NDim: 10},
	Styblinski{NDim: 1},
	Styblinski{NDim: 2},
}

type Func interface {
	// LogDensity returns the unnormalized log-density at x.  Points outside
	// the support return -Inf.
	LogDensity(x []float64) float64
	Dim() int
	Name() string
}

// ByName returns the member of AllFuncs named name.
func ByName(name string) (Func, error) {
	for _, fn := range AllFuncs {
		if fn.Name() == name {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("bench: unknown function %q", name)
}

// Particle adapts fn to a single-leaf particle.  Particles whose flattened
// length differs from fn.Dim() get a density of zero.
func Particle(fn Func) batch.LogDensity {
	return func(x tree.Particle) float64 {
		v := x.Flat()
		if len(v) != fn.Dim() {
			return math.Inf(-1)
		}
		return fn.LogDensity(v)
	}
}

// Gaussian is an axis-aligned normal distribution.  Its log-density is
// normalized, which allows checking evidence estimates against LogZ = 0.
type Gaussian struct {
	Mu    []float64
	Sigma []float64
}

func (fn Gaussian) Name() string { return fmt.Sprintf("Gaussian_%vD", len(fn.Mu)) }

func (fn Gaussian) Dim() int { return len(fn.Mu) }

func (fn Gaussian) LogDensity(x []float64) float64 {
	tot := 0.0
	for i, v := range x {
		z := (v - fn.Mu[i]) / fn.Sigma[i]
		tot += -0.5*z*z - math.Log(fn.Sigma[i]) - 0.5*math.Log(2*math.Pi)
	}
	return tot
}

// Rosenbrock is the banana shaped density exp(-f(x)/20) for the Rosenbrock
// function f.  Its mode is at (1, 1, ..., 1).
type Rosenbrock struct {
	NDim int
}

func (fn Rosenbrock) Name() string { return fmt.Sprintf("Rosenbrock_%vD", fn.NDim) }

func (fn Rosenbrock) Dim() int { return fn.NDim }

func (fn Rosenbrock) LogDensity(x []float64) float64 {
	tot := 0.0
	for i := 0; i < fn.NDim-1; i++ {
		tot += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(x[i]-1, 2)
	}
	return -tot / 20
}

// Styblinski is the multimodal density exp(-f(x)/10) for the Styblinski-Tang
// function f restricted to the box [-5, 5]^NDim.  Its global mode is at
// x_i = -2.903534.
type Styblinski struct {
	NDim int
}

func (fn Styblinski) Name() string { return fmt.Sprintf("Styblinski_%vD", fn.NDim) }

func (fn Styblinski) Dim() int { return fn.NDim }

func (fn Styblinski) LogDensity(x []float64) float64 {
	if !InsideBounds(x, -5, 5) {
		return math.Inf(-1)
	}

	tot := 0.0
	for _, v := range x {
		tot += math.Pow(v, 4) - 16*math.Pow(v, 2) + 5*v
	}
	return -tot / 2 / 10
}

func InsideBounds(p []float64, low, up float64) bool {
	for i := range p {
		if p[i] < low || p[i] > up {
			return false
		}
	}
	return true
}
