package bench

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwcarlsen/smc/tree"
)

func mode(fn Func) []float64 {
	x := make([]float64, fn.Dim())
	switch f := fn.(type) {
	case Gaussian:
		copy(x, f.Mu)
	case Rosenbrock:
		for i := range x {
			x[i] = 1
		}
	case Styblinski:
		for i := range x {
			x[i] = -2.903534
		}
	}
	return x
}

func TestModes(t *testing.T) {
	for _, fn := range AllFuncs {
		x := mode(fn)
		best := fn.LogDensity(x)
		for i := range x {
			for _, d := range []float64{-0.1, 0.1} {
				y := append([]float64{}, x...)
				y[i] += d
				if v := fn.LogDensity(y); v > best {
					t.Errorf("[FAIL:%v] point %v beats mode: %v > %v", fn.Name(), y, v, best)
				}
			}
		}
	}
}

func TestGaussianNormalized(t *testing.T) {
	fn := Gaussian{Mu: []float64{0}, Sigma: []float64{1}}
	assert.InDelta(t, -0.5*math.Log(2*math.Pi), fn.LogDensity([]float64{0}), 1e-12)

	// trapezoid rule on [-10, 10]
	tot, h := 0.0, 0.01
	for x := -10.0; x < 10; x += h {
		tot += h * math.Exp(fn.LogDensity([]float64{x}))
	}
	assert.InDelta(t, 1, tot, 1e-3)
}

func TestParticleAdapter(t *testing.T) {
	fn, err := ByName("Rosenbrock_2D")
	require.NoError(t, err)
	f := Particle(fn)
	assert.Equal(t, 0.0, f(tree.Particle{{1, 1}}))
	assert.True(t, math.IsInf(f(tree.Particle{{1}}), -1))

	assert.True(t, math.IsInf(Styblinski{NDim: 1}.LogDensity([]float64{6}), -1))

	_, err = ByName("nope")
	assert.Error(t, err)
}
