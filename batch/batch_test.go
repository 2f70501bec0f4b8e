package batch

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwcarlsen/smc/rng"
	"github.com/rwcarlsen/smc/tree"
)

// jitter adds a key-dependent uniform offset to every value.
func jitter(key rng.Key, x tree.Particle) (tree.Particle, interface{}, error) {
	y := x.Clone()
	u := key.Uniform(1)[0]
	for _, row := range y {
		for j := range row {
			row[j] += u
		}
	}
	return y, u, nil
}

func testTree(t *testing.T, n int) tree.Tree {
	a := make([]float64, n)
	rows := make([][]float64, n)
	for i := range a {
		a[i] = float64(i)
		rows[i] = []float64{float64(i), -float64(i)}
	}
	la, err := tree.Scalars(a)
	require.NoError(t, err)
	lb, err := tree.FromRows(rows)
	require.NoError(t, err)
	return tree.Dict{"a": la, "b": lb}
}

func TestParallelMatchesSerial(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "smc")
	defer teardown()

	n := 64
	particles := testTree(t, n)
	keys := rng.NewKey(11).Split(n)

	serial, sinfo, err := Updater(Serial{}, jitter).Update(keys, particles)
	require.NoError(t, err)
	par, pinfo, err := Updater(Parallel{MaxGoroutines: 4}, jitter).Update(keys, particles)
	require.NoError(t, err)

	assert.Equal(t, sinfo, pinfo)
	sp, err := tree.Particles(serial)
	require.NoError(t, err)
	pp, err := tree.Particles(par)
	require.NoError(t, err)
	assert.Equal(t, sp, pp)
	assert.True(t, tree.SameStructure(particles, par))

	f := func(x tree.Particle) float64 { return x.Flat()[0] }
	sw, err := Weigher(Serial{}, f).LogWeights(par)
	require.NoError(t, err)
	pw, err := Weigher(Parallel{}, f).LogWeights(par)
	require.NoError(t, err)
	assert.Equal(t, sw, pw)

	tw, err := Tempered(nil, f, 0.5).LogWeights(particles)
	require.NoError(t, err)
	for i := range tw {
		assert.InDelta(t, 0.5*float64(i), tw[i], 1e-12)
	}
}

func TestKernelErrorPropagates(t *testing.T) {
	bad := errors.New("bad particle")
	k := func(key rng.Key, x tree.Particle) (tree.Particle, interface{}, error) {
		if x[0][0] == 3 {
			return nil, nil, bad
		}
		return x, nil, nil
	}
	particles := testTree(t, 8)
	for _, ev := range []Evaler{Serial{}, Parallel{MaxGoroutines: 2}} {
		_, _, err := Updater(ev, k).Update(rng.NewKey(1).Split(8), particles)
		if !errors.Is(err, bad) {
			t.Errorf("[FAIL:%T] expected kernel error, got %v", ev, err)
		}
	}
}

func TestUpdaterKeyCount(t *testing.T) {
	_, _, err := Updater(nil, jitter).Update(rng.NewKey(1).Split(3), testTree(t, 4))
	var shape *tree.ShapeMismatchError
	assert.ErrorAs(t, err, &shape)
}
