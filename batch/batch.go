// Package batch turns per-particle kernels and log-densities into the batched
// Updater and Weigher capabilities consumed by smc.Step.  An Evaler decides
// how the per-particle work is scheduled: serially or on a bounded pool of
// goroutines.  Either way particle i only ever writes output slot i, so both
// strategies produce identical results.
package batch

import (
	"fmt"
	"runtime"

	"github.com/npillmayer/schuko/tracing"
	"github.com/sourcegraph/conc/pool"

	"github.com/rwcarlsen/smc/rng"
	"github.com/rwcarlsen/smc/tree"
)

func tracer() tracing.Trace {
	return tracing.Select("smc")
}

type Evaler interface {
	// Eval calls fn(i) once for every i in [0, n) and returns the first error
	// encountered.  fn must only touch state owned by index i.
	Eval(n int, fn func(i int) error) error
}

// Serial evaluates particles one after the other in index order.
type Serial struct{}

func (Serial) Eval(n int, fn func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

// Parallel evaluates particles concurrently on at most MaxGoroutines
// goroutines.  If MaxGoroutines <= 0, GOMAXPROCS is used.
type Parallel struct {
	MaxGoroutines int
}

func (ev Parallel) Eval(n int, fn func(i int) error) error {
	limit := ev.MaxGoroutines
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	p := pool.New().WithErrors().WithFirstError().WithMaxGoroutines(limit)
	for i := 0; i < n; i++ {
		i := i
		p.Go(func() error { return fn(i) })
	}
	return p.Wait()
}

// Kernel moves a single particle using only the randomness of key.  info is
// an arbitrary per-particle record (e.g. whether a proposal was accepted).
type Kernel func(key rng.Key, x tree.Particle) (y tree.Particle, info interface{}, err error)

// LogDensity evaluates a single particle.
type LogDensity func(x tree.Particle) float64

// KernelUpdater applies a Kernel to every particle.  Its update info is a
// []interface{} holding each particle's kernel info.
type KernelUpdater struct {
	Kernel Kernel
	Evaler Evaler
}

// Updater creates a KernelUpdater.  A nil ev evaluates serially.
func Updater(ev Evaler, k Kernel) *KernelUpdater {
	if ev == nil {
		ev = Serial{}
	}
	return &KernelUpdater{Kernel: k, Evaler: ev}
}

func (u *KernelUpdater) Update(keys []rng.Key, particles tree.Tree) (tree.Tree, interface{}, error) {
	ps, err := tree.Particles(particles)
	if err != nil {
		return nil, nil, err
	}
	if len(keys) != len(ps) {
		return nil, nil, &tree.ShapeMismatchError{What: "update keys", Want: len(ps), Got: len(keys)}
	}

	out := make([]tree.Particle, len(ps))
	infos := make([]interface{}, len(ps))
	err = u.Evaler.Eval(len(ps), func(i int) error {
		y, info, err := u.Kernel(keys[i], ps[i])
		if err != nil {
			return fmt.Errorf("particle %v: %w", i, err)
		}
		out[i], infos[i] = y, info
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

// DensityWeigher evaluates a LogDensity on every particle, optionally
// tempered by Beta (log-weight = Beta * f(x)).
type DensityWeigher struct {
	LogDensity LogDensity
	Beta       float64
	Evaler     Evaler
}

// Weigher creates a DensityWeigher with Beta = 1.  A nil ev evaluates serially.
func Weigher(ev Evaler, f LogDensity) *DensityWeigher {
	return Tempered(ev, f, 1)
}

// Tempered creates a DensityWeigher returning beta * f(x) for each particle.
func Tempered(ev Evaler, f LogDensity, beta float64) *DensityWeigher {
	if ev == nil {
		ev = Serial{}
	}
	return &DensityWeigher{LogDensity: f, Beta: beta, Evaler: ev}
}

func (w *DensityWeigher) LogWeights(particles tree.Tree) ([]float64, error) {
	ps, err := tree.Particles(particles)
	if err != nil {
		return nil, err
	}
	lw := make([]float64, len(ps))
	err = w.Evaler.Eval(len(ps), func(i int) error {
		lw[i] = w.Beta * w.LogDensity(ps[i])
		return nil
	})
	if err != nil {
		return nil, err
	}
	tracer().Debugf("batch: weighed %v particles", len(ps))
	return lw, nil
}
