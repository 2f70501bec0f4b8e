// Command smcstep runs a single SMC transition from a standard normal prior
// population towards one of the bench targets and prints the step's
// diagnostics.  The move leaves the prior invariant and the particles are
// reweighted by target/prior, so the log-likelihood increment estimates the
// log normalizing constant of the target.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/rwcarlsen/smc"
	"github.com/rwcarlsen/smc/batch"
	"github.com/rwcarlsen/smc/bench"
	"github.com/rwcarlsen/smc/pop"
	"github.com/rwcarlsen/smc/resample"
	"github.com/rwcarlsen/smc/rng"
	"github.com/rwcarlsen/smc/rwm"
	"github.com/rwcarlsen/smc/tree"
	"github.com/rwcarlsen/smc/wastefree"
)

var (
	target    = flag.String("target", "Gaussian_2D", "name of the bench target density")
	npart     = flag.Int("n", 1000, "number of particles")
	nresample = flag.Int("m", 0, "number of resampled particles (0 = n, < n = waste-free)")
	seed      = flag.Uint64("seed", 1, "pseudo-random seed")
	scheme    = flag.String("resampler", "systematic", "resampling scheme (multinomial|systematic|stratified|residual)")
	workers   = flag.Int("workers", 0, "goroutines for particle evaluation (0 = serial)")
	steps     = flag.Int("steps", 5, "random-walk Metropolis moves per particle")
	scale     = flag.Float64("scale", rwm.DefaultScale, "random-walk proposal standard deviation")
	verbose   = flag.Bool("v", false, "trace step bookkeeping")
	list      = flag.Bool("list", false, "list the available targets and exit")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	if *list {
		for _, fn := range bench.AllFuncs {
			fmt.Println(fn.Name())
		}
		return
	}
	setupTracing(*verbose)

	if err := run(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

// setupTracing routes the "smc" tracer to a Go logger on stderr, at debug
// level if verbose.
func setupTracing(verbose bool) {
	tracing.SetTraceSelector(tracing.SelectorForAdapter(gologadapter.GetAdapter()))
	if verbose {
		tracing.Select("smc").SetTraceLevel(tracing.LevelDebug)
	}
}

func run() error {
	fn, err := bench.ByName(*target)
	if err != nil {
		return err
	}
	rs, err := resample.Lookup(*scheme)
	if err != nil {
		return err
	}

	var ev batch.Evaler = batch.Serial{}
	if *workers > 0 {
		ev = batch.Parallel{MaxGoroutines: *workers}
	}

	key := rng.NewKey(*seed)
	initKey, stepKey := key.Split2()

	ndim := fn.Dim()
	leaf, err := pop.StdNormal(initKey, *npart, ndim)
	if err != nil {
		return err
	}
	state, err := smc.Init(leaf)
	if err != nil {
		return err
	}

	prior := bench.Gaussian{Mu: make([]float64, ndim), Sigma: ones(ndim)}
	priorCache := batch.NewCache(bench.Particle(prior))
	priorDensity := priorCache.LogDensity
	targetDensity := bench.Particle(fn)
	w := batch.Weigher(ev, func(x tree.Particle) float64 {
		return targetDensity(x) - priorDensity(x)
	})

	var up smc.Updater = rwm.Updater{LogDensity: priorDensity, Scale: *scale, Steps: *steps, Evaler: ev}
	var opts []smc.Option
	if *nresample > 0 {
		opts = append(opts, smc.NumResampled(*nresample))
		if *nresample < *npart {
			up = wastefree.Updater{Kernel: rwm.Kernel(priorDensity, *scale), N: *npart, Evaler: ev}
		}
	}

	next, info, err := smc.Step(stepKey, state, up, w, rs, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("target:                   %v\n", fn.Name())
	fmt.Printf("particles:                %v -> %v (%v resampled)\n", state.Len(), next.Len(), len(info.Ancestors))
	fmt.Printf("log-likelihood increment: %v\n", info.LogLikelihoodIncrement)
	fmt.Printf("effective sample size:    %.1f\n", smc.ESS(next.Weights))
	if ri, ok := info.UpdateInfo.(rwm.Info); ok {
		fmt.Printf("acceptance rate:          %.3f\n", ri.AcceptanceRate)
	}
	fmt.Printf("weighted mean:            %v\n", weightedMean(next))
	fmt.Printf("prior density cache:      %v hits, %v misses\n", priorCache.Hits, priorCache.Misses)
	return nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func weightedMean(s smc.State) []float64 {
	leaf := tree.Leaves(s.Particles)[0]
	mean := make([]float64, leaf.Width())
	for i, w := range s.Weights {
		for j := range mean {
			mean[j] += w * leaf.At(i, j)
		}
	}
	return mean
}
