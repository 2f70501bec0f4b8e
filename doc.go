/*
Package smc implements the generic transition of a Sequential Monte Carlo
sampler.  A State is a weighted population of particles approximating some
target distribution.  Step resamples ancestors according to the current
weights, moves them with an injected Markov kernel (Updater), reweights the
result with an injected potential (Weigher) and normalizes the new weights in
log space.  The returned Info carries the ancestor indices and the estimate of
the log ratio of normalizing constants between successive targets.

In Feynman-Kac terms, with M the update, G the potential and R the resampler:

	idx     = R(weights)
	x_t     = x_{t-1}[idx]
	x_{t+1} = M(x_t)
	weights = G(x_{t+1})

Concrete resamplers, kernels and batching strategies live in the resample,
rwm, wastefree and batch sub-packages; Step never picks one for the caller.
For background on waste-free SMC see:

	Dau, H.D. and Chopin, N. "Waste-free Sequential Monte Carlo", Journal of
	the Royal Statistical Society Series B, 84(1), 2022.
*/
package smc

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'smc'
func tracer() tracing.Trace {
	return tracing.Select("smc")
}
