package engine

import (
	"errors"
	"math"
	"time"

	"github.com/steveyegge/nanobench/internal/stats"
	"github.com/steveyegge/nanobench/internal/store"
)

// ErrNoSamples is returned when a Summary is requested from a Results
// holding zero retained samples. Execute never produces such a Results;
// this guards hand-built or deserialized values.
var ErrNoSamples = errors.New("no samples to summarize")

// Results is the immutable outcome of one Execute call. The engine hands
// the sample store over with it; neither is mutated afterwards.
type Results struct {
	// Precompiled is true iff the first, potentially compilation-biased,
	// sample was discarded before any retained sample was recorded.
	Precompiled bool

	// MultipleSamples is true iff more than one retained sample exists.
	MultipleSamples bool

	// SearchPerformed is true iff the geometric-search phase ran, i.e.
	// some sample folds more than one evaluation.
	SearchPerformed bool

	// Samples is the raw observation store, owned by this Results.
	Samples *store.Samples

	// TimeUsed is the end-to-end wall time Execute consumed.
	TimeUsed time.Duration
}

// Summary is the statistical digest of a Results. Elapsed figures are
// nanoseconds per evaluation; absent interval bounds and an absent
// R-squared are nil, never NaN.
type Summary struct {
	// N is the number of retained samples.
	N int

	// Evaluations is the total evaluation count across all samples.
	Evaluations float64

	// Elapsed is the per-evaluation wall time estimate in nanoseconds.
	Elapsed      float64
	ElapsedLower *float64
	ElapsedUpper *float64

	// GCPercent is the estimated share of elapsed time spent in garbage
	// collection, as a percentage. Bounds are clipped to [0, 100].
	GCPercent float64
	GCLower   *float64
	GCUpper   *float64

	// BytesPerEval and AllocsPerEval are per-evaluation allocation
	// estimates taken from the sample with the smallest bytes-per-
	// evaluation ratio; coincidental GC activity only ever biases the
	// allocator counters upward, so the minimizing row is the tightest
	// available bound.
	BytesPerEval  uint64
	AllocsPerEval uint64

	// R2 is the goodness of the least-squares fit, present only when the
	// geometric search ran.
	R2 *float64
}

// sigmas is the CI half-width in standard errors. Successive samples are
// not independent, so the usual ~2-sigma interval would under-cover;
// six compensates for the residual serial correlation.
const sigmas = 6

// Summarize derives the statistical summary for r.
func (r *Results) Summarize() (*Summary, error) {
	n := r.Samples.Len()
	if n == 0 {
		return nil, ErrNoSamples
	}

	evals := r.Samples.Evaluations()
	elapsed := r.Samples.ElapsedTime()
	gc := r.Samples.GCTime()

	sum := &Summary{
		N:           n,
		Evaluations: stats.Sum(evals),
	}
	sum.BytesPerEval, sum.AllocsPerEval = memoryEstimates(r.Samples)

	switch {
	case r.SearchPerformed:
		fit, err := stats.OLS(evals, elapsed)
		if err != nil {
			return nil, err
		}
		sum.Elapsed = fit.Slope
		sum.ElapsedLower = ptr(math.Max(0, fit.Slope-sigmas*fit.SlopeStderr))
		sum.ElapsedUpper = ptr(fit.Slope + sigmas*fit.SlopeStderr)
		sum.R2 = ptr(fit.R2)
		summarizeGC(sum, gc, elapsed)

	case r.MultipleSamples:
		m := stats.Mean(elapsed)
		sem := stats.StdErr(elapsed)
		sum.Elapsed = m
		sum.ElapsedLower = ptr(math.Max(0, m-sigmas*sem))
		sum.ElapsedUpper = ptr(m + sigmas*sem)
		summarizeGC(sum, gc, elapsed)

	default:
		sum.Elapsed = elapsed[0]
		if elapsed[0] > 0 {
			sum.GCPercent = 100 * gc[0] / elapsed[0]
		}
	}

	return sum, nil
}

// summarizeGC fills the GC share estimate from per-sample gc/elapsed
// ratios. The ratio is taken as independent of the evaluation count, so
// the same mean-and-standard-error estimator serves both the direct and
// the search path.
func summarizeGC(sum *Summary, gc, elapsed []float64) {
	ratios := make([]float64, 0, len(gc))
	for i := range gc {
		if elapsed[i] > 0 {
			ratios = append(ratios, gc[i]/elapsed[i])
		}
	}
	if len(ratios) == 0 {
		return
	}

	g := stats.Mean(ratios)
	sem := stats.StdErr(ratios)
	sum.GCPercent = 100 * g
	sum.GCLower = ptr(math.Max(0, 100*(g-sigmas*sem)))
	sum.GCUpper = ptr(math.Min(100, 100*(g+sigmas*sem)))
}

// memoryEstimates picks the sample minimizing bytes per evaluation and
// floors both of its per-evaluation ratios.
func memoryEstimates(s *store.Samples) (bytesPerEval, allocsPerEval uint64) {
	evals := s.Evaluations()
	bytes := s.BytesAllocated()
	allocs := s.Allocations()

	best := 0
	bestRatio := math.Inf(1)
	for i := 0; i < s.Len(); i++ {
		ratio := float64(bytes[i]) / evals[i]
		if ratio < bestRatio {
			bestRatio = ratio
			best = i
		}
	}

	bytesPerEval = uint64(float64(bytes[best]) / evals[best])
	allocsPerEval = uint64(float64(allocs[best]) / evals[best])
	return bytesPerEval, allocsPerEval
}

func ptr(v float64) *float64 {
	return &v
}
