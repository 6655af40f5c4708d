// Package engine implements the adaptive sampling controller at the heart
// of nanobench.
//
// Execute drives a Benchmarkable through up to five phases: a first,
// possibly compilation-biased call; an affordability check against the
// time budget; an unbiased re-measurement; direct sampling when a single
// evaluation spans enough clock ticks to be trustworthy; and otherwise a
// geometric search that folds exponentially more evaluations into each
// sample until an ordinary least-squares fit of total time against
// evaluation count converges. The resulting Results value carries the raw
// sample store plus the flags the summarizer needs to pick an estimator.
//
// The engine is single-threaded and sequential. The budget is checked
// between benchmarkable invocations only; a running sample is never
// interrupted.
package engine

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/steveyegge/nanobench/internal/clock"
	"github.com/steveyegge/nanobench/internal/stats"
	"github.com/steveyegge/nanobench/internal/store"
)

// Config holds the engine's tunables. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// Samples is the target number of retained samples (default 100).
	Samples int

	// Budget bounds the total wall time Execute may consume (default 10s).
	// The bound is soft: the engine never starts a new benchmarkable
	// invocation once the budget is spent, but it does not interrupt one.
	Budget time.Duration

	// Tau is the R-squared threshold at which the geometric search
	// accepts the least-squares fit (default 0.95). A heuristic carried
	// from long use, not a statistical bound.
	Tau float64

	// Alpha is the geometric growth factor for evaluations per sample in
	// the search phase (default 1.1).
	Alpha float64

	// OLSSamples is the number of samples collected per search round
	// (default 100).
	OLSSamples int

	// DirectFactor is the multiple of the clock resolution a single
	// evaluation must span before direct sampling is trusted (default
	// 1000). Like Tau this is a policy choice, kept configurable.
	DirectFactor float64

	// ProbeTrials is the number of paired clock reads used to estimate
	// clock resolution (default clock.DefaultProbeTrials). A probe that
	// observes no positive interval yields +Inf resolution, in which case
	// the direct-sampling threshold can never be met and the engine
	// always takes the geometric-search path.
	ProbeTrials int

	// Verbose enables per-phase tracing to Logger.
	Verbose bool

	// OnProgress, when non-nil, is called as each phase starts with the
	// phase name, the store's current sample count, and the evaluations
	// planned per sample. Used by the live dashboard; the callback runs
	// between invocations, never inside a timing loop.
	OnProgress func(phase string, samples int, evalsPerSample float64)

	// Logger receives verbose tracing. Defaults to log.Default().
	Logger *log.Logger
}

// DefaultConfig returns the documented engine defaults.
func DefaultConfig() Config {
	return Config{
		Samples:      100,
		Budget:       10 * time.Second,
		Tau:          0.95,
		Alpha:        1.1,
		OLSSamples:   100,
		DirectFactor: 1000,
		ProbeTrials:  clock.DefaultProbeTrials,
	}
}

// Execute runs f under cfg and returns the raw observations.
//
// Errors from the benchmarkable (setup, expression, teardown) abort the
// run with no Results; so does a non-monotonic clock. Budget exhaustion is
// not an error: the caller inspects the Results flags and the fit quality
// to decide whether the outcome converged.
func Execute(f Benchmarkable, cfg Config) (*Results, error) {
	if cfg.Samples < 1 {
		return nil, fmt.Errorf("config: samples must be >= 1, got %d", cfg.Samples)
	}
	if cfg.OLSSamples < 1 {
		return nil, fmt.Errorf("config: ols samples must be >= 1, got %d", cfg.OLSSamples)
	}
	if cfg.Alpha <= 1 {
		return nil, fmt.Errorf("config: alpha must exceed 1, got %v", cfg.Alpha)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	start := clock.Now()
	budget := cfg.Budget.Nanoseconds()
	elapsed := func() int64 { return clock.Now() - start }

	resolution, err := clock.Resolution(cfg.ProbeTrials)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		logger.Printf("clock resolution: %gns", resolution)
	}

	s := store.New()
	finish := func(precompiled, multiple, search bool) *Results {
		return &Results{
			Precompiled:     precompiled,
			MultipleSamples: multiple,
			SearchPerformed: search,
			Samples:         s,
			TimeUsed:        time.Duration(elapsed()),
		}
	}

	progress := func(phase string, evals float64) {
		if cfg.OnProgress != nil {
			cfg.OnProgress(phase, s.Len(), evals)
		}
	}

	// Phase A: first call, possibly biased by one-shot compilation or
	// cache warming.
	progress("first-call", 1)
	if err := f(s, 1, 1); err != nil {
		return nil, err
	}
	biased := s.ElapsedTime()[0]
	if cfg.Verbose {
		logger.Printf("phase A: biased first sample %gns", biased)
	}
	if elapsed() > budget {
		return finish(false, false, false), nil
	}

	// Phase B: can we afford even one more sample at the biased cost?
	if biased > 0 && float64(budget-elapsed())/biased < 1 {
		if cfg.Verbose {
			logger.Printf("phase B: budget cannot afford a second sample")
		}
		return finish(false, false, false), nil
	}

	// Phase C: discard the biased row and re-measure.
	s.Clear()
	progress("debias", 1)
	if err := f(s, 1, 1); err != nil {
		return nil, err
	}
	debiased := s.ElapsedTime()[0]
	if cfg.Verbose {
		logger.Printf("phase C: debiased first sample %gns", debiased)
	}
	if elapsed() > budget || cfg.Samples == 1 {
		return finish(true, false, false), nil
	}

	// Phase D: a single evaluation spanning DirectFactor clock ticks is
	// directly measurable; no folding needed.
	if debiased > cfg.DirectFactor*resolution {
		n := cfg.Samples - 1
		if debiased > 0 {
			if affordable := int(float64(budget-elapsed()) / debiased); affordable < n {
				n = affordable
			}
		}
		if n < 1 {
			// The budget ran out between the phase C check and here;
			// starting another invocation would overrun it.
			return finish(true, false, false), nil
		}
		if cfg.Verbose {
			logger.Printf("phase D: direct sampling, %d samples", n)
		}
		progress("direct", 1)
		if err := f(s, n, 1); err != nil {
			return nil, err
		}
		return finish(true, true, false), nil
	}

	// Phase E: the expression is too fast for the clock; fold evaluations
	// geometrically until the least-squares fit converges or the budget
	// runs out. The loop always runs at least once.
	nEvals := 2.0
	for {
		plan := int(math.Ceil(nEvals))
		if cfg.Verbose {
			logger.Printf("phase E: %d evaluations x %d samples", plan, cfg.OLSSamples)
		}
		progress("search", float64(plan))
		if err := f(s, cfg.OLSSamples, plan); err != nil {
			return nil, err
		}

		fit, err := stats.OLS(s.Evaluations(), s.ElapsedTime())
		if err != nil {
			return nil, fmt.Errorf("least-squares fit failed: %w", err)
		}
		if cfg.Verbose {
			logger.Printf("phase E: r2=%.4f slope=%gns/eval", fit.R2, fit.Slope)
		}
		if fit.R2 > cfg.Tau || elapsed() > budget {
			break
		}

		nEvals *= cfg.Alpha
		// Alpha close to 1 can leave the ceiling unchanged; force strict
		// growth so the fit always gains new abscissae.
		if int(math.Ceil(nEvals)) <= plan {
			nEvals = float64(plan + 1)
		}
	}
	return finish(true, true, true), nil
}
