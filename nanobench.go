// Package nanobench estimates the per-evaluation cost of Go expressions.
//
// The sampling engine adapts to the expression's speed: slow expressions
// are measured directly, while expressions faster than the clock tick are
// folded (many back-to-back evaluations per sample) and the
// per-evaluation time recovered as the slope of a least-squares fit.
//
// Quick start:
//
//	res, err := nanobench.Bench(func() int { return fib(20) })
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sum, _ := res.Summarize()
//	fmt.Println(sum.Elapsed, "ns/eval")
//
// For setup/teardown or custom budgets, use ForParts and Execute.
package nanobench

import (
	"github.com/steveyegge/nanobench/internal/engine"
)

// Config is the engine configuration. See engine.Config for field
// documentation.
type Config = engine.Config

// Results is the raw outcome of a benchmark run.
type Results = engine.Results

// Summary is the statistical digest of a Results.
type Summary = engine.Summary

// Benchmarkable is the callable contract the engine drives.
type Benchmarkable = engine.Benchmarkable

// DefaultConfig returns the documented engine defaults: 100 samples, a
// 10 second budget, tau 0.95, alpha 1.1, 100 samples per search round.
func DefaultConfig() Config {
	return engine.DefaultConfig()
}

// Bench measures a single expression with the default configuration.
func Bench[T any](core func() T) (*Results, error) {
	return engine.Execute(engine.For(core), engine.DefaultConfig())
}

// Execute runs any benchmarkable under cfg.
func Execute(f Benchmarkable, cfg Config) (*Results, error) {
	return engine.Execute(f, cfg)
}

// For wraps an expression into a Benchmarkable with no setup or teardown.
func For[T any](core func() T) Benchmarkable {
	return engine.For(core)
}

// ForParts wraps an expression with setup and teardown.
func ForParts[T any](setup func() error, core func() T, teardown func() error) Benchmarkable {
	return engine.ForParts(setup, core, teardown)
}
