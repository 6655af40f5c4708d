package engine

import (
	"fmt"
	"runtime"

	"github.com/steveyegge/nanobench/internal/clock"
	"github.com/steveyegge/nanobench/internal/store"
)

// Benchmarkable is the callable the engine drives. One invocation performs
// any setup once, then nSamples outer iterations of nEvals back-to-back
// evaluations of the user expression, appending one row per sample to s,
// then any teardown once.
//
// Implementations must keep the hot path free of allocations beyond those
// of the expression itself, and must call the expression through a
// non-inlinable barrier so the compiler cannot hoist or eliminate work
// around the instrumentation. Use For or ForParts unless you have a reason
// to hand-write the loop.
type Benchmarkable func(s *store.Samples, nSamples, nEvals int) error

// For wraps a result-producing expression into a Benchmarkable with no
// setup or teardown. The expression's result is consumed by an opaque sink
// so dead-code elimination cannot remove the work.
func For[T any](core func() T) Benchmarkable {
	return ForParts(nil, core, nil)
}

// ForParts wraps an expression together with optional setup and teardown.
// Setup runs once before the first sample; teardown runs once after the
// last, even when a sample fails to record. A setup error aborts the
// invocation before any row is appended.
//
// The core closure is copied into a concretely typed local before the
// loop, so every call in the timing region dispatches monomorphically.
func ForParts[T any](setup func() error, core func() T, teardown func() error) Benchmarkable {
	return func(s *store.Samples, nSamples, nEvals int) (err error) {
		if setup != nil {
			if serr := setup(); serr != nil {
				return fmt.Errorf("benchmark setup failed: %w", serr)
			}
		}
		if teardown != nil {
			defer func() {
				if terr := teardown(); terr != nil && err == nil {
					err = fmt.Errorf("benchmark teardown failed: %w", terr)
				}
			}()
		}

		f := core
		var m0, m1 runtime.MemStats

		for i := 0; i < nSamples; i++ {
			runtime.ReadMemStats(&m0)
			t0 := clock.Now()
			for j := 0; j < nEvals; j++ {
				sink(call(f))
			}
			t1 := clock.Now()
			runtime.ReadMemStats(&m1)

			elapsed := float64(t1 - t0)
			if elapsed < 0 {
				elapsed = 0
			}
			// PauseTotalNs counts stop-the-world time; a pause that began
			// before the sample can make the delta exceed the window.
			gc := float64(m1.PauseTotalNs - m0.PauseTotalNs)
			if gc > elapsed {
				gc = elapsed
			}

			if aerr := s.Append(float64(nEvals), elapsed, gc,
				m1.TotalAlloc-m0.TotalAlloc, m1.Mallocs-m0.Mallocs); aerr != nil {
				return aerr
			}
		}
		return nil
	}
}

// call is the function-call barrier around the user expression. Marked
// non-inlinable so the expression cannot be folded into the timing loop.
//
//go:noinline
func call[T any](f func() T) T {
	return f()
}

// sink consumes an evaluation result. Because it is opaque to the inliner
// the compiler must materialize its argument, which defeats dead-code
// elimination of the expression.
//
//go:noinline
func sink[T any](v T) {
	_ = v
}
