// Package workload provides built-in reference expressions for exercising
// and validating the sampling engine: a no-op faster than the clock tick,
// busy spins, sleeps, and allocating expressions with known costs.
package workload

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/steveyegge/nanobench/internal/clock"
	"github.com/steveyegge/nanobench/internal/engine"
)

// Workload pairs a benchmarkable with its registry identity.
type Workload struct {
	Name        string
	Description string
	Bench       engine.Benchmarkable
}

// registry holds the built-in workloads by name.
var registry = map[string]Workload{}

func register(name, description string, bench engine.Benchmarkable) {
	registry[name] = Workload{Name: name, Description: description, Bench: bench}
}

func init() {
	x := 0
	register("noop", "constant return, faster than the clock tick",
		engine.For(func() int { return x }))

	register("spin-10us", "busy loop pinned to ~10µs of CPU",
		engine.For(func() int64 { return spin(10 * time.Microsecond) }))

	register("sleep-1ms", "1ms timer sleep",
		engine.For(func() bool { time.Sleep(time.Millisecond); return true }))

	register("alloc-4k", "single 4KiB heap allocation",
		engine.For(func() []byte { return make([]byte, 4096) }))

	register("hash-1k", "FNV-1a over a 1KiB buffer",
		newHashWorkload(1024))
}

// spin burns CPU until d has elapsed on the monotonic clock, returning
// the iteration count so the loop cannot be eliminated.
func spin(d time.Duration) int64 {
	deadline := clock.Now() + d.Nanoseconds()
	var n int64
	for clock.Now() < deadline {
		n++
	}
	return n
}

// newHashWorkload hashes a buffer prepared once in setup, keeping the
// hot path allocation-free.
func newHashWorkload(size int) engine.Benchmarkable {
	var buf []byte
	return engine.ForParts(
		func() error {
			buf = make([]byte, size)
			for i := range buf {
				buf[i] = byte(i)
			}
			return nil
		},
		func() uint64 {
			h := fnv.New64a()
			_, _ = h.Write(buf)
			return h.Sum64()
		},
		nil,
	)
}

// Lookup returns the named workload.
func Lookup(name string) (Workload, error) {
	w, ok := registry[name]
	if !ok {
		return Workload{}, fmt.Errorf("unknown workload %q (see 'nb run --list')", name)
	}
	return w, nil
}

// All returns the built-in workloads sorted by name.
func All() []Workload {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Workload, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}
