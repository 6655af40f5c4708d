package nanobench

import (
	"testing"
	"time"
)

func TestBenchTrivial(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full-budget benchmark in short mode")
	}

	res, err := Bench(func() int { return 1 + 1 })
	if err != nil {
		t.Fatalf("Bench failed: %v", err)
	}

	sum, err := res.Summarize()
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.Elapsed < 0 {
		t.Errorf("per-evaluation time %v < 0", sum.Elapsed)
	}
	if !res.SearchPerformed {
		t.Error("expected the search path for a trivial expression")
	}
}

func TestExecuteWithCustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Samples = 10
	cfg.Budget = time.Second

	res, err := Execute(For(func() bool {
		time.Sleep(time.Millisecond)
		return true
	}), cfg)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Samples.Len() < 1 {
		t.Error("no samples recorded")
	}
	if res.TimeUsed > 2*time.Second {
		t.Errorf("TimeUsed = %v, want about a second", res.TimeUsed)
	}
}

func TestForPartsWiring(t *testing.T) {
	var ready bool
	bench := ForParts(
		func() error { ready = true; return nil },
		func() bool { return ready },
		nil,
	)

	cfg := DefaultConfig()
	cfg.Samples = 2
	cfg.Budget = time.Second

	if _, err := Execute(bench, cfg); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !ready {
		t.Error("setup did not run")
	}
}
