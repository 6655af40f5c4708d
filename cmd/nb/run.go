package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/nanobench/internal/archive"
	"github.com/steveyegge/nanobench/internal/dashboard"
	"github.com/steveyegge/nanobench/internal/engine"
	"github.com/steveyegge/nanobench/internal/envinfo"
	"github.com/steveyegge/nanobench/internal/report"
	"github.com/steveyegge/nanobench/internal/vcs"
	"github.com/steveyegge/nanobench/internal/workload"
)

var runCmd = &cobra.Command{
	Use:   "run [workload...]",
	Short: "Run built-in benchmark workloads",
	Long: `Run one or more built-in workloads through the adaptive sampling
engine and print a summary per workload.

Workloads serve as engine self-tests and calibration references; library
users wrap their own expressions with the nanobench package instead.

Examples:
  # Measure the trivial expression (forces the geometric search)
  nb run noop

  # Everything, with a tighter budget, archived for later comparison
  nb run --budget 2s --store

  # Export all artifacts (JSON, YAML, CSV, markdown) to a directory
  nb run sleep-1ms --out results/
`,
	RunE: runBenchmarks,
}

func init() {
	runCmd.Flags().Int("samples", 0, "Target number of retained samples (default from config)")
	runCmd.Flags().Duration("budget", 0, "Wall-time budget per workload (default from config)")
	runCmd.Flags().Float64("tau", 0, "R-squared threshold for the geometric search")
	runCmd.Flags().Int("ols-samples", 0, "Samples per geometric-search round")
	runCmd.Flags().Bool("list", false, "List available workloads and exit")
	runCmd.Flags().Bool("store", false, "Archive results to the benchmark database")
	runCmd.Flags().String("out", "", "Directory to export run artifacts into")
	runCmd.Flags().Bool("live", false, "Broadcast progress on the dashboard websocket")
	rootCmd.AddCommand(runCmd)
}

// engineConfig resolves the engine configuration from flags over config
// file over defaults.
func engineConfig(cmd *cobra.Command) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	cfg.Samples = viper.GetInt("samples")
	if v, _ := cmd.Flags().GetInt("samples"); v > 0 {
		cfg.Samples = v
	}

	if d, err := time.ParseDuration(viper.GetString("budget")); err == nil {
		cfg.Budget = d
	}
	if v, _ := cmd.Flags().GetDuration("budget"); v > 0 {
		cfg.Budget = v
	}

	cfg.Tau = viper.GetFloat64("tau")
	if v, _ := cmd.Flags().GetFloat64("tau"); v > 0 {
		cfg.Tau = v
	}

	cfg.Alpha = viper.GetFloat64("alpha")

	cfg.OLSSamples = viper.GetInt("ols_samples")
	if v, _ := cmd.Flags().GetInt("ols-samples"); v > 0 {
		cfg.OLSSamples = v
	}

	cfg.Verbose = viper.GetBool("verbose")
	cfg.Logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)

	if cfg.Samples < 1 {
		return cfg, fmt.Errorf("samples must be >= 1, got %d", cfg.Samples)
	}
	return cfg, nil
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, w := range workload.All() {
			fmt.Printf("%-12s %s\n", w.Name, w.Description)
		}
		return nil
	}

	cfg, err := engineConfig(cmd)
	if err != nil {
		return err
	}

	var targets []workload.Workload
	if len(args) == 0 {
		targets = workload.All()
	} else {
		for _, name := range args {
			w, err := workload.Lookup(name)
			if err != nil {
				return err
			}
			targets = append(targets, w)
		}
	}

	ctx := context.Background()

	env := envinfo.Capture()
	if rev, err := vcs.HeadRevision(ctx, "."); err == nil && rev != "" {
		env.PackageRevision = rev
	}

	var db *archive.Archive
	if doStore, _ := cmd.Flags().GetBool("store"); doStore {
		db, err = archive.Open(viper.GetString("archive_path"))
		if err != nil {
			return err
		}
		defer db.Close()
	}

	var live *dashboard.Server
	if doLive, _ := cmd.Flags().GetBool("live"); doLive {
		live = dashboard.NewServer(&dashboard.Config{Port: viper.GetInt("dashboard_port")})
		if err := live.Start(); err != nil {
			return err
		}
		defer func() { _ = live.Stop() }()
	}

	outDir, _ := cmd.Flags().GetString("out")

	for _, w := range targets {
		if live != nil {
			live.Broadcast(dashboard.MessageTypeRunStarted, dashboard.RunStartedData{
				Name:    w.Name,
				Samples: cfg.Samples,
				Budget:  cfg.Budget.Seconds(),
			})
			name := w.Name
			cfg.OnProgress = func(phase string, samples int, evals float64) {
				live.Broadcast(dashboard.MessageTypePhase, dashboard.PhaseData{
					Name:        name,
					Phase:       phase,
					Samples:     samples,
					Evaluations: evals,
				})
			}
		}

		res, err := engine.Execute(w.Bench, cfg)
		if err != nil {
			return fmt.Errorf("workload %s failed: %w", w.Name, err)
		}
		sum, err := res.Summarize()
		if err != nil {
			return fmt.Errorf("workload %s: %w", w.Name, err)
		}

		report.Print(os.Stdout, w.Name, res, sum)
		fmt.Println()

		if live != nil {
			live.Broadcast(dashboard.MessageTypeRunComplete, dashboard.RunCompleteData{
				Name:            w.Name,
				ElapsedNs:       sum.Elapsed,
				GCPercent:       sum.GCPercent,
				Samples:         sum.N,
				SearchPerformed: res.SearchPerformed,
				RSquared:        sum.R2,
			})
		}

		// Each run gets its own environment row so archived runs stay
		// individually addressable.
		runEnv := env
		runEnv.UUID = envinfo.Capture().UUID
		runEnv.Timestamp = time.Now()

		if db != nil {
			if _, err := db.InsertRun(ctx, w.Name, runEnv, res, sum); err != nil {
				return fmt.Errorf("failed to archive %s: %w", w.Name, err)
			}
		}
		if outDir != "" {
			run := report.NewRun(w.Name, runEnv, res, sum)
			if err := report.ExportAll(filepath.Join(outDir, w.Name), run, res.Samples); err != nil {
				return fmt.Errorf("failed to export %s: %w", w.Name, err)
			}
		}
	}

	return nil
}
