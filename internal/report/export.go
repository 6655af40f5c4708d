package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/nanobench/internal/engine"
	"github.com/steveyegge/nanobench/internal/envinfo"
	"github.com/steveyegge/nanobench/internal/store"
)

// Run bundles everything worth persisting about one benchmark run.
type Run struct {
	Name        string         `json:"name" yaml:"name"`
	Environment envinfo.Record `json:"environment" yaml:"environment"`
	Flags       Flags          `json:"flags" yaml:"flags"`
	Summary     SummaryData    `json:"summary" yaml:"summary"`
	TimeUsedNs  int64          `json:"time_used_ns" yaml:"time_used_ns"`
}

// Flags mirrors the engine's Results flags for serialization.
type Flags struct {
	Precompiled     bool `json:"precompiled" yaml:"precompiled"`
	MultipleSamples bool `json:"multiple_samples" yaml:"multiple_samples"`
	SearchPerformed bool `json:"search_performed" yaml:"search_performed"`
}

// SummaryData is the serializable form of an engine.Summary. Optional
// fields are pointers so absent bounds serialize as null, never NaN.
type SummaryData struct {
	N             int      `json:"n" yaml:"n"`
	Evaluations   float64  `json:"n_evaluations" yaml:"n_evaluations"`
	ElapsedNs     float64  `json:"elapsed_ns" yaml:"elapsed_ns"`
	ElapsedLower  *float64 `json:"elapsed_lower_ns" yaml:"elapsed_lower_ns"`
	ElapsedUpper  *float64 `json:"elapsed_upper_ns" yaml:"elapsed_upper_ns"`
	GCPercent     float64  `json:"gc_percent" yaml:"gc_percent"`
	GCLower       *float64 `json:"gc_lower" yaml:"gc_lower"`
	GCUpper       *float64 `json:"gc_upper" yaml:"gc_upper"`
	BytesPerEval  uint64   `json:"bytes_per_eval" yaml:"bytes_per_eval"`
	AllocsPerEval uint64   `json:"allocs_per_eval" yaml:"allocs_per_eval"`
	RSquared      *float64 `json:"r_squared" yaml:"r_squared"`
}

// NewRun assembles a serializable Run from engine output.
func NewRun(name string, env envinfo.Record, res *engine.Results, sum *engine.Summary) Run {
	return Run{
		Name:        name,
		Environment: env,
		Flags: Flags{
			Precompiled:     res.Precompiled,
			MultipleSamples: res.MultipleSamples,
			SearchPerformed: res.SearchPerformed,
		},
		Summary: SummaryData{
			N:             sum.N,
			Evaluations:   sum.Evaluations,
			ElapsedNs:     sum.Elapsed,
			ElapsedLower:  sum.ElapsedLower,
			ElapsedUpper:  sum.ElapsedUpper,
			GCPercent:     sum.GCPercent,
			GCLower:       sum.GCLower,
			GCUpper:       sum.GCUpper,
			BytesPerEval:  sum.BytesPerEval,
			AllocsPerEval: sum.AllocsPerEval,
			RSquared:      sum.R2,
		},
		TimeUsedNs: res.TimeUsed.Nanoseconds(),
	}
}

// WriteJSON writes the run as indented JSON.
func (r Run) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteYAML writes the run as YAML.
func (r Run) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}

// ExportAll writes every artifact for a run into dir: run.json, run.yaml,
// samples.csv, env.csv, and REPORT.md.
func ExportAll(dir string, run Run, samples *store.Samples) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := exportFile(filepath.Join(dir, "run.json"), run.WriteJSON); err != nil {
		return err
	}
	if err := exportFile(filepath.Join(dir, "run.yaml"), run.WriteYAML); err != nil {
		return err
	}
	if err := samples.SaveCSV(filepath.Join(dir, "samples.csv"), store.CSVOptions{}); err != nil {
		return err
	}
	if err := run.Environment.SaveCSV(filepath.Join(dir, "env.csv"), envinfo.CSVOptions{}); err != nil {
		return err
	}
	return exportFile(filepath.Join(dir, "REPORT.md"), func(w io.Writer) error {
		return writeMarkdown(w, run)
	})
}

func exportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// writeMarkdown renders a small report with the environment and summary.
func writeMarkdown(w io.Writer, run Run) error {
	fmt.Fprintf(w, "# Benchmark Report: %s\n\n", run.Name)
	fmt.Fprintf(w, "**Generated:** %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(w, "## Environment\n\n")
	fmt.Fprintf(w, "- **OS:** %s\n", run.Environment.OS)
	fmt.Fprintf(w, "- **Architecture:** %s\n", run.Environment.Arch)
	fmt.Fprintf(w, "- **CPUs:** %d\n", run.Environment.CPUCores)
	fmt.Fprintf(w, "- **Runtime:** %s\n", run.Environment.RuntimeRevision)
	if run.Environment.PackageRevision != "" {
		fmt.Fprintf(w, "- **Revision:** %s\n", run.Environment.PackageRevision)
	}
	if run.Environment.Machine != "" {
		fmt.Fprintf(w, "- **Machine:** %s\n", run.Environment.Machine)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "## Results\n\n")
	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Time per evaluation | %s |\n",
		formatInterval(run.Summary.ElapsedNs, run.Summary.ElapsedLower, run.Summary.ElapsedUpper, FormatNanos))
	fmt.Fprintf(w, "| GC share | %s |\n",
		formatInterval(run.Summary.GCPercent, run.Summary.GCLower, run.Summary.GCUpper, formatPercent))
	fmt.Fprintf(w, "| Memory per evaluation | %s |\n", FormatBytes(run.Summary.BytesPerEval))
	fmt.Fprintf(w, "| Allocations per evaluation | %d |\n", run.Summary.AllocsPerEval)
	fmt.Fprintf(w, "| Samples | %d |\n", run.Summary.N)
	fmt.Fprintf(w, "| Total evaluations | %.0f |\n", run.Summary.Evaluations)
	if run.Summary.RSquared != nil {
		fmt.Fprintf(w, "| R² | %.4f |\n", *run.Summary.RSquared)
	}
	fmt.Fprintf(w, "\n---\n\nSee `samples.csv` for raw observations and `run.json` for the complete record.\n")
	return nil
}
