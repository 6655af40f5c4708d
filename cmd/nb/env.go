package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/nanobench/internal/envinfo"
	"github.com/steveyegge/nanobench/internal/vcs"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the environment record for this host",
	Long: `Capture and print the environment record that accompanies every
benchmark run: host identity, toolchain, and repository revisions.

With --csv the record is written in the archival CSV format.`,
	RunE: runEnv,
}

func init() {
	envCmd.Flags().Bool("csv", false, "Emit the record as CSV")
	envCmd.Flags().String("out", "", "Write to a file instead of stdout")
	envCmd.Flags().Bool("append", false, "Append to the output file")
	envCmd.Flags().Bool("no-header", false, "Suppress the CSV header row")
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	rec := envinfo.Capture()
	if rev, err := vcs.HeadRevision(context.Background(), "."); err == nil && rev != "" {
		rec.PackageRevision = rev
	}

	asCSV, _ := cmd.Flags().GetBool("csv")
	outPath, _ := cmd.Flags().GetString("out")
	appendMode, _ := cmd.Flags().GetBool("append")
	noHeader, _ := cmd.Flags().GetBool("no-header")

	if asCSV || outPath != "" {
		opts := envinfo.CSVOptions{Append: appendMode, OmitHeader: noHeader}
		if outPath != "" {
			return rec.SaveCSV(outPath, opts)
		}
		return rec.WriteCSV(os.Stdout, opts)
	}

	fmt.Printf("UUID:       %s\n", rec.UUID)
	fmt.Printf("Timestamp:  %s\n", rec.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Runtime:    %s\n", rec.RuntimeRevision)
	if rec.PackageRevision != "" {
		fmt.Printf("Revision:   %s\n", rec.PackageRevision)
	}
	fmt.Printf("OS/Arch:    %s/%s\n", rec.OS, rec.Arch)
	fmt.Printf("CPU cores:  %d\n", rec.CPUCores)
	if rec.Machine != "" {
		fmt.Printf("Machine:    %s\n", rec.Machine)
	}
	fmt.Printf("Word size:  %d\n", rec.WordSize)
	return nil
}
