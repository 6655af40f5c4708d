package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/nanobench/internal/archive"
	"github.com/steveyegge/nanobench/internal/report"
	"github.com/steveyegge/nanobench/internal/store"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Browse archived benchmark runs",
	RunE:  runArchiveList,
}

var archiveExportCmd = &cobra.Command{
	Use:   "export <run-id> <samples.csv>",
	Short: "Export an archived run's samples as CSV",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveExport,
}

func init() {
	archiveCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	archiveCmd.AddCommand(archiveExportCmd)
	rootCmd.AddCommand(archiveCmd)
}

func openArchive() (*archive.Archive, error) {
	path := viper.GetString("archive_path")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no archive at %s (run 'nb run --store' first)", path)
	}
	return archive.Open(path)
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	db, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := db.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("Archive is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tWHEN\tSAMPLES\tTIME/EVAL\tGC%\tMEM/EVAL")
	for _, r := range runs {
		fmt.Fprintf(w, "%.8s\t%s\t%s\t%d\t%s\t%.2f\t%s\n",
			r.ID, r.Name, r.CreatedAt.Format("2006-01-02 15:04"),
			r.NSamples, report.FormatNanos(r.Elapsed), r.GCPercent,
			report.FormatBytes(r.BytesPerEval))
	}
	return w.Flush()
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	db, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	samples, err := db.LoadSamples(context.Background(), args[0])
	if err != nil {
		return err
	}
	if samples.Len() == 0 {
		return fmt.Errorf("run %s not found or has no samples", args[0])
	}
	return samples.SaveCSV(args[1], store.CSVOptions{})
}
