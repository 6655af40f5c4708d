package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/nanobench/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the live benchmark dashboard",
	Long: `Start the WebSocket dashboard server and watch the archive
database, broadcasting a notification whenever another process writes a
run. Runs until interrupted.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().Int("port", 0, "Port to listen on (default from config)")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	port := viper.GetInt("dashboard_port")
	if v, _ := cmd.Flags().GetInt("port"); v > 0 {
		port = v
	}

	server := dashboard.NewServer(&dashboard.Config{Port: port})
	if err := server.Start(); err != nil {
		return err
	}
	defer func() { _ = server.Stop() }()

	archivePath := viper.GetString("archive_path")
	watcher, err := dashboard.NewArchiveWatcher(archivePath)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		// The archive may not exist yet; the dashboard still serves
		// live runs started with --live.
		fmt.Fprintf(os.Stderr, "Warning: not watching archive: %v\n", err)
	} else {
		defer func() { _ = watcher.Stop() }()
		go func() {
			for path := range watcher.Changes() {
				server.Broadcast(dashboard.MessageTypeArchiveChanged,
					dashboard.ArchiveChangedData{Path: path})
			}
		}()
	}

	fmt.Printf("Dashboard listening on %s (Ctrl-C to stop)\n", server.GetAddr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}
