// Command nb is the nanobench CLI: run adaptive micro-benchmarks, inspect
// the environment record, browse the archive, and serve the live
// dashboard.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "nb",
	Short: "Adaptive micro-benchmarking harness",
	Long: `nanobench measures per-evaluation wall time, GC overhead, and
allocation counts for expressions spanning nanoseconds to seconds.

An adaptive sampling engine decides, within a time budget, how many
evaluations to fold into each sample and how many samples to collect,
then estimates the per-evaluation cost with a confidence interval.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .nanobench.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose engine tracing")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads the config file and NANOBENCH_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".nanobench")
	}

	viper.SetEnvPrefix("NANOBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("samples", 100)
	viper.SetDefault("budget", "10s")
	viper.SetDefault("tau", 0.95)
	viper.SetDefault("alpha", 1.1)
	viper.SetDefault("ols_samples", 100)
	viper.SetDefault("archive_path", ".nanobench/bench.db")
	viper.SetDefault("dashboard_port", 8347)

	// A missing config file is fine; any other read error is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}
}
