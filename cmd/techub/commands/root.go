// Package commands implements the TecHub CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techub/techub/internal/core/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "techub",
	Short: "Generate TecHub profile cards from GitHub data",
	Long: `TecHub turns a GitHub login into a profile record, a synthesized stat
card and a set of share-ready card images, through a fixed multi-stage
pipeline. Individual commands run the full pipeline, partial refreshes or
batch jobs.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: .techub.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// loadConfig resolves and loads the configuration, falling back to defaults
// plus environment variables when no file is found.
func loadConfig() *config.Config {
	path := config.FindConfigPath(cfgFile)
	if path == "" {
		if verbose {
			fmt.Println("No configuration file found. Using defaults and environment variables.")
		}
		cfg := &config.Config{}
		cfg.ApplyDefaults()
		return cfg
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Warning: Failed to load config from %s: %v. Proceeding with defaults/env vars.\n", path, err)
		cfg = &config.Config{}
		cfg.ApplyDefaults()
		return cfg
	}
	if verbose {
		fmt.Printf("Loaded config from %s\n", path)
	}
	return cfg
}
