package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cobolscope/internal/common"
	"cobolscope/internal/config"
)

var version = "0.1.0-dev"

type rootFlags struct {
	configPath string
	logLevel   string
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "cobolscope",
		Short: "Analyze fixed-format COBOL listings",
		Long: `cobolscope normalizes 80-column COBOL listings, inlines copy-modules,
builds the data dictionary and paragraph call graph, and scores each
program's structural quality.

Results are published per run as <name>.etude, <name>.model.json and
summary.json through the configured artifact store.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Analyze every listing under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, flags, args)
		},
	}
	analyzeCmd.Flags().String("run-id", "", "Run identifier (default: generated)")
	analyzeCmd.Flags().Int("workers", 0, "Concurrent programs (default: config workers)")
	analyzeCmd.Flags().Bool("json", false, "Print the run summary as JSON")

	normalizeCmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Filter and renumber one listing without copy expansion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListing(cmd, flags, args[0], false)
		},
	}

	expandCmd := &cobra.Command{
		Use:   "expand <file>",
		Short: "Inline copy-modules and print the normalized listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListing(cmd, flags, args[0], true)
		},
	}
	for _, c := range []*cobra.Command{normalizeCmd, expandCmd} {
		c.Flags().StringP("out", "o", "", "Write the listing to a file instead of stdout")
	}

	artifactsCmd := &cobra.Command{
		Use:   "artifacts <run-id> [path]",
		Short: "List a run's artifacts or print one of them",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifacts(cmd, flags, args)
		},
	}
	artifactsCmd.Flags().Bool("url", false, "Print a download URL instead of the content")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cobolscope", version)
		},
	}

	rootCmd.AddCommand(analyzeCmd, normalizeCmd, expandCmd, artifactsCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the process log level.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	common.SetLevel(cfg.LogLevel)
	return cfg, nil
}
