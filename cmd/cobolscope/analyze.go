package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cobolscope/internal/artifact"
	"cobolscope/internal/common"
	"cobolscope/internal/pipeline/cobol"
	"cobolscope/internal/runner"
	"cobolscope/internal/safeio"
	"cobolscope/internal/scan"
)

func runAnalyze(cmd *cobra.Command, flags *rootFlags, args []string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.SourceDir = args[0]
	}
	if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
		cfg.Workers = w
	}
	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = runner.NewRunID(time.Now())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := common.Logger()
	fsys, err := safeio.NewSafeFS(cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("source dir: %w", err)
	}
	a, err := cobol.NewAnalyzer(cfg.AnalyzerConfig(), logger)
	if err != nil {
		return err
	}
	store, err := artifact.Open(ctx, cfg.Artifact)
	if err != nil {
		return err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		defer c.Close()
	}

	r := runner.New(a, store, cfg.Workers, logger)
	sum, err := r.RunDir(ctx, fsys, cfg.Extensions, scan.Options{IgnoreDirs: cfg.IgnoreDirs, MaxDepth: cfg.MaxDepth}, runID)
	if sum == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if e := enc.Encode(sum); e != nil {
			return e
		}
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROGRAM\tSTATUS\tSCORE\tLABEL\tPARAGRAPHS\tITEMS\tPATH")
	for _, f := range sum.Files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%d\t%s\n", f.Program, f.Status, f.Score, f.Label, f.Paragraphs, f.Items, f.Path)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "\nrun %s: %d analyzed, %d failed, %d skipped (%s)\n",
		sum.RunID, sum.Analyzed, sum.Failed, sum.Skipped, sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	if cfg.Artifact.Backend == artifact.BackendDisk || cfg.Artifact.Backend == "" {
		fmt.Fprintf(out, "artifacts: %s\n", filepath.Join(cfg.Artifact.Dir, sum.RunID))
	}
	return err
}
