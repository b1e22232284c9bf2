package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cobolscope/internal/artifact"
)

func runArtifacts(cmd *cobra.Command, flags *rootFlags, args []string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := artifact.Open(ctx, cfg.Artifact)
	if err != nil {
		return err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		defer c.Close()
	}

	out := cmd.OutOrStdout()
	runID := args[0]
	if len(args) == 1 {
		paths, err := store.List(ctx, runID)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("run %s: %w", runID, artifact.ErrNotFound)
		}
		for _, p := range paths {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	if asURL, _ := cmd.Flags().GetBool("url"); asURL {
		u, err := store.GetURL(ctx, runID, args[1])
		if err != nil {
			return err
		}
		if u == "" {
			return fmt.Errorf("backend %q does not serve URLs", cfg.Artifact.Backend)
		}
		fmt.Fprintln(out, u)
		return nil
	}
	raw, err := store.Get(ctx, runID, args[1])
	if err != nil {
		return err
	}
	_, err = out.Write(raw)
	return err
}
