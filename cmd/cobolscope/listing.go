package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cobolscope/internal/common"
	"cobolscope/internal/pipeline/cobol"
	"cobolscope/internal/safeio"
)

// runListing prints the normalized (and optionally expanded) listing of one
// file in the configured source encoding. Diagnostics go to the log.
func runListing(cmd *cobra.Command, flags *rootFlags, file string, expand bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	fsys, err := safeio.NewSafeFS(filepath.Dir(abs))
	if err != nil {
		return err
	}
	text, err := fsys.ReadText(filepath.Base(abs), cfg.Encoding)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	ac := cfg.AnalyzerConfig()
	if len(cfg.Copybooks.Dirs) == 0 {
		ac.CopybookDirs = []string{filepath.Dir(abs)}
	}
	ac.DisableExpand = ac.DisableExpand || !expand
	logger := common.Logger()
	a, err := cobol.NewAnalyzer(ac, logger)
	if err != nil {
		return err
	}

	name := cobol.ProgramName(file)
	var res cobol.NormalizeResult
	if expand {
		res, _ = a.Expand(name, text)
	} else {
		res = a.Normalize(name, text)
	}
	for _, d := range res.Diagnostics {
		logger.Warn(d.Message, "code", d.Code, "seq", d.Seq, "module", d.Module)
	}

	var body strings.Builder
	for _, l := range res.Lines {
		body.WriteString(l)
		body.WriteByte('\n')
	}
	raw, err := safeio.Encode(body.String(), cfg.Encoding)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err = w.Write(raw)
	return err
}
