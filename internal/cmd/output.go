package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/certwatch-app/cw-inspect/internal/agent"
	"github.com/certwatch-app/cw-inspect/internal/config"
	"github.com/certwatch-app/cw-inspect/internal/report"
	"github.com/certwatch-app/cw-inspect/internal/scanner"
)

// Output formats accepted by --output
const (
	outputText = "text"
	outputJSON = "json"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON:
		return nil
	default:
		return fmt.Errorf("invalid output format %q: must be %s or %s", format, outputText, outputJSON)
	}
}

// commandLogger logs to stderr so stdout only carries the report. One-shot
// commands stay quiet unless --verbose is set.
func commandLogger() *zap.Logger {
	level := "error"
	if verbose {
		level = "debug"
	}
	return agent.NewLogger(level, zapcore.Lock(os.Stderr))
}

// inspectTargets runs a single batch over targets and writes the report to
// the command's output. It fails when any target failed.
func inspectTargets(cmd *cobra.Command, cfg *config.Config, targets []scanner.HostTarget, format string, opts report.TextOptions) error {
	logger := commandLogger()
	defer logger.Sync() //nolint:errcheck // nothing to do if stderr cannot be flushed

	a, err := agent.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := a.ScanTargets(ctx, targets)
	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case outputJSON:
		doc := *r
		if opts.HideAddress {
			doc = doc.WithoutAddresses()
		}
		err = report.WriteJSON(out, doc)
	default:
		opts.NoColor = opts.NoColor || noColor
		err = report.RenderText(out, *r, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if r.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d targets failed", r.Summary.Failed, r.Summary.Total)
	}
	return nil
}
