package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mediainfo-keeper/feature/mediainfo"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	// Flags for the sweep command
	sweepFull   bool
	sweepDryRun bool
	sweepYes    bool
	sweepNoWait bool
	outFormat   string
)

// sweepCmd runs one bulk reconciliation pass over the library.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reconcile every reference item modified since the last sweep",
	Long: `Runs a bulk reconciliation pass: items with lost media info are restored
from their backup and items that were never probed get a probe request.

Examples:
  # Incremental sweep (items changed since the last watermark)
  sweep

  # Plan a full sweep without acting
  sweep --full --dry-run --format yaml

  # Full sweep, non-interactive
  sweep --full --yes`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepFull, "full", false, "Ignore the watermark and scan every reference item")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "Classify items without acting or moving the watermark")
	sweepCmd.Flags().BoolVar(&sweepYes, "yes", false, "Auto-confirm a full sweep (non-interactive)")
	sweepCmd.Flags().BoolVar(&sweepNoWait, "no-wait", false, "Exit without waiting for requested probes to finish")
	sweepCmd.Flags().StringVar(&outFormat, "format", "json", "Report format: json or yaml")

	RootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outFormat); err != nil {
		return err
	}

	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(cfg, logg)
	if err != nil {
		return err
	}
	defer c.close()

	if !sweepDryRun {
		if err := c.ensureBucket(ctx); err != nil {
			return err
		}
	}

	if sweepFull && !sweepDryRun && !confirmFullSweep() {
		c.logger.Warn("Sweep cancelled by user. No changes were made.")
		return nil
	}

	// Probe completions come back as notifications; the engine backs them up.
	c.host.Start(ctx)
	defer c.host.Stop()
	if err := c.mediainfo.Start(ctx); err != nil {
		return err
	}
	defer c.mediainfo.Stop()

	report, sweepErr := c.mediainfo.Sweep(ctx, mediainfo.SweepOptions{Full: sweepFull, DryRun: sweepDryRun})
	if report != nil {
		printSweepSummary(c.logger, report)
		if err := writeReport(cmd.OutOrStdout(), outFormat, report); err != nil {
			return err
		}
	}
	if sweepErr != nil {
		return fmt.Errorf("sweep failed: %w", sweepErr)
	}

	if sweepDryRun || sweepNoWait || report.Probed == 0 {
		return nil
	}
	c.logger.Info("Waiting for requested probes to finish...", zap.Int("probed", report.Probed))
	if err := c.drain(ctx, 500*time.Millisecond); err != nil {
		c.logger.Warn("Stopped before all probes finished", zap.Int("in_flight", c.host.Probing()))
		return nil
	}
	stats := c.mediainfo.Stats()
	c.logger.Info("Probes finished",
		zap.Int64("backed_up", stats.BackedUp),
		zap.Int64("failed", stats.Failed),
	)
	return nil
}

// printSweepSummary logs the counters and a sample of planned actions.
func printSweepSummary(l *zap.Logger, r *mediainfo.SweepReport) {
	l.Info("Sweep report",
		zap.String("status", string(r.Status)),
		zap.Int("total", r.Total),
		zap.Int("processed", r.Processed),
		zap.Int("restored", r.Restored),
		zap.Int("probed", r.Probed),
		zap.Int("skipped", r.Skipped),
		zap.Int("suppressed", r.Suppressed),
		zap.Int("failed", r.Failed),
		zap.Duration("duration", r.FinishedAt.Sub(r.StartedAt)),
	)

	maxShow := min(5, len(r.Planned))
	for _, action := range r.Planned[:maxShow] {
		l.Info("Planned action",
			zap.String("item_id", action.ItemID),
			zap.String("path", action.Path),
			zap.String("action", string(action.Decision.Action)),
			zap.String("reason", action.Decision.Reason),
		)
	}
	if len(r.Planned) > maxShow {
		l.Info("Additional planned actions not shown", zap.Int("count", len(r.Planned)-maxShow))
	}
}

// confirmFullSweep prompts the user for confirmation or uses the --yes flag.
func confirmFullSweep() bool {
	if sweepYes {
		fmt.Fprintln(os.Stderr, "\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Fprint(os.Stderr, "\n⚠️  A full sweep may request a probe for every item. Type 'yes' to continue: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

func checkFormat(format string) error {
	switch format {
	case "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (json or yaml)", format)
	}
}

// writeReport encodes v to w in the requested format.
func writeReport(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
