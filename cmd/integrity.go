package cmd

import (
	"context"
	"fmt"

	"mediainfo-keeper/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on backups and the library database",
	Long:  `Checks that the backup location is reachable, the library schema matches and every probed item has a backup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, true, true)
	},
}

// storageCmd represents the integrity storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check and fix the backup location",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false, false)
	},
}

// serverCmd represents the integrity server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Check the library database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true, false)
	},
}

// backupsCmd represents the integrity backups command
var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Check backup coverage of reference items",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(storageCmd, serverCmd, backupsCmd)

	storageCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the missing bucket or backup root")
}

func runIntegrityChecks(ctx context.Context, runStorage, runServer, runBackups bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()

	c, err := build(cfg, logg)
	if err != nil {
		return err
	}
	defer c.close()

	failed := false
	if runStorage && !checkStorage(ctx, c.integrity, c.logger) {
		failed = true
	}
	if runServer && !checkServer(c.integrity, c.logger) {
		failed = true
	}
	if runBackups && !checkBackups(ctx, c.integrity, c.logger) {
		failed = true
	}

	if failed {
		return fmt.Errorf("integrity checks reported problems")
	}
	return nil
}

func checkStorage(ctx context.Context, svc *integrity.Service, logg *zap.Logger) bool {
	logg.Info("Checking backup location...")
	report, err := svc.CheckStorage(ctx)
	if err != nil {
		logg.Error("Storage check failed", zap.Error(err))
		return false
	}

	if len(report.Missing) == 0 {
		logg.Info("Backup location is reachable.", zap.String("backend", report.Backend), zap.Strings("locations", report.Locations))
		return true
	}
	logg.Warn("Missing backup locations detected", zap.Strings("missing", report.Missing))

	if !fixFlag {
		logg.Info("Run 'integrity storage --fix' to create the missing location.")
		return false
	}
	logg.Info("Fixing backup location...")
	if err := svc.FixStorage(ctx, report); err != nil {
		logg.Error("Failed to fix backup location", zap.Error(err))
		return false
	}
	logg.Info("Backup location fixed successfully.")
	return true
}

func checkServer(svc *integrity.Service, logg *zap.Logger) bool {
	logg.Info("Checking library schema integrity...")
	report, err := svc.CheckServer()
	if err != nil {
		logg.Error("Server schema check failed", zap.Error(err))
		return false
	}

	if report.Matched {
		logg.Info("Library schema matches expected definition.", zap.String("driver", report.Driver))
		return true
	}

	logg.Warn("Library schema mismatches found", zap.String("driver", report.Driver))
	for table, tblReport := range report.Tables {
		if tblReport.Status == "ok" {
			continue
		}
		if len(tblReport.MissingColumns) > 0 {
			logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tblReport.MissingColumns))
		}
		if len(tblReport.TypeMismatches) > 0 {
			logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tblReport.TypeMismatches))
		}
	}
	for _, e := range report.Errors {
		logg.Error("Inspection Error", zap.String("error", e))
	}
	return false
}

func checkBackups(ctx context.Context, svc *integrity.Service, logg *zap.Logger) bool {
	logg.Info("Checking backup coverage (this might take a while)...")
	report, err := svc.CheckBackups(ctx)
	if err != nil {
		logg.Error("Backup check failed", zap.Error(err))
		return false
	}

	logg.Info("Backup coverage",
		zap.Int("total", report.Total),
		zap.Int("covered", report.Covered),
		zap.Int("missing", len(report.Missing)),
		zap.Int("stale", len(report.Stale)),
		zap.Int("corrupt", len(report.Corrupt)),
	)
	if report.Status == "ok" {
		return true
	}
	if len(report.Missing) > 0 {
		logg.Warn("Items without backup", zap.Strings("paths", report.Missing))
	}
	if len(report.Stale) > 0 {
		logg.Warn("Backups with stale subtitle counts", zap.Strings("paths", report.Stale))
	}
	if len(report.Corrupt) > 0 {
		logg.Warn("Unreadable backups", zap.Strings("paths", report.Corrupt))
	}
	return false
}
