package cmd

import (
	"context"
	"errors"
	"fmt"

	"mediainfo-keeper/core/library"

	"github.com/spf13/cobra"
)

// inspectCmd shows what the reconciler would do for a single item.
var inspectCmd = &cobra.Command{
	Use:   "inspect <item-id>",
	Short: "Show the observed state and decision for an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(outFormat); err != nil {
			return err
		}

		cfg, logg, err := setup()
		if err != nil {
			return err
		}
		defer logg.Sync()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		c, err := build(cfg, logg)
		if err != nil {
			return err
		}
		defer c.close()

		out, err := c.mediainfo.Inspect(ctx, args[0])
		if errors.Is(err, library.ErrItemNotFound) {
			return fmt.Errorf("item %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to inspect item: %w", err)
		}
		return writeReport(cmd.OutOrStdout(), outFormat, out)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&outFormat, "format", "json", "Output format: json or yaml")
	RootCmd.AddCommand(inspectCmd)
}
