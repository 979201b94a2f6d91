package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hellenic-development/figma-tokens/pkg/source"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-export whenever the snapshot file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Figma.Snapshot == "" {
				return errors.WithHint(errors.New("watch needs a snapshot file"),
					"pass --snapshot, e.g. one written by export --save-snapshot")
			}
			banner()

			src := source.NewSnapshot(cfg.Figma.Snapshot)
			w, err := source.NewWatcher(cfg.Figma.Snapshot, cfg.Export.WatchDebounce, logger)
			if err != nil {
				return err
			}

			if _, err := exportOnce(cmd.Context(), src); err != nil {
				pterm.Error.Printf("Export failed: %v\n", err)
			}
			pterm.Info.Printf("Watching %s for changes (Ctrl+C to stop)\n", cfg.Figma.Snapshot)

			return w.Run(cmd.Context(), func(ctx context.Context) {
				pterm.Info.Printf("%s changed, exporting...\n", cfg.Figma.Snapshot)
				if _, err := exportOnce(ctx, src); err != nil {
					pterm.Error.Printf("Export failed: %v\n", err)
				}
			})
		},
	}

	addSelectionFlags(cmd)
	cmd.Flags().Duration("debounce", source.DefaultDebounce, "Quiet period before re-exporting")
	return cmd
}
