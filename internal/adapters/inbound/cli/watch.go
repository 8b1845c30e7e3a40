package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dakshscra/scra/internal/adapters/outbound/console"
	"github.com/dakshscra/scra/internal/adapters/outbound/watcher"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		f        scanFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan, then rescan whenever the source tree changes",
		Long: "Run a scan, then watch the target directory and rescan after every burst of changes. " +
			"Changes inside the report directory are ignored. Stop with Ctrl-C.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			progress := console.New(cmd.OutOrStdout(), f.verbosity)
			svc := newScanService(cfg, f.sarif, progress, logger)
			opts := f.options(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, err := svc.Scan(ctx, opts)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			renderScanReport(cmd, rep)

			outAbs, err := filepath.Abs(rep.OutputDir)
			if err != nil {
				return err
			}
			w := watcher.New(logger.Named("watch"), cfg.ExcludeDirs, outAbs)
			w.Debounce = debounce

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", opts.Target)
			return w.Watch(ctx, opts.Target, func(changed []string) {
				progress.Stage(fmt.Sprintf("Change detected (%d paths), rescanning", len(changed)))
				rep, err := svc.Scan(ctx, opts)
				if err != nil {
					logger.Error("rescan failed", "error", err)
				}
				if rep != nil && ctx.Err() == nil {
					renderScanReport(cmd, rep)
				}
			})
		},
	}

	f.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period before a rescan")

	return cmd
}
