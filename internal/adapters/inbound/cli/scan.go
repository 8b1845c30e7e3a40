package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dakshscra/scra/internal/adapters/outbound/console"
	"github.com/dakshscra/scra/internal/adapters/outbound/tui"
	"github.com/dakshscra/scra/internal/application"
	"github.com/dakshscra/scra/internal/domain"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var (
		f          scanFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a source tree for areas of interest",
		Long: "Classify every file under the target by platform, apply the platform, common and path " +
			"rules, and write the findings protocol files and run summary to the report directory.",
		Example: "  scra scan -r php,java -t ./shop\n  scra scan -r auto -t ./shop -vv --sarif",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			var progress domain.Progress = console.Nop{}
			if !jsonOutput {
				progress = console.New(cmd.OutOrStdout(), f.verbosity)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, err := newScanService(cfg, f.sarif, progress, logger).Scan(ctx, f.options(cfg))
			if rep != nil {
				if jsonOutput {
					if werr := renderJSON(cmd, rep.Summary); werr != nil {
						return werr
					}
				} else {
					renderScanReport(cmd, rep)
				}
			}
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON instead of progress and the summary view")

	return cmd
}

func renderScanReport(cmd *cobra.Command, rep *application.ScanReport) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, tui.RenderSummary(rep.Summary))
	fmt.Fprintf(out, "Reports written to %s\n", rep.OutputDir)
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
