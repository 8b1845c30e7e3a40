package cli

import (
	"fmt"

	"github.com/dakshscra/scra/internal/adapters/outbound/history"
	"github.com/dakshscra/scra/internal/adapters/outbound/tui"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		out        string
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs recorded in a report directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				out = cfg.OutputDir
			}

			entries, err := history.New().Load(out)
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}
			if jsonOutput {
				return renderJSON(cmd, entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Report directory (default from config, else ./reports)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output history as JSON")

	return cmd
}
