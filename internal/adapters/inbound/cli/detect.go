package cli

import (
	"fmt"

	"github.com/dakshscra/scra/internal/adapters/outbound/tui"
	"github.com/spf13/cobra"
)

func newDetectCmd() *cobra.Command {
	var (
		target     string
		rulesDir   string
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect platforms and list file extensions in a source tree",
		Long: "Walk the target once without any rules: report which platforms have files " +
			"and how many files carry each extension. Useful before choosing -r and -f for a scan.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if rulesDir != "" {
				cfg.RulesDir = rulesDir
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			inv, err := newDetectService(cfg, logger).Inventory(cmd.Context(), target)
			if err != nil {
				return fmt.Errorf("detect failed: %w", err)
			}
			if jsonOutput {
				return renderJSON(cmd, inv)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderInventory(inv))
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Target source directory")
	cmd.Flags().StringVar(&rulesDir, "rules-dir", "", "Rule pack directory (default: embedded pack)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the inventory as JSON")

	return cmd
}
