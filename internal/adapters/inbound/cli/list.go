package cli

import (
	"fmt"

	"github.com/dakshscra/scra/internal/adapters/outbound/rules"
	"github.com/dakshscra/scra/internal/adapters/outbound/tui"
	"github.com/dakshscra/scra/internal/rulepack"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		fileTypes bool
		rulesDir  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the platforms rules exist for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := rules.New(rulepack.Open(rulesDir)).LoadRegistry()
			if err != nil {
				return fmt.Errorf("loading platform registry: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderPlatforms(reg, fileTypes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fileTypes, "filetypes", false, "Show the file types each platform scans")
	cmd.Flags().StringVar(&rulesDir, "rules-dir", "", "Rule pack directory (default: embedded pack)")

	return cmd
}
