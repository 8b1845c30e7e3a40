package cli

import (
	mcpadapter "github.com/dakshscra/scra/internal/adapters/inbound/mcp"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the scra MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	var (
		projectPath string
		configPath  string
		rulesDir    string
		out         string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start scra MCP server (stdio)",
		Long:  "Start the scra MCP server using stdio transport. This lets AI coding assistants run scans and read findings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectPath == "" {
				projectPath = "."
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if rulesDir != "" {
				cfg.RulesDir = rulesDir
			}
			if out != "" {
				cfg.OutputDir = out
			}
			s := mcpadapter.NewScraMCPServer(mcpadapter.Options{
				ProjectPath: projectPath,
				Config:      cfg,
				Logger:      newLogger(cfg, cmd.ErrOrStderr()),
			})
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", "", "Project path (defaults to current working directory)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file")
	cmd.Flags().StringVar(&rulesDir, "rules-dir", "", "Rule pack directory (default: embedded pack)")
	cmd.Flags().StringVar(&out, "out", "", "Report directory (default from config, else ./reports)")

	return cmd
}
