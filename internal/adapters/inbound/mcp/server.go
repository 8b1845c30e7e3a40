package mcp

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dakshscra/scra/internal/domain"
)

// Options select what the server scans and where it keeps reports.
type Options struct {
	// ProjectPath is the default target of every tool.
	ProjectPath string
	Config      domain.ToolConfig
	Logger      hclog.Logger
}

// NewScraMCPServer creates a new MCP server with all scra tools and resources
// registered.
func NewScraMCPServer(opts Options) *server.MCPServer {
	if opts.ProjectPath == "" {
		opts.ProjectPath = "."
	}
	opts.Config = opts.Config.WithDefaults()
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	s := server.NewMCPServer(
		"scra",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, opts)
	registerResources(s, opts)

	return s
}
