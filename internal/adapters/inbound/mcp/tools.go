package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dakshscra/scra/internal/adapters/outbound/console"
	"github.com/dakshscra/scra/internal/adapters/outbound/detector"
	"github.com/dakshscra/scra/internal/adapters/outbound/filelock"
	"github.com/dakshscra/scra/internal/adapters/outbound/gitinfo"
	"github.com/dakshscra/scra/internal/adapters/outbound/history"
	"github.com/dakshscra/scra/internal/adapters/outbound/linereader"
	"github.com/dakshscra/scra/internal/adapters/outbound/protocol"
	"github.com/dakshscra/scra/internal/adapters/outbound/report"
	"github.com/dakshscra/scra/internal/adapters/outbound/rules"
	"github.com/dakshscra/scra/internal/adapters/outbound/scanner"
	"github.com/dakshscra/scra/internal/application"
	"github.com/dakshscra/scra/internal/rulepack"
)

// registerTools registers all scra MCP tools on the given server.
func registerTools(s *server.MCPServer, opts Options) {
	// 1. scra_list_platforms
	s.AddTool(
		mcplib.NewTool("scra_list_platforms",
			mcplib.WithDescription("Lists the platforms rules exist for, with the file types each one scans"),
		),
		handleListPlatforms(opts),
	)

	// 2. scra_detect_platforms
	s.AddTool(
		mcplib.NewTool("scra_detect_platforms",
			mcplib.WithDescription("Detects which platforms have files in the project and counts files per extension"),
			mcplib.WithString("path", mcplib.Description("Directory to inspect (default: the project)")),
		),
		handleDetectPlatforms(opts),
	)

	// 3. scra_scan
	s.AddTool(
		mcplib.NewTool("scra_scan",
			mcplib.WithDescription("Runs a scan and returns the run summary. Findings are written to the report directory."),
			mcplib.WithString("platforms",
				mcplib.Required(),
				mcplib.Description(`Comma-separated platforms (e.g. "php,java") or "auto"`),
			),
			mcplib.WithString("filetypes", mcplib.Description("Optional file type override: globs or platform names")),
			mcplib.WithString("path", mcplib.Description("Directory to scan (default: the project)")),
		),
		handleScan(opts),
	)

	// 4. scra_get_findings
	s.AddTool(
		mcplib.NewTool("scra_get_findings",
			mcplib.WithDescription("Returns the content findings of the last scan, optionally filtered by rule title or file"),
			mcplib.WithString("rule", mcplib.Description("Only groups whose rule title contains this text")),
			mcplib.WithString("file", mcplib.Description("Only findings in source files whose path contains this text")),
		),
		handleGetFindings(opts),
	)

	// 5. scra_get_path_findings
	s.AddTool(
		mcplib.NewTool("scra_get_path_findings",
			mcplib.WithDescription("Returns the file path findings of the last scan"),
		),
		handleGetPathFindings(opts),
	)
}

func newScanService(opts Options) *application.ScanService {
	cfg := opts.Config
	classifier := scanner.New(opts.Logger.Named("classifier"), cfg.ExcludeDirs...).Ignore(cfg.OutputDir)
	return application.NewScanService(
		rules.New(rulepack.Open(cfg.RulesDir)),
		classifier,
		linereader.New(cfg.Encoding),
		detector.New(classifier),
		report.NewSink(false),
		filelock.NewLocker(),
		history.New(),
		gitinfo.New(),
		console.Nop{},
		opts.Logger,
	)
}

func newDetectService(opts Options) *application.DetectService {
	classifier := scanner.New(opts.Logger.Named("classifier"), opts.Config.ExcludeDirs...).Ignore(opts.Config.OutputDir)
	return application.NewDetectService(rules.New(rulepack.Open(opts.Config.RulesDir)), classifier, detector.New(classifier))
}

func handleListPlatforms(opts Options) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		reg, err := rules.New(rulepack.Open(opts.Config.RulesDir)).LoadRegistry()
		if err != nil {
			return errorResult(fmt.Sprintf("loading platform registry: %v", err)), nil
		}

		type platform struct {
			Name      string   `json:"name"`
			FileTypes []string `json:"filetypes"`
		}
		out := []platform{}
		for _, name := range reg.Names() {
			p, _ := reg.Lookup(name)
			out = append(out, platform{Name: p.Name, FileTypes: p.FileTypes})
		}
		return jsonResult(out)
	}
}

func handleDetectPlatforms(opts Options) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		inv, err := newDetectService(opts).Inventory(ctx, targetPath(opts, request))
		if err != nil {
			return errorResult(fmt.Sprintf("detect failed: %v", err)), nil
		}
		return jsonResult(inv)
	}
}

func handleScan(opts Options) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		platforms, err := request.RequireString("platforms")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		fileTypes, _ := request.GetArguments()["filetypes"].(string)

		rep, err := newScanService(opts).Scan(ctx, application.ScanOptions{
			Target:      targetPath(opts, request),
			Platforms:   platforms,
			FileTypes:   fileTypes,
			OutputDir:   opts.Config.OutputDir,
			Exclusions:  opts.Config.ExclusionsEnabled(),
			Concurrency: opts.Config.Concurrency,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("scan failed: %v", err)), nil
		}
		return jsonResult(rep.Summary)
	}
}

func handleGetFindings(opts Options) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		f, err := os.Open(filepath.Join(opts.Config.OutputDir, report.FindingsFile))
		if err != nil {
			return errorResult(fmt.Sprintf("no findings available, run scra_scan first: %v", err)), nil
		}
		defer f.Close()

		groups, err := protocol.Parse(f)
		if err != nil {
			return errorResult(fmt.Sprintf("reading findings: %v", err)), nil
		}

		args := request.GetArguments()
		rule, _ := args["rule"].(string)
		file, _ := args["file"].(string)
		return jsonResult(filterGroups(groups, rule, file))
	}
}

func handleGetPathFindings(opts Options) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		f, err := os.Open(filepath.Join(opts.Config.OutputDir, report.PathsFile))
		if err != nil {
			return errorResult(fmt.Sprintf("no path findings available, run scra_scan first: %v", err)), nil
		}
		defer f.Close()

		groups, err := protocol.ParsePaths(f)
		if err != nil {
			return errorResult(fmt.Sprintf("reading path findings: %v", err)), nil
		}
		if groups == nil {
			groups = []protocol.PathGroup{}
		}
		return jsonResult(groups)
	}
}

// filterGroups keeps groups whose title contains rule and, within them, the
// sources whose path contains file. Groups left without sources are dropped.
func filterGroups(groups []protocol.Group, rule, file string) []protocol.Group {
	out := []protocol.Group{}
	for _, g := range groups {
		if rule != "" && !strings.Contains(strings.ToLower(g.Title), strings.ToLower(rule)) {
			continue
		}
		if file != "" {
			var kept []protocol.Source
			for _, src := range g.Sources {
				if strings.Contains(src.File, file) {
					kept = append(kept, src)
				}
			}
			if len(kept) == 0 {
				continue
			}
			g.Sources = kept
		}
		out = append(out, g)
	}
	return out
}

func targetPath(opts Options, request mcplib.CallToolRequest) string {
	if p, _ := request.GetArguments()["path"].(string); p != "" {
		return p
	}
	return opts.ProjectPath
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
