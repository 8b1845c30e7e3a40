package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dakshscra/scra/internal/adapters/outbound/rules"
	"github.com/dakshscra/scra/internal/adapters/outbound/summary"
	"github.com/dakshscra/scra/internal/domain"
	"github.com/dakshscra/scra/internal/rulepack"
)

// registerResources registers all scra MCP resources on the given server.
func registerResources(s *server.MCPServer, opts Options) {
	// 1. scra://summary - summary of the last run
	s.AddResource(
		mcplib.NewResource(
			"scra://summary",
			"Run Summary",
			mcplib.WithResourceDescription("Summary record of the last scan written to the report directory"),
			mcplib.WithMIMEType("application/json"),
		),
		handleSummaryResource(opts),
	)

	// 2. scra://rules/{platform} - rule set of one platform (resource template)
	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"scra://rules/{platform}",
			"Platform Rules",
			mcplib.WithTemplateDescription("Rules applied to a platform's files, grouped by category"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		handleRulesResource(opts),
	)
}

func handleSummaryResource(opts Options) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		sum, err := summary.New().Load(opts.Config.OutputDir)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			return nil, fmt.Errorf("no scan summary in %s", opts.Config.OutputDir)
		}

		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling summary: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      "scra://summary",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleRulesResource(opts Options) server.ResourceTemplateHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		name := platformArgument(request.Params.Arguments["platform"])
		if name == "" {
			return nil, fmt.Errorf("platform name is required")
		}

		loader := rules.New(rulepack.Open(opts.Config.RulesDir))
		reg, err := loader.LoadRegistry()
		if err != nil {
			return nil, fmt.Errorf("loading platform registry: %w", err)
		}

		var (
			doc  string
			mode = domain.MatchContent
		)
		switch name {
		case domain.CommonPlatform:
			doc = reg.CommonRules
		case domain.PathPlatform:
			doc, mode = reg.PathRules, domain.MatchPath
		default:
			p, ok := reg.Lookup(name)
			if !ok {
				return nil, &domain.UnknownPlatformError{Names: []string{name}, Available: reg.Names()}
			}
			doc = p.RulesPath
		}

		rs, err := loader.LoadRuleSet(doc, mode)
		if err != nil {
			return nil, err
		}

		data, err := json.MarshalIndent(rs, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling rules: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

// platformArgument unwraps a template argument, which mcp-go passes as a
// string or a one-element slice depending on the matcher.
func platformArgument(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case []string:
		if len(a) > 0 {
			return a[0]
		}
	case []any:
		if len(a) > 0 {
			s, _ := a[0].(string)
			return s
		}
	}
	return ""
}
