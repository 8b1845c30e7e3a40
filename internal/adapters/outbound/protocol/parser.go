package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dakshscra/scra/internal/domain"
)

// Group is one parsed match group of the findings protocol.
type Group struct {
	Number        int      `json:"number"`
	Title         string   `json:"title"`
	RuleDesc      string   `json:"rule_desc"`
	IssueDesc     string   `json:"issue_desc"`
	DeveloperNote string   `json:"developer_note"`
	ReviewerNote  string   `json:"reviewer_note"`
	Sources       []Source `json:"sources"`
}

// Source is the run of findings under one source-file header.
type Source struct {
	File  string `json:"file"`
	Lines []Line `json:"lines"`
}

// Line is one finding line.
type Line struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// PathGroup is one parsed group of the path findings protocol.
type PathGroup struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Paths  []string `json:"paths"`
}

// Findings flattens the group into (rule, file, line) findings.
func (g Group) Findings() []domain.Finding {
	var out []domain.Finding
	for _, s := range g.Sources {
		for _, l := range s.Lines {
			out = append(out, domain.Finding{RuleName: g.Title, SourceFile: s.File, Line: l.Number, Text: l.Text})
		}
	}
	return out
}

const (
	titleMarker  = ". Rule Title: "
	sourcePrefix = "\t -> Source File: "
	linePrefix   = "\t\t ["
	pathPrefix   = "\tFile Path: "
)

var headerFields = []struct {
	prefix string
	set    func(g *Group, v string)
}{
	{"\t Rule Description  :", func(g *Group, v string) { g.RuleDesc = v }},
	{"\t Issue Description :", func(g *Group, v string) { g.IssueDesc = v }},
	{"\t Developer Note    :", func(g *Group, v string) { g.DeveloperNote = v }},
	{"\t Reviewer Note     :", func(g *Group, v string) { g.ReviewerNote = v }},
}

// Parse reads a findings protocol stream.
func Parse(r io.Reader) ([]Group, error) {
	var (
		groups []Group
		cur    *Group
		src    *Source
	)
	sc := newScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		text := sc.Text()
		switch {
		case text == "":
			continue

		case strings.HasPrefix(text, linePrefix):
			if src == nil {
				return nil, fmt.Errorf("line %d: finding outside a source block", ln)
			}
			l, err := parseFindingLine(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", ln, err)
			}
			src.Lines = append(src.Lines, l)

		case strings.HasPrefix(text, sourcePrefix):
			if cur == nil {
				return nil, fmt.Errorf("line %d: source file outside a group", ln)
			}
			cur.Sources = append(cur.Sources, Source{File: strings.TrimPrefix(text, sourcePrefix)})
			src = &cur.Sources[len(cur.Sources)-1]

		case strings.HasPrefix(text, "\t "):
			if cur == nil {
				return nil, fmt.Errorf("line %d: description outside a group", ln)
			}
			if !setHeaderField(cur, text) {
				return nil, fmt.Errorf("line %d: unexpected line %q", ln, text)
			}

		default:
			n, title, ok := parseTitle(text)
			if !ok {
				return nil, fmt.Errorf("line %d: unexpected line %q", ln, text)
			}
			groups = append(groups, Group{Number: n, Title: title})
			cur = &groups[len(groups)-1]
			src = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// ParsePaths reads a path findings protocol stream.
func ParsePaths(r io.Reader) ([]PathGroup, error) {
	var groups []PathGroup
	sc := newScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		text := sc.Text()
		switch {
		case text == "":
			continue
		case strings.HasPrefix(text, pathPrefix):
			if len(groups) == 0 {
				return nil, fmt.Errorf("line %d: path outside a group", ln)
			}
			g := &groups[len(groups)-1]
			g.Paths = append(g.Paths, strings.TrimPrefix(text, pathPrefix))
		default:
			n, title, ok := parseTitle(text)
			if !ok {
				return nil, fmt.Errorf("line %d: unexpected line %q", ln, text)
			}
			groups = append(groups, PathGroup{Number: n, Title: title})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return sc
}

func parseTitle(text string) (int, string, bool) {
	i := strings.Index(text, titleMarker)
	if i <= 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(text[:i])
	if err != nil {
		return 0, "", false
	}
	return n, text[i+len(titleMarker):], true
}

func parseFindingLine(text string) (Line, error) {
	rest := strings.TrimPrefix(text, linePrefix)
	end := strings.Index(rest, "]")
	if end < 0 {
		return Line{}, fmt.Errorf("malformed finding line %q", text)
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return Line{}, fmt.Errorf("malformed line number in %q", text)
	}
	body := rest[end+1:]
	body = strings.TrimPrefix(body, " ")
	return Line{Number: n, Text: body}, nil
}

func setHeaderField(g *Group, text string) bool {
	for _, f := range headerFields {
		if strings.HasPrefix(text, f.prefix) {
			f.set(g, strings.TrimSpace(strings.TrimPrefix(text, f.prefix)))
			return true
		}
	}
	return false
}
