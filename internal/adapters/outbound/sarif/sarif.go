// Package sarif exports content findings as a SARIF 2.1.0 report.
package sarif

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dakshscra/scra/internal/domain"
	"github.com/fatih/camelcase"
	"github.com/owenrumney/go-sarif/v2/sarif"
)

const (
	toolName = "scra"
	toolURI  = "https://github.com/dakshscra/scra"
)

// Exporter implements domain.FindingsWriter by collecting results into a
// SARIF run.
type Exporter struct {
	run    *sarif.Run
	rule   *domain.Rule
	ruleID string
	groups int
}

// New creates an empty Exporter.
func New() *Exporter {
	return &Exporter{run: sarif.NewRunWithInformationURI(toolName, toolURI)}
}

func (e *Exporter) BeginGroup(r *domain.Rule) (int, error) {
	if e.rule != nil {
		return 0, errors.New("sarif: group already open")
	}
	e.rule = r
	e.ruleID = RuleID(r)
	e.groups++
	e.run.AddRule(e.ruleID).
		WithDescription(r.RuleDesc).
		WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: "warning"}).
		WithProperties(sarif.Properties{
			"name":           r.Name,
			"category":       r.Category,
			"issue":          r.IssueDesc,
			"developer_note": r.DeveloperNote,
			"reviewer_note":  r.ReviewerNote,
		})
	return e.groups, nil
}

func (e *Exporter) AddFinding(f domain.Finding) error {
	if e.rule == nil {
		return errors.New("sarif: no group open")
	}
	location := sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.SourceFile)).
			WithRegion(sarif.NewRegion().WithStartLine(f.Line)),
	)
	result := sarif.NewRuleResult(e.ruleID).
		WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s: %s", e.rule.Name, strings.TrimSpace(f.Text)))).
		WithLevel("warning").
		WithLocations([]*sarif.Location{location})
	e.run.AddResult(result)
	return nil
}

func (e *Exporter) EndGroup() error {
	if e.rule == nil {
		return errors.New("sarif: no group open")
	}
	e.rule = nil
	return nil
}

// Results returns how many results have been collected.
func (e *Exporter) Results() int { return len(e.run.Results) }

// Write renders the collected run as an indented SARIF document.
func (e *Exporter) Write(w io.Writer) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating SARIF report: %w", err)
	}
	report.AddRun(e.run)
	return report.PrettyWrite(w)
}

// RuleID derives a stable SARIF rule id such as
// "code-execution.dynamic-code-evaluation" from a rule's category and name.
func RuleID(r *domain.Rule) string {
	name := slug(r.Name)
	if r.Category == "" {
		return name
	}
	return slug(r.Category) + "." + name
}

func slug(s string) string {
	var words []string
	for _, field := range strings.FieldsFunc(s, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	}) {
		for _, w := range camelcase.Split(field) {
			words = append(words, strings.ToLower(w))
		}
	}
	return strings.Join(words, "-")
}
