package domain

import (
	"fmt"
	"regexp"
)

// Rule is a named regex describing a risky code pattern plus reviewer guidance.
type Rule struct {
	Name          string `yaml:"name"      json:"name"`
	Pattern       string `yaml:"regex"     json:"regex"`
	Exclude       string `yaml:"exclude"   json:"exclude,omitempty"`
	RuleDesc      string `yaml:"rule_desc" json:"rule_desc"`
	IssueDesc     string `yaml:"vuln_desc" json:"vuln_desc"`
	DeveloperNote string `yaml:"developer" json:"developer"`
	ReviewerNote  string `yaml:"reviewer"  json:"reviewer"`

	// Category is the owning category name, or the rule set name for flat documents.
	Category string `yaml:"-" json:"category,omitempty"`

	re        *regexp.Regexp
	excludeRe *regexp.Regexp
}

// Category groups rules inside a rule document.
type Category struct {
	Name  string `yaml:"name"  json:"name"`
	Rules []Rule `yaml:"rules" json:"rules"`
}

// RuleSet is one decoded rule document. Platforms map 1:1 to a RuleSet; the
// common and path rule documents are RuleSets too.
type RuleSet struct {
	Name       string     `yaml:"platform"   json:"platform"`
	Categories []Category `yaml:"categories" json:"categories,omitempty"`
	Rules      []Rule     `yaml:"rules"      json:"rules,omitempty"`

	// Source is the path the document was loaded from.
	Source string `yaml:"-" json:"source,omitempty"`
}

// MatchMode selects how a rule set's patterns are compiled.
type MatchMode int

const (
	// MatchContent compiles patterns case-sensitively for line matching.
	MatchContent MatchMode = iota
	// MatchPath compiles patterns case-insensitively for path matching.
	MatchPath
)

// Compile compiles the rule's pattern and exclude pattern. Exclude patterns are
// always case-insensitive.
func (r *Rule) Compile(mode MatchMode) error {
	if r.Pattern == "" {
		return fmt.Errorf("empty regex")
	}
	expr := r.Pattern
	if mode == MatchPath {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.re = re

	r.excludeRe = nil
	if r.Exclude != "" {
		ex, err := regexp.Compile("(?i)" + r.Exclude)
		if err != nil {
			return fmt.Errorf("invalid exclude regex: %w", err)
		}
		r.excludeRe = ex
	}
	return nil
}

// Compiled reports whether Compile has succeeded for this rule.
func (r *Rule) Compiled() bool { return r.re != nil }

// Matches reports whether the pattern matches s, ignoring the exclude pattern.
func (r *Rule) Matches(s string) bool {
	return r.re != nil && r.re.MatchString(s)
}

// Excluded reports whether the exclude pattern is present and matches s.
func (r *Rule) Excluded(s string) bool {
	return r.excludeRe != nil && r.excludeRe.MatchString(s)
}

// MatchLine applies the pattern to a line and, when exclusions are enabled,
// discards matches the exclude pattern also hits.
func (r *Rule) MatchLine(line string, exclusions bool) bool {
	if !r.Matches(line) {
		return false
	}
	if exclusions && r.Excluded(line) {
		return false
	}
	return true
}

// All returns pointers to every leaf rule in document order: categorized rules
// first, then any top-level rules.
func (rs *RuleSet) All() []*Rule {
	out := make([]*Rule, 0, rs.Count())
	for ci := range rs.Categories {
		for ri := range rs.Categories[ci].Rules {
			out = append(out, &rs.Categories[ci].Rules[ri])
		}
	}
	for ri := range rs.Rules {
		out = append(out, &rs.Rules[ri])
	}
	return out
}

// Count returns the number of leaf rules, with or without categories.
func (rs *RuleSet) Count() int {
	n := len(rs.Rules)
	for _, c := range rs.Categories {
		n += len(c.Rules)
	}
	return n
}

// Names returns the rule names in document order.
func (rs *RuleSet) Names() []string {
	all := rs.All()
	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.Name
	}
	return names
}

// Prepare validates the document and compiles every rule. Any problem is a
// *RuleLoadError; a rule set is never returned partially compiled.
func (rs *RuleSet) Prepare(mode MatchMode) error {
	for ci := range rs.Categories {
		for ri := range rs.Categories[ci].Rules {
			rs.Categories[ci].Rules[ri].Category = rs.Categories[ci].Name
		}
	}
	for ri := range rs.Rules {
		rs.Rules[ri].Category = rs.Name
	}

	all := rs.All()
	if len(all) == 0 {
		return &RuleLoadError{Path: rs.Source, Err: fmt.Errorf("no rules defined")}
	}

	seen := make(map[string]bool, len(all))
	for i, r := range all {
		if r.Name == "" {
			return &RuleLoadError{Path: rs.Source, Err: fmt.Errorf("rule %d: missing name", i+1)}
		}
		if seen[r.Name] {
			return &RuleLoadError{Path: rs.Source, Rule: r.Name, Err: fmt.Errorf("duplicate rule name")}
		}
		seen[r.Name] = true

		if err := r.Compile(mode); err != nil {
			return &RuleLoadError{Path: rs.Source, Rule: r.Name, Err: err}
		}
	}
	return nil
}
