package rules

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/dakshscra/scra/internal/domain"
	"gopkg.in/yaml.v3"
)

// Loader implements domain.RuleLoader and domain.RegistryLoader over a
// filesystem holding a registry document and the rule documents it names.
type Loader struct {
	fsys     fs.FS
	registry string
}

// RegistryFile is the registry document name at the root of a rule pack.
const RegistryFile = "registry.yaml"

// New creates a Loader reading from fsys.
func New(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys, registry: RegistryFile}
}

// LoadRuleSet decodes the document at p and compiles every rule. YAML and the
// XML rule layout are both accepted, chosen by extension.
func (l *Loader) LoadRuleSet(p string, mode domain.MatchMode) (*domain.RuleSet, error) {
	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return nil, &domain.RuleLoadError{Path: p, Err: err}
	}

	var rs *domain.RuleSet
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		rs, err = decodeYAML(data)
	case ".xml":
		rs, err = decodeXML(data)
	default:
		err = fmt.Errorf("unsupported rule document type %q", path.Ext(p))
	}
	if err != nil {
		return nil, &domain.RuleLoadError{Path: p, Err: err}
	}

	rs.Source = p
	if rs.Name == "" {
		rs.Name = strings.TrimSuffix(path.Base(p), path.Ext(p))
	}
	if err := rs.Prepare(mode); err != nil {
		return nil, err
	}
	return rs, nil
}

// LoadRegistry reads registry.yaml and checks that every platform names globs
// and a rule document.
func (l *Loader) LoadRegistry() (*domain.Registry, error) {
	data, err := fs.ReadFile(l.fsys, l.registry)
	if err != nil {
		return nil, fmt.Errorf("reading platform registry: %w", err)
	}

	var reg domain.Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", l.registry, err)
	}

	seen := make(map[string]bool)
	for i := range reg.Platforms {
		p := &reg.Platforms[i]
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		switch {
		case p.Name == "":
			return nil, fmt.Errorf("invalid %s: platforms[%d]: missing name", l.registry, i)
		case seen[p.Name]:
			return nil, fmt.Errorf("invalid %s: duplicate platform %q", l.registry, p.Name)
		case len(p.FileTypes) == 0:
			return nil, fmt.Errorf("invalid %s: platform %q has no filetypes", l.registry, p.Name)
		case p.RulesPath == "":
			return nil, fmt.Errorf("invalid %s: platform %q has no rules", l.registry, p.Name)
		}
		seen[p.Name] = true
	}
	if reg.CommonRules == "" {
		if common, ok := reg.Lookup(domain.CommonPlatform); ok {
			reg.CommonRules = common.RulesPath
		}
	}
	return &reg, nil
}

func decodeYAML(data []byte) (*domain.RuleSet, error) {
	var rs domain.RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("parsing rule document: %w", err)
	}
	return &rs, nil
}

// xmlRules mirrors the legacy XML layout:
// <rules><category name=".."><rule>..</rule></category></rules>, or rules
// directly under the root.
type xmlRules struct {
	XMLName    xml.Name      `xml:"rules"`
	Platform   string        `xml:"platform,attr"`
	Categories []xmlCategory `xml:"category"`
	Rules      []xmlRule     `xml:"rule"`
}

type xmlCategory struct {
	Name  string    `xml:"name,attr"`
	Rules []xmlRule `xml:"rule"`
}

type xmlRule struct {
	Name      string `xml:"name"`
	Regex     string `xml:"regex"`
	Exclude   string `xml:"exclude"`
	RuleDesc  string `xml:"rule_desc"`
	VulnDesc  string `xml:"vuln_desc"`
	Developer string `xml:"developer"`
	Reviewer  string `xml:"reviewer"`
}

func (r xmlRule) toRule() domain.Rule {
	return domain.Rule{
		Name:          strings.TrimSpace(r.Name),
		Pattern:       r.Regex,
		Exclude:       r.Exclude,
		RuleDesc:      strings.TrimSpace(r.RuleDesc),
		IssueDesc:     strings.TrimSpace(r.VulnDesc),
		DeveloperNote: strings.TrimSpace(r.Developer),
		ReviewerNote:  strings.TrimSpace(r.Reviewer),
	}
}

func decodeXML(data []byte) (*domain.RuleSet, error) {
	var doc xmlRules
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rule document: %w", err)
	}

	rs := &domain.RuleSet{Name: doc.Platform}
	for _, c := range doc.Categories {
		cat := domain.Category{Name: c.Name}
		for _, r := range c.Rules {
			cat.Rules = append(cat.Rules, r.toRule())
		}
		rs.Categories = append(rs.Categories, cat)
	}
	for _, r := range doc.Rules {
		rs.Rules = append(rs.Rules, r.toRule())
	}
	return rs, nil
}
