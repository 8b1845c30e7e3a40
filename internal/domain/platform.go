package domain

import (
	"sort"
	"strings"
)

// Platform is a technology with its own file-type globs and rule document.
type Platform struct {
	Name      string   `yaml:"name"      json:"name"`
	FileTypes []string `yaml:"filetypes" json:"filetypes"`
	RulesPath string   `yaml:"rules"     json:"rules"`
}

// Registry maps platform names to their globs and rule documents, plus the
// documents for the platform-independent content and path rule sets.
type Registry struct {
	Platforms   []Platform `yaml:"platforms"    json:"platforms"`
	CommonRules string     `yaml:"common_rules" json:"common_rules"`
	PathRules   string     `yaml:"path_rules"   json:"path_rules"`
}

// CommonPlatform is the reserved name of the platform-independent rule set.
const CommonPlatform = "common"

// PathPlatform is the conventional name of the path rule set.
const PathPlatform = "filepaths"

// Lookup returns the platform with the given name.
func (r *Registry) Lookup(name string) (Platform, bool) {
	for _, p := range r.Platforms {
		if p.Name == name {
			return p, true
		}
	}
	return Platform{}, false
}

// Names returns the registered platform names, sorted, minus any excluded names.
func (r *Registry) Names(exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	var names []string
	for _, p := range r.Platforms {
		if !skip[p.Name] {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Resolve maps a selection to registry platforms in selection order. Every
// unknown name is reported at once.
func (r *Registry) Resolve(sel PlatformSelection) ([]Platform, error) {
	if len(sel) == 0 {
		return nil, ErrNoPlatforms
	}
	var (
		out     []Platform
		unknown []string
	)
	for _, name := range sel {
		p, ok := r.Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, p)
	}
	if len(unknown) > 0 {
		return nil, &UnknownPlatformError{Names: unknown, Available: r.Names()}
	}
	return out, nil
}

// PlatformSelection is the ordered, de-duplicated set of platforms for a run.
type PlatformSelection []string

// ParsePlatformSelection splits a comma list, dropping blanks and duplicates
// while keeping first-seen order. Names are lower-cased.
func ParsePlatformSelection(s string) PlatformSelection {
	s = strings.Join(strings.Fields(s), "")
	seen := make(map[string]bool)
	var sel PlatformSelection
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		sel = append(sel, name)
	}
	return sel
}

func (s PlatformSelection) String() string { return strings.Join(s, ",") }

// ParseFileTypes splits a comma list of globs such as "*.java,*.jsp".
func ParseFileTypes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if g := strings.TrimSpace(part); g != "" {
			out = append(out, g)
		}
	}
	return out
}
