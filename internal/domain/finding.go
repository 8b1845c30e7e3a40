package domain

// Finding is one matching line, with the path already rewritten by SourceFilePath.
type Finding struct {
	RuleName   string `json:"rule_name"`
	SourceFile string `json:"source_file"`
	Line       int    `json:"line_number"`
	Text       string `json:"line_text"`
}

// PathFinding is one path matched by a path rule.
type PathFinding struct {
	RuleName string `json:"rule_name"`
	Path     string `json:"path"`
}

// MatchGroup is everything one rule matched within one pass.
type MatchGroup struct {
	Number   int       `json:"number"`
	Rule     Rule      `json:"rule"`
	Findings []Finding `json:"findings,omitempty"`
	Paths    []string  `json:"paths,omitempty"`
}

// PassResult partitions a rule set's names into matched and unmatched, both in
// document order. The two lists never share a name.
type PassResult struct {
	RuleSet   string   `json:"rule_set"`
	Matched   []string `json:"matched_rules"`
	Unmatched []string `json:"unmatched_rules"`
	Findings  int      `json:"findings"`
	// Incomplete is set when the pass stopped early; rules never evaluated are
	// in neither list.
	Incomplete bool `json:"incomplete,omitempty"`
}

// Evaluated returns the number of rules that reached a verdict.
func (p PassResult) Evaluated() int { return len(p.Matched) + len(p.Unmatched) }
