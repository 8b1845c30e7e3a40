package domain

import "context"

// RuleLoader decodes and prepares one rule document.
type RuleLoader interface {
	LoadRuleSet(path string, mode MatchMode) (*RuleSet, error)
}

// RegistryLoader loads the platform registry.
type RegistryLoader interface {
	LoadRegistry() (*Registry, error)
}

// RuleSource is a rule pack: a registry plus the documents it names.
type RuleSource interface {
	RuleLoader
	RegistryLoader
}

// FileClassifier walks a target directory once and classifies its files.
type FileClassifier interface {
	Classify(ctx context.Context, platforms []Platform, root string, allFiles bool) (*Classification, error)
}

// SourceReader streams the decoded lines of a file, numbered from 1, without
// line terminators. The file is closed before ReadLines returns.
type SourceReader interface {
	ReadLines(path string, fn func(n int, line string) bool) error
}

// FindingsWriter emits the content findings protocol. Group numbers are owned
// by the writer and increase across every pass sharing it.
type FindingsWriter interface {
	BeginGroup(r *Rule) (int, error)
	AddFinding(f Finding) error
	EndGroup() error
}

// PathFindingsWriter emits the path findings protocol.
type PathFindingsWriter interface {
	BeginGroup(r *Rule) (int, error)
	AddPath(p PathFinding) error
	EndGroup() error
}

// ReportSink opens the artifacts a run writes into its output directory.
type ReportSink interface {
	Open(outDir string) (Report, error)
}

// Report is one run's open set of artifacts. Close is called exactly once,
// also after a failed or cancelled run, and writes the summary.
type Report interface {
	Findings() FindingsWriter
	PathFindings() PathFindingsWriter
	WriteDiscovered(paths []string) error
	Close(s *RunSummary) error
}

// DirLocker guards an output directory against concurrent runs.
type DirLocker interface {
	Lock(dir string) (unlock func() error, err error)
}

// Progress receives operator-facing progress events. Implementations must be
// safe for concurrent use.
type Progress interface {
	Stage(title string)
	Info(label, value string)
	RuleSet(name string, rules int)
	Rule(name string)
	File(n int, path string)
	Done()
}

// PlatformDetector picks the registry platforms present in a directory.
type PlatformDetector interface {
	Detect(ctx context.Context, reg *Registry, root string) ([]string, error)
}

// SummaryStore persists the run summary record.
type SummaryStore interface {
	Save(outDir string, s *RunSummary) error
	Load(outDir string) (*RunSummary, error)
}

// RunHistory appends and lists previous runs.
type RunHistory interface {
	Save(outDir string, entry HistoryEntry) error
	Load(outDir string) ([]HistoryEntry, error)
}

// GitInfo reads version control metadata of a target directory.
type GitInfo interface {
	CommitHash(path string) (string, error)
	Branch(path string) (string, error)
}

// ChangeWatcher blocks until ctx is done, calling onChange with the paths
// touched since the previous call once the tree has been quiet for a while.
type ChangeWatcher interface {
	Watch(ctx context.Context, root string, onChange func(changed []string)) error
}

// ConfigLoader loads tool configuration.
type ConfigLoader interface {
	Load(path string) (ToolConfig, error)
}

// HistoryEntry is one line of run history.
type HistoryEntry struct {
	RunID           string `json:"run_id"`
	Timestamp       string `json:"timestamp"`
	Target          string `json:"target"`
	Platforms       string `json:"platforms"`
	CommitHash      string `json:"commit_hash,omitempty"`
	FilesScanned    int64  `json:"files_scanned"`
	ReadErrors      int64  `json:"file_read_errors"`
	AreasOfInterest int64  `json:"areas_of_interest"`
	PathAreas       int64  `json:"path_areas_of_interest"`
	Duration        string `json:"duration"`
	Complete        bool   `json:"complete"`
}
