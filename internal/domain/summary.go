package domain

import (
	"fmt"
	"time"
)

// RunSummary is the structured record handed to reporting. The top-level
// sections and their keys are consumed by external report generators.
type RunSummary struct {
	RunID    string `json:"run_id"`
	Commit   string `json:"commit,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Complete bool   `json:"complete"`

	Inputs     InputsReceived   `json:"inputs_received"`
	Detection  DetectionSummary `json:"detection_summary"`
	Timeline   ScanTimeline     `json:"scanning_timeline"`
	SourceScan ScanOutcome      `json:"source_files_scanning_summary"`
	PathScan   ScanOutcome      `json:"paths_scanning_summary"`

	// RuleSets holds each rule set's own verdicts before aggregation.
	RuleSets []PassResult `json:"rule_sets,omitempty"`
}

// InputsReceived describes what the run was asked to do.
type InputsReceived struct {
	RuleSelected           string   `json:"rule_selected"`
	TotalRulesLoaded       int      `json:"total_rules_loaded"`
	PlatformSpecificRules  string   `json:"platform_specific_rules"`
	CommonRules            int      `json:"common_rules"`
	TargetDirectory        string   `json:"target_directory"`
	FileTypesSelected      string   `json:"filetypes_selected"`
	FileExtensionsSelected []string `json:"file_extensions_selected"`
}

// DetectionSummary holds the counters as they stood at the end of the run.
type DetectionSummary struct {
	TotalProjectFiles    int64               `json:"total_project_files_identified"`
	TotalFilesIdentified int64               `json:"total_files_identified"`
	TotalFilesScanned    int64               `json:"total_files_scanned"`
	FileReadErrors       int64               `json:"file_read_errors"`
	FileExtensions       map[string][]string `json:"file_extensions_identified"`
	AreasOfInterest      int64               `json:"areas_of_interest_identified"`
	PathAreasOfInterest  int64               `json:"file_paths_areas_of_interest_identified"`
	TotalFindings        int64               `json:"total_findings"`
	MasterFiles          int                 `json:"master_files_identified"`
}

// ScanTimeline records wall-clock start, end and duration.
type ScanTimeline struct {
	Start    string `json:"scan_start_time"`
	End      string `json:"scan_end_time"`
	Duration string `json:"scan_duration"`
}

// ScanOutcome is the aggregated matched/unmatched name lists for a pass kind.
type ScanOutcome struct {
	Matched   []string `json:"matched_rules"`
	Unmatched []string `json:"unmatched_rules"`
}

// TimestampLayout is the layout of the timeline's start and end times.
const TimestampLayout = "2006-01-02 15:04:05"

// NewRunSummary returns a summary with every list and map non-nil, so the
// JSON record always carries the full key layout.
func NewRunSummary(runID string) *RunSummary {
	s := &RunSummary{RunID: runID}
	s.Inputs.FileExtensionsSelected = []string{}
	s.Detection.FileExtensions = map[string][]string{}
	s.SourceScan = ScanOutcome{Matched: []string{}, Unmatched: []string{}}
	s.PathScan = ScanOutcome{Matched: []string{}, Unmatched: []string{}}
	return s
}

// ApplyCounters copies a counter snapshot into the detection section.
func (s *RunSummary) ApplyCounters(c CounterSnapshot) {
	s.Detection.TotalProjectFiles = c.FilesPresent
	s.Detection.TotalFilesIdentified = c.FilesClassified
	s.Detection.TotalFilesScanned = c.FilesScanned
	s.Detection.FileReadErrors = c.ReadErrors
	s.Detection.AreasOfInterest = c.ContentMatches
	s.Detection.PathAreasOfInterest = c.PathMatches
	s.Detection.TotalFindings = c.Findings
}

// SetTimeline fills the timeline section.
func (s *RunSummary) SetTimeline(start, end time.Time) {
	s.Timeline = ScanTimeline{
		Start:    start.Format(TimestampLayout),
		End:      end.Format(TimestampLayout),
		Duration: FormatDuration(end.Sub(start)),
	}
}

// Aggregate merges per-rule-set results into one outcome, de-duplicating by
// name. A name matched by any rule set is reported as matched only.
func Aggregate(results []PassResult) ScanOutcome {
	out := ScanOutcome{Matched: []string{}, Unmatched: []string{}}
	matched := make(map[string]bool)
	for _, r := range results {
		for _, name := range r.Matched {
			if !matched[name] {
				matched[name] = true
				out.Matched = append(out.Matched, name)
			}
		}
	}
	seen := make(map[string]bool)
	for _, r := range results {
		for _, name := range r.Unmatched {
			if matched[name] || seen[name] {
				continue
			}
			seen[name] = true
			out.Unmatched = append(out.Unmatched, name)
		}
	}
	return out
}

// FormatDuration renders d as "00Hr:00Min:05s:123ms".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	d -= sec * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02dHr:%02dMin:%02ds:%dms", int64(h), int64(m), int64(sec), int64(ms))
}
