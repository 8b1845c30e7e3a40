package domain

import (
	"sync"
	"sync/atomic"
)

// RunCounters are the run-wide, monotonically increasing counters. All methods
// are safe for concurrent use.
type RunCounters struct {
	filesPresent    atomic.Int64
	filesClassified atomic.Int64
	contentMatches  atomic.Int64
	findings        atomic.Int64
	pathMatches     atomic.Int64
	readErrors      atomic.Int64

	failed sync.Map // abs path -> struct{}
}

// CounterSnapshot is a point-in-time copy of RunCounters.
type CounterSnapshot struct {
	FilesPresent    int64 `json:"files_present"`
	FilesClassified int64 `json:"files_classified"`
	FilesScanned    int64 `json:"files_scanned"`
	ContentMatches  int64 `json:"content_matches"`
	Findings        int64 `json:"findings"`
	PathMatches     int64 `json:"path_matches"`
	ReadErrors      int64 `json:"file_read_errors"`
}

func (c *RunCounters) AddFilesPresent(n int)    { c.filesPresent.Add(int64(n)) }
func (c *RunCounters) AddFilesClassified(n int) { c.filesClassified.Add(int64(n)) }
func (c *RunCounters) AddFindings(n int)        { c.findings.Add(int64(n)) }

// AddContentMatches counts content match groups, one per rule per pass.
func (c *RunCounters) AddContentMatches(n int) { c.contentMatches.Add(int64(n)) }

// AddPathMatches counts path match groups, one per path rule.
func (c *RunCounters) AddPathMatches(n int) { c.pathMatches.Add(int64(n)) }

// RecordReadError counts a failed read of path once per run, weighted by the
// number of classification matches the path contributed, so that files
// scanned stays equal to files classified minus read errors. It reports
// whether this was the first failure recorded for the path.
func (c *RunCounters) RecordReadError(path string, weight int) bool {
	if _, loaded := c.failed.LoadOrStore(path, struct{}{}); loaded {
		return false
	}
	if weight < 1 {
		weight = 1
	}
	c.readErrors.Add(int64(weight))
	return true
}

// Failed reports whether a read error was already recorded for path.
func (c *RunCounters) Failed(path string) bool {
	_, ok := c.failed.Load(path)
	return ok
}

func (c *RunCounters) Snapshot() CounterSnapshot {
	s := CounterSnapshot{
		FilesPresent:    c.filesPresent.Load(),
		FilesClassified: c.filesClassified.Load(),
		ContentMatches:  c.contentMatches.Load(),
		Findings:        c.findings.Load(),
		PathMatches:     c.pathMatches.Load(),
		ReadErrors:      c.readErrors.Load(),
	}
	s.FilesScanned = s.FilesClassified - s.ReadErrors
	if s.FilesScanned < 0 {
		s.FilesScanned = 0
	}
	return s
}
