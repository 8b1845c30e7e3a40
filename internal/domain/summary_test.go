package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dakshscra/scra/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	d := 1*time.Hour + 2*time.Minute + 5*time.Second + 123*time.Millisecond
	assert.Equal(t, "01Hr:02Min:05s:123ms", domain.FormatDuration(d))
	assert.Equal(t, "00Hr:00Min:00s:0ms", domain.FormatDuration(0))
}

func TestAggregate_DeduplicatesAndKeepsDisjoint(t *testing.T) {
	out := domain.Aggregate([]domain.PassResult{
		{RuleSet: "php", Matched: []string{"Eval"}, Unmatched: []string{"Hardcoded Secret", "Shell"}},
		{RuleSet: "common", Matched: []string{"Hardcoded Secret"}, Unmatched: []string{"Shell", "Todo"}},
	})
	assert.Equal(t, []string{"Eval", "Hardcoded Secret"}, out.Matched)
	assert.Equal(t, []string{"Shell", "Todo"}, out.Unmatched)
}

func TestNewRunSummary_FullKeyLayout(t *testing.T) {
	data, err := json.Marshal(domain.NewRunSummary("run-1"))
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &top))
	raw := map[string]map[string]any{}
	for _, key := range []string{"inputs_received", "detection_summary", "scanning_timeline",
		"source_files_scanning_summary", "paths_scanning_summary"} {
		var section map[string]any
		require.Contains(t, top, key)
		require.NoError(t, json.Unmarshal(top[key], &section))
		raw[key] = section
	}

	assert.Contains(t, raw["inputs_received"], "file_extensions_selected")
	assert.Contains(t, raw["detection_summary"], "total_files_scanned")
	assert.Contains(t, raw["detection_summary"], "file_paths_areas_of_interest_identified")
	assert.Equal(t, []any{}, raw["source_files_scanning_summary"]["matched_rules"])
	assert.Equal(t, []any{}, raw["paths_scanning_summary"]["unmatched_rules"])
}

func TestApplyCounters(t *testing.T) {
	s := domain.NewRunSummary("run-1")
	s.ApplyCounters(domain.CounterSnapshot{
		FilesPresent: 10, FilesClassified: 10, FilesScanned: 9, ReadErrors: 1,
		ContentMatches: 2, PathMatches: 1, Findings: 7,
	})
	assert.Equal(t, int64(10), s.Detection.TotalProjectFiles)
	assert.Equal(t, int64(9), s.Detection.TotalFilesScanned)
	assert.Equal(t, int64(2), s.Detection.AreasOfInterest)
	assert.Equal(t, int64(1), s.Detection.PathAreasOfInterest)
	assert.Equal(t, int64(7), s.Detection.TotalFindings)
}

func TestSetTimeline(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := domain.NewRunSummary("run-1")
	s.SetTimeline(start, start.Add(65*time.Second))

	assert.Equal(t, "2026-03-01 10:00:00", s.Timeline.Start)
	assert.Equal(t, "2026-03-01 10:01:05", s.Timeline.End)
	assert.Equal(t, "00Hr:01Min:05s:0ms", s.Timeline.Duration)
}
