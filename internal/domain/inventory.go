package domain

import "sort"

// Inventory is the all-files view of a target directory used for
// reconnaissance before choosing platforms.
type Inventory struct {
	Root         string           `json:"root"`
	FilesPresent int              `json:"files_present"`
	Platforms    []string         `json:"platforms_detected"`
	Extensions   []ExtensionCount `json:"extensions"`
}

// ExtensionCount is how many files carry one suffix. Files without a suffix
// are counted under the empty string.
type ExtensionCount struct {
	Extension string `json:"extension"`
	Files     int    `json:"files"`
}

// CountExtensions tallies the master list by extension, most frequent first
// and alphabetical among ties.
func CountExtensions(files []DiscoveredFile) []ExtensionCount {
	counts := make(map[string]int)
	for _, f := range files {
		counts[f.Extension]++
	}
	out := make([]ExtensionCount, 0, len(counts))
	for ext, n := range counts {
		out = append(out, ExtensionCount{Extension: ext, Files: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Files != out[j].Files {
			return out[i].Files > out[j].Files
		}
		return out[i].Extension < out[j].Extension
	})
	return out
}
