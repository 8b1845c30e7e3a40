package domain

import (
	"path/filepath"
	"strings"
)

// DiscoveredFile is one (file, platform) classification match.
type DiscoveredFile struct {
	AbsPath   string `json:"absolute_path"`
	Platform  string `json:"platform"`
	Extension string `json:"extension"`
}

// Classification is the result of one walk over the target directory.
type Classification struct {
	Root string `json:"root"`

	// Master holds each classified path once, in walk order.
	Master []DiscoveredFile `json:"master"`
	// PerPlatform holds each platform's matches in walk order.
	PerPlatform map[string][]DiscoveredFile `json:"per_platform"`
	// Platforms is the classification order of PerPlatform keys.
	Platforms []string `json:"platforms"`
	// Extensions holds distinct extensions per platform in first-seen order.
	// Platforms without any are absent.
	Extensions map[string][]string `json:"extensions"`

	// FilesPresent counts every regular file visited.
	FilesPresent int `json:"files_present"`
	// FilesClassified counts every (file, platform) match.
	FilesClassified int `json:"files_classified"`
}

// Files returns the list for a platform, or the master list for CommonPlatform.
func (c *Classification) Files(platform string) []DiscoveredFile {
	if platform == CommonPlatform {
		return c.Master
	}
	return c.PerPlatform[platform]
}

// Multiplicity returns how many platform lists contain the path.
func (c *Classification) Multiplicity(absPath string) int {
	n := 0
	for _, files := range c.PerPlatform {
		for _, f := range files {
			if f.AbsPath == absPath {
				n++
				break
			}
		}
	}
	return n
}

// SourceFilePath rewrites an absolute path into "<project dir>/<relative path>"
// with forward slashes, the form every protocol line and report uses.
func SourceFilePath(root, absPath string) string {
	rel := RelativePath(root, absPath)
	base := filepath.Base(filepath.Clean(root))
	if base == "." || base == string(filepath.Separator) {
		return rel
	}
	return base + "/" + rel
}

// RelativePath returns absPath relative to root with forward slashes. Paths
// outside root are returned unchanged.
func RelativePath(root, absPath string) string {
	rel, err := filepath.Rel(root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(absPath)
	}
	return filepath.ToSlash(rel)
}

// Extension returns the file suffix including the dot, or "" when there is none.
func Extension(name string) string {
	return filepath.Ext(name)
}
