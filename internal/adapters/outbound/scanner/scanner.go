package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dakshscra/scra/internal/domain"
	"github.com/hashicorp/go-hclog"
)

// FileScanner implements domain.FileClassifier by walking the filesystem once.
type FileScanner struct {
	skipDirs map[string]bool
	ignore   []string
	logger   hclog.Logger
}

// New creates a FileScanner that never descends into the named directories.
func New(logger hclog.Logger, excludeDirs ...string) *FileScanner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	skip := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		skip[strings.TrimSuffix(d, "/")] = true
	}
	return &FileScanner{skipDirs: skip, logger: logger}
}

// Ignore makes the walk skip the given directories, typically the report
// directory of earlier runs. Relative paths are resolved against the working
// directory.
func (s *FileScanner) Ignore(dirs ...string) *FileScanner {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if abs, err := filepath.Abs(d); err == nil {
			s.ignore = append(s.ignore, abs)
		}
	}
	return s
}

// Classify walks root and matches every regular file's name against each
// platform's globs. In allFiles mode every file matches every platform.
func (s *FileScanner) Classify(ctx context.Context, platforms []domain.Platform, root string, allFiles bool) (*domain.Classification, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotDirectory, root)
	}

	if !allFiles {
		for _, p := range platforms {
			for _, g := range p.FileTypes {
				if _, err := filepath.Match(g, ""); err != nil {
					return nil, fmt.Errorf("platform %s: invalid file type %q: %w", p.Name, g, err)
				}
			}
		}
	}

	c := &domain.Classification{
		Root:        absRoot,
		PerPlatform: make(map[string][]domain.DiscoveredFile, len(platforms)),
		Extensions:  make(map[string][]string),
	}
	for _, p := range platforms {
		c.Platforms = append(c.Platforms, p.Name)
		c.PerPlatform[p.Name] = nil
	}
	seenExt := make(map[string]map[string]bool)

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == absRoot {
				return err
			}
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != absRoot && (s.skipDirs[d.Name()] || s.ignored(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		c.FilesPresent++
		ext := domain.Extension(d.Name())
		inMaster := false
		for _, p := range platforms {
			if !allFiles && !matchAny(p.FileTypes, d.Name()) {
				continue
			}
			c.PerPlatform[p.Name] = append(c.PerPlatform[p.Name], domain.DiscoveredFile{
				AbsPath: path, Platform: p.Name, Extension: ext,
			})
			c.FilesClassified++

			if ext != "" {
				if seenExt[p.Name] == nil {
					seenExt[p.Name] = make(map[string]bool)
				}
				if !seenExt[p.Name][ext] {
					seenExt[p.Name][ext] = true
					c.Extensions[p.Name] = append(c.Extensions[p.Name], ext)
				}
			}

			if !inMaster {
				inMaster = true
				c.Master = append(c.Master, domain.DiscoveredFile{AbsPath: path, Platform: p.Name, Extension: ext})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("classification complete",
		"root", absRoot, "present", c.FilesPresent, "classified", c.FilesClassified, "master", len(c.Master))
	return c, nil
}

func (s *FileScanner) ignored(path string) bool {
	for _, p := range s.ignore {
		if path == p {
			return true
		}
	}
	return false
}

func matchAny(globs []string, name string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}
