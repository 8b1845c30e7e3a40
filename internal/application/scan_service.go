package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dakshscra/scra/internal/domain"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// AutoPlatforms asks the scan to detect platforms from the target's files.
const AutoPlatforms = "auto"

// ScanOptions are the resolved inputs of one run.
type ScanOptions struct {
	Target string
	// Platforms is a comma list of platform names, or AutoPlatforms.
	Platforms string
	// FileTypes optionally replaces every selected platform's globs. Entries
	// are globs ("*.jsp") or platform names whose globs are used.
	FileTypes   string
	OutputDir   string
	Exclusions  bool
	Concurrency int
}

// ScanReport is what a run produced.
type ScanReport struct {
	Summary   *domain.RunSummary
	OutputDir string
}

// ScanService orchestrates a run:
// validate inputs → load rules → classify → platform passes → common pass →
// path pass → summary.
type ScanService struct {
	rules      domain.RuleSource
	classifier domain.FileClassifier
	reader     domain.SourceReader
	detector   domain.PlatformDetector
	sink       domain.ReportSink
	locker     domain.DirLocker
	history    domain.RunHistory
	git        domain.GitInfo
	progress   domain.Progress
	logger     hclog.Logger
}

func NewScanService(
	rules domain.RuleSource,
	classifier domain.FileClassifier,
	reader domain.SourceReader,
	detector domain.PlatformDetector,
	sink domain.ReportSink,
	locker domain.DirLocker,
	history domain.RunHistory,
	git domain.GitInfo,
	progress domain.Progress,
	logger hclog.Logger,
) *ScanService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if progress == nil {
		progress = nopProgress{}
	}
	return &ScanService{
		rules:      rules,
		classifier: classifier,
		reader:     reader,
		detector:   detector,
		sink:       sink,
		locker:     locker,
		history:    history,
		git:        git,
		progress:   progress,
		logger:     logger,
	}
}

// rulePlan is the loaded rule sets of a run, in pass order.
type rulePlan struct {
	platforms []*domain.RuleSet
	common    *domain.RuleSet
	paths     *domain.RuleSet
}

// Scan runs the engine. Fatal input problems return an error before anything
// is written. Once passes have started, the summary is written even if the
// run is cancelled or a pass fails; the error is returned alongside the report.
func (s *ScanService) Scan(ctx context.Context, opts ScanOptions) (*ScanReport, error) {
	start := time.Now()

	// 0. Target
	root, err := checkTarget(opts.Target)
	if err != nil {
		return nil, err
	}

	// 1. Registry and platform selection
	reg, err := s.rules.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading platform registry: %w", err)
	}
	sel, err := s.selectPlatforms(ctx, reg, root, opts.Platforms)
	if err != nil {
		return nil, err
	}
	selected, err := reg.Resolve(sel)
	if err != nil {
		return nil, err
	}
	passes, classify := splitCommon(selected)

	// 2. File type override
	if strings.TrimSpace(opts.FileTypes) != "" {
		globs, err := ResolveFileTypes(reg, opts.FileTypes)
		if err != nil {
			return nil, err
		}
		for i := range classify {
			classify[i].FileTypes = globs
		}
	}

	// 3. Rules
	plan, err := s.loadRules(reg, passes)
	if err != nil {
		return nil, err
	}

	// 4. Classification
	s.progress.Stage("[Stage 1] File Path Discovery")
	s.progress.Info("Target Directory", root)
	s.progress.Info("Platforms", sel.String())
	c, err := s.classifier.Classify(ctx, classify, root, false)
	if err != nil {
		return nil, fmt.Errorf("classifying files: %w", err)
	}
	s.progress.Info("Total files to be scanned", fmt.Sprintf("%d", len(c.Master)))

	// 5. Output
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = domain.DefaultOutputDir
	}
	unlock, err := s.locker.Lock(outDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.Warn("releasing report directory", "error", err)
		}
	}()
	rep, err := s.sink.Open(outDir)
	if err != nil {
		return nil, err
	}

	rc := NewRunContext(c, s.reader, s.progress, s.logger, opts.Exclusions, opts.Concurrency)
	content, paths, passErr := s.runPasses(ctx, rc, plan, rep)
	if passErr == nil {
		passErr = ctx.Err()
	}
	s.progress.Done()

	// 6. Summary
	sum := s.summarize(rc, plan, sel, classify, root)
	sum.SourceScan = domain.Aggregate(content)
	sum.PathScan = domain.Aggregate(paths)
	sum.RuleSets = append(content, paths...)
	sum.Complete = passErr == nil
	sum.SetTimeline(start, time.Now())

	discovered := make([]string, len(c.Master))
	for i, f := range c.Master {
		discovered[i] = domain.SourceFilePath(root, f.AbsPath)
	}
	writeErr := errors.Join(rep.WriteDiscovered(discovered), rep.Close(sum))
	if writeErr != nil {
		writeErr = fmt.Errorf("writing reports: %w", writeErr)
	}

	s.recordHistory(outDir, sum, start)

	return &ScanReport{Summary: sum, OutputDir: outDir}, errors.Join(passErr, writeErr)
}

func (s *ScanService) runPasses(ctx context.Context, rc *RunContext, plan *rulePlan, rep domain.Report) (content, paths []domain.PassResult, err error) {
	c := rc.classification

	s.progress.Stage("[Stage 2] Rule Based Source Code Scanning")
	sets := plan.platforms
	if plan.common != nil {
		sets = append(sets[:len(sets):len(sets)], plan.common)
	}
	for _, rs := range sets {
		res, err := rc.ScanContent(ctx, rs, c.Files(rs.Name), rep.Findings())
		content = append(content, res)
		if err != nil || res.Incomplete {
			return content, nil, err
		}
	}

	if plan.paths != nil {
		s.progress.Stage("[Stage 3] File Path Scanning")
		res, err := rc.ScanPaths(ctx, plan.paths, c.Master, rep.PathFindings())
		paths = append(paths, res)
		if err != nil {
			return content, paths, err
		}
	}
	return content, paths, nil
}

func (s *ScanService) selectPlatforms(ctx context.Context, reg *domain.Registry, root, selected string) (domain.PlatformSelection, error) {
	if strings.EqualFold(strings.TrimSpace(selected), AutoPlatforms) {
		names, err := s.detector.Detect(ctx, reg, root)
		if err != nil {
			return nil, fmt.Errorf("detecting platforms: %w", err)
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: nothing detected in %s", domain.ErrNoPlatforms, root)
		}
		s.logger.Debug("platforms detected", "platforms", strings.Join(names, ","))
		return domain.PlatformSelection(names), nil
	}
	return domain.ParsePlatformSelection(selected), nil
}

// splitCommon separates platform passes from the common platform. Common
// rules always run over the master list; selecting only "common" classifies
// with the common platform's globs and runs no platform pass.
func splitCommon(selected []domain.Platform) (passes, classify []domain.Platform) {
	var common *domain.Platform
	for i, p := range selected {
		if p.Name == domain.CommonPlatform {
			common = &selected[i]
			continue
		}
		passes = append(passes, p)
	}
	if len(passes) == 0 && common != nil {
		return nil, []domain.Platform{*common}
	}
	return passes, append([]domain.Platform(nil), passes...)
}

func (s *ScanService) loadRules(reg *domain.Registry, passes []domain.Platform) (*rulePlan, error) {
	plan := &rulePlan{}
	for _, p := range passes {
		rs, err := s.rules.LoadRuleSet(p.RulesPath, domain.MatchContent)
		if err != nil {
			return nil, err
		}
		rs.Name = p.Name
		plan.platforms = append(plan.platforms, rs)
	}

	if reg.CommonRules == "" {
		s.logger.Warn("registry names no common rules; skipping common pass")
	} else {
		rs, err := s.rules.LoadRuleSet(reg.CommonRules, domain.MatchContent)
		if err != nil {
			return nil, err
		}
		rs.Name = domain.CommonPlatform
		plan.common = rs
	}

	if reg.PathRules == "" {
		s.logger.Warn("registry names no path rules; skipping path pass")
	} else {
		rs, err := s.rules.LoadRuleSet(reg.PathRules, domain.MatchPath)
		if err != nil {
			return nil, err
		}
		plan.paths = rs
	}
	return plan, nil
}

func (s *ScanService) summarize(rc *RunContext, plan *rulePlan, sel domain.PlatformSelection, classify []domain.Platform, root string) *domain.RunSummary {
	c := rc.classification
	sum := domain.NewRunSummary(uuid.NewString())

	var counts []string
	total := 0
	for _, rs := range plan.platforms {
		counts = append(counts, fmt.Sprintf("%s[%d]", rs.Name, rs.Count()))
		total += rs.Count()
	}
	if plan.common != nil {
		sum.Inputs.CommonRules = plan.common.Count()
		total += plan.common.Count()
	}
	globs := distinctGlobs(classify)
	sum.Inputs.RuleSelected = sel.String()
	sum.Inputs.TotalRulesLoaded = total
	sum.Inputs.PlatformSpecificRules = strings.Join(counts, ", ")
	sum.Inputs.TargetDirectory = root
	sum.Inputs.FileTypesSelected = strings.Join(globs, ", ")
	sum.Inputs.FileExtensionsSelected = globs

	sum.ApplyCounters(rc.Counters.Snapshot())
	for platform, exts := range c.Extensions {
		sum.Detection.FileExtensions[platform] = exts
	}
	sum.Detection.MasterFiles = len(c.Master)

	if s.git == nil {
		return sum
	}
	if commit, err := s.git.CommitHash(root); err == nil {
		sum.Commit = commit
		sum.Branch, _ = s.git.Branch(root)
	} else {
		s.logger.Debug("no git metadata for target", "error", err)
	}
	return sum
}

func (s *ScanService) recordHistory(outDir string, sum *domain.RunSummary, start time.Time) {
	if s.history == nil {
		return
	}
	d := sum.Detection
	entry := domain.HistoryEntry{
		RunID:           sum.RunID,
		Timestamp:       start.Format(domain.TimestampLayout),
		Target:          sum.Inputs.TargetDirectory,
		Platforms:       sum.Inputs.RuleSelected,
		CommitHash:      sum.Commit,
		FilesScanned:    d.TotalFilesScanned,
		ReadErrors:      d.FileReadErrors,
		AreasOfInterest: d.AreasOfInterest,
		PathAreas:       d.PathAreasOfInterest,
		Duration:        sum.Timeline.Duration,
		Complete:        sum.Complete,
	}
	if err := s.history.Save(outDir, entry); err != nil {
		s.logger.Warn("recording run history", "error", err)
	}
}

func checkTarget(target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", fmt.Errorf("%w: no target directory given", domain.ErrNotDirectory)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", domain.ErrNotDirectory, target)
	}
	return abs, nil
}

func distinctGlobs(platforms []domain.Platform) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range platforms {
		for _, g := range p.FileTypes {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

// ResolveFileTypes expands a file type override. Entries that look like globs
// or suffixes are kept; anything else must name a platform, whose globs are
// used instead.
func ResolveFileTypes(reg *domain.Registry, fileTypes string) ([]string, error) {
	var (
		globs   []string
		unknown []string
	)
	for _, entry := range domain.ParseFileTypes(fileTypes) {
		if strings.ContainsAny(entry, "*?[.") {
			globs = append(globs, entry)
			continue
		}
		p, ok := reg.Lookup(strings.ToLower(entry))
		if !ok {
			unknown = append(unknown, entry)
			continue
		}
		globs = append(globs, p.FileTypes...)
	}
	if len(unknown) > 0 {
		return nil, &domain.UnknownPlatformError{Names: unknown, Available: reg.Names()}
	}
	return globs, nil
}
