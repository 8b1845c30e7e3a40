package application

import (
	"context"
	"runtime"
	"sync"

	"github.com/dakshscra/scra/internal/domain"
	"github.com/hashicorp/go-hclog"
)

// RunContext carries everything one scan shares across its passes. Counters
// are the only state mutated concurrently.
type RunContext struct {
	Counters *domain.RunCounters

	classification *domain.Classification
	reader         domain.SourceReader
	progress       domain.Progress
	logger         hclog.Logger
	exclusions     bool
	workers        int
}

// NewRunContext prepares passes over c. A workers value below 1 means one
// worker per CPU.
func NewRunContext(c *domain.Classification, reader domain.SourceReader, progress domain.Progress, logger hclog.Logger, exclusions bool, workers int) *RunContext {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if progress == nil {
		progress = nopProgress{}
	}
	rc := &RunContext{
		Counters:       &domain.RunCounters{},
		classification: c,
		reader:         reader,
		progress:       progress,
		logger:         logger,
		exclusions:     exclusions,
		workers:        workers,
	}
	rc.Counters.AddFilesPresent(c.FilesPresent)
	rc.Counters.AddFilesClassified(c.FilesClassified)
	return rc
}

// ScanContent evaluates every rule of rs, in document order, against files.
// Files are read concurrently within a rule; a rule's findings are emitted as
// one group in file order once all files are done. A rule interrupted by ctx
// is emitted nowhere and the result is marked incomplete.
func (rc *RunContext) ScanContent(ctx context.Context, rs *domain.RuleSet, files []domain.DiscoveredFile, out domain.FindingsWriter) (domain.PassResult, error) {
	res := domain.PassResult{RuleSet: rs.Name, Matched: []string{}, Unmatched: []string{}}
	log := rc.logger.Named("content").With("rule_set", rs.Name)
	rc.progress.RuleSet(rs.Name, rs.Count())

	for _, rule := range rs.All() {
		if ctx.Err() != nil {
			res.Incomplete = true
			break
		}
		rc.progress.Rule(rule.Name)

		results := rc.evaluate(ctx, rule, files, log)
		if ctx.Err() != nil {
			res.Incomplete = true
			break
		}

		n := 0
		for _, r := range results {
			n += len(r)
		}
		if n == 0 {
			res.Unmatched = append(res.Unmatched, rule.Name)
			continue
		}

		if err := emitGroup(out, rule, results); err != nil {
			return res, err
		}
		rc.Counters.AddContentMatches(1)
		rc.Counters.AddFindings(n)
		res.Matched = append(res.Matched, rule.Name)
		res.Findings += n
	}

	log.Debug("rule set done", "matched", len(res.Matched), "unmatched", len(res.Unmatched), "findings", res.Findings)
	return res, nil
}

// evaluate fans one rule out over files with a bounded number of workers and
// returns the findings per file, indexed like files.
func (rc *RunContext) evaluate(ctx context.Context, rule *domain.Rule, files []domain.DiscoveredFile, log hclog.Logger) [][]domain.Finding {
	results := make([][]domain.Finding, len(files))
	guard := make(chan struct{}, rc.workers)
	var wg sync.WaitGroup

	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		if rc.Counters.Failed(f.AbsPath) {
			continue
		}
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, f domain.DiscoveredFile) {
			defer func() {
				<-guard
				wg.Done()
			}()
			results[i] = rc.scanFile(ctx, rule, i+1, f, log)
		}(i, f)
	}
	wg.Wait()
	return results
}

func (rc *RunContext) scanFile(ctx context.Context, rule *domain.Rule, n int, f domain.DiscoveredFile, log hclog.Logger) []domain.Finding {
	src := domain.SourceFilePath(rc.classification.Root, f.AbsPath)
	rc.progress.File(n, src)

	var found []domain.Finding
	err := rc.reader.ReadLines(f.AbsPath, func(line int, text string) bool {
		if ctx.Err() != nil {
			return false
		}
		if domain.SkipLine(text) {
			return true
		}
		if rule.MatchLine(text, rc.exclusions) {
			found = append(found, domain.Finding{
				RuleName:   rule.Name,
				SourceFile: src,
				Line:       line,
				Text:       domain.DisplayLine(text),
			})
		}
		return true
	})
	if err != nil {
		if rc.Counters.RecordReadError(f.AbsPath, rc.classification.Multiplicity(f.AbsPath)) {
			log.Warn("error processing file", "path", src, "error", err)
		}
		return nil
	}
	return found
}

func emitGroup(out domain.FindingsWriter, rule *domain.Rule, results [][]domain.Finding) error {
	if _, err := out.BeginGroup(rule); err != nil {
		return err
	}
	for _, found := range results {
		for _, f := range found {
			if err := out.AddFinding(f); err != nil {
				return err
			}
		}
	}
	return out.EndGroup()
}

// ScanPaths evaluates every path rule against the project-relative path of
// each file. Matching is done on the path below the target root so that the
// project directory name never triggers a rule; emitted paths carry it.
func (rc *RunContext) ScanPaths(ctx context.Context, rs *domain.RuleSet, files []domain.DiscoveredFile, out domain.PathFindingsWriter) (domain.PassResult, error) {
	res := domain.PassResult{RuleSet: rs.Name, Matched: []string{}, Unmatched: []string{}}
	rc.progress.RuleSet(rs.Name, rs.Count())
	root := rc.classification.Root

	for _, rule := range rs.All() {
		if ctx.Err() != nil {
			res.Incomplete = true
			break
		}

		var paths []string
		for _, f := range files {
			if rule.MatchLine(domain.RelativePath(root, f.AbsPath), rc.exclusions) {
				paths = append(paths, domain.SourceFilePath(root, f.AbsPath))
			}
		}
		if len(paths) == 0 {
			res.Unmatched = append(res.Unmatched, rule.Name)
			continue
		}

		rc.progress.Rule(rule.Name)
		if _, err := out.BeginGroup(rule); err != nil {
			return res, err
		}
		for _, p := range paths {
			if err := out.AddPath(domain.PathFinding{RuleName: rule.Name, Path: p}); err != nil {
				return res, err
			}
		}
		if err := out.EndGroup(); err != nil {
			return res, err
		}
		rc.Counters.AddPathMatches(1)
		res.Matched = append(res.Matched, rule.Name)
		res.Findings += len(paths)
	}
	return res, nil
}

type nopProgress struct{}

func (nopProgress) Stage(string) {}
func (nopProgress) Info(string, string) {}
func (nopProgress) RuleSet(string, int) {}
func (nopProgress) Rule(string) {}
func (nopProgress) File(int, string) {}
func (nopProgress) Done() {}
