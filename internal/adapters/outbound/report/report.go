// Package report lays out a run's artifacts inside its output directory.
package report

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dakshscra/scra/internal/adapters/outbound/filelock"
	"github.com/dakshscra/scra/internal/adapters/outbound/protocol"
	"github.com/dakshscra/scra/internal/adapters/outbound/sarif"
	"github.com/dakshscra/scra/internal/adapters/outbound/summary"
	"github.com/dakshscra/scra/internal/domain"
)

// Artifact locations relative to the output directory.
const (
	FindingsFile   = "text/areas_of_interest.txt"
	PathsFile      = "text/filepaths_aoi.txt"
	DiscoveredFile = "text/filepaths.txt"
	SARIFFile      = "sarif/findings.sarif"
)

// Sink implements domain.ReportSink on the local filesystem.
type Sink struct {
	// SARIF also exports content findings as a SARIF document.
	SARIF bool
	store *summary.Store
}

func NewSink(withSARIF bool) *Sink {
	return &Sink{SARIF: withSARIF, store: summary.New()}
}

func (s *Sink) Open(outDir string) (domain.Report, error) {
	r := &Report{dir: outDir, store: s.store}

	var err error
	if r.findingsFile, r.findingsBuf, err = create(outDir, FindingsFile); err != nil {
		return nil, err
	}
	if r.pathsFile, r.pathsBuf, err = create(outDir, PathsFile); err != nil {
		r.findingsFile.Close()
		return nil, err
	}

	r.findings = protocol.NewWriter(r.findingsBuf, 0)
	r.paths = protocol.NewPathWriter(r.pathsBuf)
	if s.SARIF {
		r.sarif = sarif.New()
	}
	return r, nil
}

func create(dir, name string) (*os.File, *bufio.Writer, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return f, bufio.NewWriter(f), nil
}

// Report implements domain.Report.
type Report struct {
	dir   string
	store *summary.Store

	findingsFile *os.File
	findingsBuf  *bufio.Writer
	pathsFile    *os.File
	pathsBuf     *bufio.Writer

	findings *protocol.Writer
	paths    *protocol.PathWriter
	sarif    *sarif.Exporter
}

func (r *Report) Findings() domain.FindingsWriter {
	if r.sarif == nil {
		return r.findings
	}
	return &tee{primary: r.findings, secondary: r.sarif}
}

func (r *Report) PathFindings() domain.PathFindingsWriter { return r.paths }

// WriteDiscovered writes the discovered-files list, one path per line.
func (r *Report) WriteDiscovered(paths []string) error {
	var buf bytes.Buffer
	for _, p := range paths {
		buf.WriteString(p)
		buf.WriteByte('\n')
	}
	return filelock.AtomicWrite(filepath.Join(r.dir, DiscoveredFile), buf.Bytes())
}

// Close flushes both protocol files and writes the summary record, the text
// summary and, when enabled, the SARIF export. Every step is attempted even if
// an earlier one fails.
func (r *Report) Close(s *domain.RunSummary) error {
	var errs []error
	errs = append(errs, closeFile(r.findingsFile, r.findingsBuf), closeFile(r.pathsFile, r.pathsBuf))

	if s != nil {
		errs = append(errs, r.store.Save(r.dir, s))

		var text bytes.Buffer
		if err := summary.WriteText(&text, s); err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, filelock.AtomicWrite(filepath.Join(r.dir, summary.TextFile), text.Bytes()))
		}
	}

	if r.sarif != nil {
		var doc bytes.Buffer
		if err := r.sarif.Write(&doc); err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, filelock.AtomicWrite(filepath.Join(r.dir, SARIFFile), doc.Bytes()))
		}
	}
	return errors.Join(errs...)
}

func closeFile(f *os.File, buf *bufio.Writer) error {
	flushErr := buf.Flush()
	closeErr := f.Close()
	if flushErr != nil {
		return fmt.Errorf("writing %s: %w", f.Name(), flushErr)
	}
	return closeErr
}

// tee writes findings to the protocol and the SARIF exporter. Group numbers
// come from the protocol writer.
type tee struct {
	primary   domain.FindingsWriter
	secondary domain.FindingsWriter
}

func (t *tee) BeginGroup(r *domain.Rule) (int, error) {
	n, err := t.primary.BeginGroup(r)
	if err != nil {
		return n, err
	}
	if _, err := t.secondary.BeginGroup(r); err != nil {
		return n, err
	}
	return n, nil
}

func (t *tee) AddFinding(f domain.Finding) error {
	if err := t.primary.AddFinding(f); err != nil {
		return err
	}
	return t.secondary.AddFinding(f)
}

func (t *tee) EndGroup() error {
	return errors.Join(t.primary.EndGroup(), t.secondary.EndGroup())
}
