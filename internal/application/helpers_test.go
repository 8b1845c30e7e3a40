package application_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/dakshscra/scra/internal/adapters/outbound/detector"
	"github.com/dakshscra/scra/internal/adapters/outbound/filelock"
	"github.com/dakshscra/scra/internal/adapters/outbound/gitinfo"
	"github.com/dakshscra/scra/internal/adapters/outbound/history"
	"github.com/dakshscra/scra/internal/adapters/outbound/linereader"
	"github.com/dakshscra/scra/internal/adapters/outbound/protocol"
	"github.com/dakshscra/scra/internal/adapters/outbound/report"
	"github.com/dakshscra/scra/internal/adapters/outbound/rules"
	"github.com/dakshscra/scra/internal/adapters/outbound/scanner"
	"github.com/dakshscra/scra/internal/application"
	"github.com/dakshscra/scra/internal/domain"
	"github.com/stretchr/testify/require"
)

const testRegistry = `
common_rules: common.yaml
path_rules: paths.yaml
platforms:
  - name: php
    filetypes: ["*.php", "*.inc"]
    rules: php.yaml
  - name: java
    filetypes: ["*.java", "*.jsp"]
    rules: java.yaml
  - name: web
    filetypes: ["*.jsp", "*.html"]
    rules: web.yaml
  - name: common
    filetypes: ["*.*"]
    rules: common.yaml
`

const testPHP = `
platform: php
categories:
  - name: Execution
    rules:
      - name: Eval
        regex: 'eval\('
        rule_desc: eval
        vuln_desc: code execution
        developer: remove
        reviewer: trace
  - name: Secrets
    rules:
      - name: Password
        regex: 'password'
        exclude: 'password_hash'
        rule_desc: password
        vuln_desc: leak
        developer: vault
        reviewer: check
`

const testJava = `
platform: java
rules:
  - name: Exec
    regex: 'Runtime\.getRuntime\(\)\.exec'
    rule_desc: exec
    vuln_desc: command injection
    developer: avoid
    reviewer: trace
`

const testWeb = `
platform: web
rules:
  - name: Scriptlet
    regex: '<%='
    rule_desc: scriptlet
    vuln_desc: xss
    developer: encode
    reviewer: check
`

const testCommon = `
platform: common
rules:
  - name: Todo
    regex: 'TODO'
    rule_desc: todo
    vuln_desc: unfinished
    developer: resolve
    reviewer: read
`

const testPaths = `
platform: filepaths
rules:
  - name: Admin
    regex: 'admin'
    rule_desc: admin paths
    vuln_desc: privileged
    developer: authorise
    reviewer: verify
  - name: Nothing
    regex: 'zzz-never'
    rule_desc: none
    vuln_desc: none
    developer: none
    reviewer: none
`

func rulePack(overrides map[string]string) fstest.MapFS {
	docs := map[string]string{
		"registry.yaml": testRegistry,
		"php.yaml":      testPHP,
		"java.yaml":     testJava,
		"web.yaml":      testWeb,
		"common.yaml":   testCommon,
		"paths.yaml":    testPaths,
	}
	for k, v := range overrides {
		docs[k] = v
	}
	fsys := fstest.MapFS{}
	for name, data := range docs {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

type serviceOpts struct {
	pack   fstest.MapFS
	reader domain.SourceReader
	sarif  bool
}

func newScanService(o serviceOpts) *application.ScanService {
	if o.pack == nil {
		o.pack = rulePack(nil)
	}
	if o.reader == nil {
		o.reader = linereader.New(domain.EncodingAuto)
	}
	classifier := scanner.New(nil, domain.DefaultExcludeDirs...)
	return application.NewScanService(
		rules.New(o.pack),
		classifier,
		o.reader,
		detector.New(classifier),
		report.NewSink(o.sarif),
		filelock.NewLocker(),
		history.New(),
		gitinfo.New(),
		nil,
		nil,
	)
}

func scanOptions(target, out, platforms string) application.ScanOptions {
	return application.ScanOptions{
		Target:      target,
		Platforms:   platforms,
		OutputDir:   out,
		Exclusions:  true,
		Concurrency: 4,
	}
}

func parseFindings(t *testing.T, outDir string) []protocol.Group {
	t.Helper()
	f, err := os.Open(filepath.Join(outDir, report.FindingsFile))
	require.NoError(t, err)
	defer f.Close()
	groups, err := protocol.Parse(f)
	require.NoError(t, err)
	return groups
}

func parsePaths(t *testing.T, outDir string) []protocol.PathGroup {
	t.Helper()
	f, err := os.Open(filepath.Join(outDir, report.PathsFile))
	require.NoError(t, err)
	defer f.Close()
	groups, err := protocol.ParsePaths(f)
	require.NoError(t, err)
	return groups
}

func groupByTitle(groups []protocol.Group, title string) *protocol.Group {
	for i := range groups {
		if groups[i].Title == title {
			return &groups[i]
		}
	}
	return nil
}

// failingReader fails every read of the named base names.
type failingReader struct {
	domain.SourceReader
	fail map[string]bool
}

func (r failingReader) ReadLines(path string, fn func(int, string) bool) error {
	if r.fail[filepath.Base(path)] {
		return errors.New("permission denied")
	}
	return r.SourceReader.ReadLines(path, fn)
}

// cancellingReader cancels the run on its first read.
type cancellingReader struct {
	domain.SourceReader
	cancel context.CancelFunc
	reads  atomic.Int32
}

func (r *cancellingReader) ReadLines(path string, fn func(int, string) bool) error {
	if r.reads.Add(1) == 1 {
		r.cancel()
	}
	return r.SourceReader.ReadLines(path, fn)
}
