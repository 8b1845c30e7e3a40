package application_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dakshscra/scra/internal/adapters/outbound/filelock"
	"github.com/dakshscra/scra/internal/adapters/outbound/linereader"
	"github.com/dakshscra/scra/internal/adapters/outbound/report"
	"github.com/dakshscra/scra/internal/adapters/outbound/summary"
	"github.com/dakshscra/scra/internal/application"
	"github.com/dakshscra/scra/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopTree() map[string]string {
	return map[string]string{
		"index.php":       "<?php\n$page = $_GET['page'];\neval($code);\n",
		"lib/util.php":    "<?php\nfunction add($a, $b) { return $a + $b; }\n",
		"admin/users.php": "<?php\n// TODO remove debug\n$x = password_hash($p);\n$y = $password;\n",
		"src/App.java":    "class App {\n  void run() throws Exception {\n    Runtime.getRuntime().exec(cmd);\n  }\n}\n",
		"src/Util.java":   "class Util {}\n",
		"README.txt":      "eval( TODO\n",
		".git/config":     "eval(\n",
	}
}

func TestScanService_TwoPlatformScenario(t *testing.T) {
	target := filepath.Join(t.TempDir(), "shop")
	writeTree(t, target, shopTree())
	out := filepath.Join(t.TempDir(), "reports")

	rep, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, out, "php,java"))
	require.NoError(t, err)
	sum := rep.Summary

	assert.True(t, sum.Complete)
	assert.Equal(t, int64(6), sum.Detection.TotalProjectFiles, ".git is never walked")
	assert.Equal(t, int64(5), sum.Detection.TotalFilesIdentified)
	assert.Equal(t, int64(5), sum.Detection.TotalFilesScanned)
	assert.Equal(t, 5, sum.Detection.MasterFiles)
	assert.Equal(t, []string{".php"}, sum.Detection.FileExtensions["php"])
	assert.Equal(t, []string{".java"}, sum.Detection.FileExtensions["java"])

	assert.Equal(t, "php,java", sum.Inputs.RuleSelected)
	assert.Equal(t, "php[2], java[1]", sum.Inputs.PlatformSpecificRules)
	assert.Equal(t, 1, sum.Inputs.CommonRules)
	assert.Equal(t, 4, sum.Inputs.TotalRulesLoaded)
	assert.Equal(t, "*.php, *.inc, *.java, *.jsp", sum.Inputs.FileTypesSelected)

	groups := parseFindings(t, out)
	eval := groupByTitle(groups, "Eval")
	require.NotNil(t, eval)
	require.Len(t, eval.Sources, 1)
	assert.Equal(t, "shop/index.php", eval.Sources[0].File)
	assert.Equal(t, 3, eval.Sources[0].Lines[0].Number)
	assert.Equal(t, "eval($code);", eval.Sources[0].Lines[0].Text)

	assert.ElementsMatch(t, []string{"Eval", "Password", "Exec", "Todo"}, sum.SourceScan.Matched)
	assert.Empty(t, sum.SourceScan.Unmatched)
	assert.Equal(t, int64(4), sum.Detection.AreasOfInterest)
}

func TestScanService_ExclusionLaw(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, map[string]string{
		"a.php": "$x = password_hash($p);\n$x = $password;\n",
	})

	out := filepath.Join(t.TempDir(), "on")
	_, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, out, "php"))
	require.NoError(t, err)
	pw := groupByTitle(parseFindings(t, out), "Password")
	require.NotNil(t, pw)
	require.Len(t, pw.Findings(), 1)
	assert.Equal(t, 2, pw.Findings()[0].Line)

	off := filepath.Join(t.TempDir(), "off")
	opts := scanOptions(target, off, "php")
	opts.Exclusions = false
	_, err = newScanService(serviceOpts{}).Scan(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, groupByTitle(parseFindings(t, off), "Password").Findings(), 2)
}

func TestScanService_UnreadableFileIsCountedNotFatal(t *testing.T) {
	target := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 10; i++ {
		files[fmt.Sprintf("f%02d.php", i)] = "eval($a);\n"
	}
	writeTree(t, target, files)
	out := filepath.Join(t.TempDir(), "reports")

	reader := failingReader{SourceReader: linereader.New(domain.EncodingAuto), fail: map[string]bool{"f03.php": true}}
	rep, err := newScanService(serviceOpts{reader: reader}).Scan(context.Background(), scanOptions(target, out, "php"))
	require.NoError(t, err)

	d := rep.Summary.Detection
	assert.Equal(t, int64(10), d.TotalFilesIdentified)
	assert.Equal(t, int64(9), d.TotalFilesScanned)
	assert.Equal(t, int64(1), d.FileReadErrors)
	assert.True(t, rep.Summary.Complete)

	assert.FileExists(t, filepath.Join(out, report.FindingsFile))
	assert.FileExists(t, filepath.Join(out, report.PathsFile))
	assert.FileExists(t, filepath.Join(out, summary.JSONFile))
	assert.Len(t, groupByTitle(parseFindings(t, out), "Eval").Sources, 9)
}

func TestScanService_ReadErrorWeightedByPlatforms(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, map[string]string{"page.jsp": "<%= x %>\n", "ok.java": "class A {}\n"})
	out := filepath.Join(t.TempDir(), "reports")

	reader := failingReader{SourceReader: linereader.New(domain.EncodingAuto), fail: map[string]bool{"page.jsp": true}}
	rep, err := newScanService(serviceOpts{reader: reader}).Scan(context.Background(), scanOptions(target, out, "java,web"))
	require.NoError(t, err)

	d := rep.Summary.Detection
	assert.Equal(t, int64(3), d.TotalFilesIdentified, "page.jsp belongs to java and web")
	assert.Equal(t, int64(2), d.FileReadErrors)
	assert.Equal(t, int64(1), d.TotalFilesScanned)
}

func TestScanService_FatalErrorsWriteNothing(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, shopTree())

	badRegex := rulePack(map[string]string{"php.yaml": "platform: php\nrules:\n  - name: Broken\n    regex: '(unclosed'\n"})

	tests := []struct {
		name   string
		target string
		sel    string
		is     error
	}{
		{name: "unknown platform", target: target, sel: "php,cobol", is: domain.ErrUnknownPlatform},
		{name: "missing target", target: filepath.Join(target, "nope"), sel: "php", is: domain.ErrNotDirectory},
		{name: "file as target", target: filepath.Join(target, "index.php"), sel: "php", is: domain.ErrNotDirectory},
		{name: "empty selection", target: target, sel: " , ", is: domain.ErrNoPlatforms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "reports")
			_, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(tt.target, out, tt.sel))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
			assert.NoDirExists(t, out)
		})
	}

	t.Run("invalid rule regex", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "reports")
		_, err := newScanService(serviceOpts{pack: badRegex}).Scan(context.Background(), scanOptions(target, out, "php"))
		var rle *domain.RuleLoadError
		require.ErrorAs(t, err, &rle)
		assert.Equal(t, "Broken", rle.Rule)
		assert.NoDirExists(t, out)
	})
}

func TestScanService_UnknownPlatformListsAll(t *testing.T) {
	_, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(t.TempDir(), t.TempDir(), "cobol,php,fortran"))
	var upe *domain.UnknownPlatformError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, []string{"cobol", "fortran"}, upe.Names)
}

func TestScanService_GroupNumberingAcrossPasses(t *testing.T) {
	target := filepath.Join(t.TempDir(), "shop")
	writeTree(t, target, shopTree())
	out := filepath.Join(t.TempDir(), "reports")

	_, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, out, "php,java"))
	require.NoError(t, err)

	groups := parseFindings(t, out)
	var titles []string
	for i, g := range groups {
		assert.Equal(t, i+1, g.Number)
		titles = append(titles, g.Title)
	}
	assert.Equal(t, []string{"Eval", "Password", "Exec", "Todo"}, titles)

	paths := parsePaths(t, out)
	require.Len(t, paths, 1)
	assert.Equal(t, 1, paths[0].Number, "path numbering starts over")
	assert.Equal(t, "Admin", paths[0].Title)
	assert.Equal(t, []string{"shop/admin/users.php"}, paths[0].Paths)
}

func TestScanService_PathRulesIgnoreProjectDirName(t *testing.T) {
	target := filepath.Join(t.TempDir(), "admin-portal")
	writeTree(t, target, map[string]string{"index.php": "<?php\n"})
	out := filepath.Join(t.TempDir(), "reports")

	rep, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, out, "php"))
	require.NoError(t, err)
	assert.Empty(t, parsePaths(t, out))
	assert.Equal(t, []string{"Admin", "Nothing"}, rep.Summary.PathScan.Unmatched)
	assert.Equal(t, int64(0), rep.Summary.Detection.PathAreasOfInterest)
}

func TestScanService_PartitionsEveryRuleSet(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, shopTree())

	rep, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, filepath.Join(t.TempDir(), "r"), "php,java,web"))
	require.NoError(t, err)

	require.Len(t, rep.Summary.RuleSets, 5)
	for _, rs := range rep.Summary.RuleSets {
		assert.False(t, rs.Incomplete, rs.RuleSet)
		for _, m := range rs.Matched {
			assert.NotContains(t, rs.Unmatched, m, rs.RuleSet)
		}
	}
	web := rep.Summary.RuleSets[2]
	assert.Equal(t, "web", web.RuleSet)
	assert.Equal(t, []string{"Scriptlet"}, web.Unmatched)
}

func TestScanService_Idempotent(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, shopTree())

	run := func(workers int) ([]byte, *domain.RunSummary) {
		out := filepath.Join(t.TempDir(), "reports")
		opts := scanOptions(target, out, "php,java")
		opts.Concurrency = workers
		rep, err := newScanService(serviceOpts{}).Scan(context.Background(), opts)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(out, report.FindingsFile))
		require.NoError(t, err)
		return data, rep.Summary
	}

	first, s1 := run(1)
	second, s2 := run(8)
	assert.Equal(t, string(first), string(second), "output is independent of worker count")
	assert.Equal(t, s1.SourceScan, s2.SourceScan)
	assert.Equal(t, s1.Detection.TotalFindings, s2.Detection.TotalFindings)
}

func TestScanService_ManyFilesKeepWalkOrder(t *testing.T) {
	target := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 60; i++ {
		files[fmt.Sprintf("f%03d.php", i)] = "eval(1);\n"
	}
	writeTree(t, target, files)
	out := filepath.Join(t.TempDir(), "reports")

	opts := scanOptions(target, out, "php")
	opts.Concurrency = 16
	_, err := newScanService(serviceOpts{}).Scan(context.Background(), opts)
	require.NoError(t, err)

	eval := groupByTitle(parseFindings(t, out), "Eval")
	require.Len(t, eval.Sources, 60)
	for i, s := range eval.Sources {
		assert.Equal(t, fmt.Sprintf("%s/f%03d.php", filepath.Base(target), i), s.File)
	}
}

func TestScanService_AutoPlatforms(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, map[string]string{"a.java": "Runtime.getRuntime().exec(x);\n"})
	out := filepath.Join(t.TempDir(), "reports")

	rep, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, out, "auto"))
	require.NoError(t, err)
	assert.Equal(t, "java", rep.Summary.Inputs.RuleSelected)
	assert.Equal(t, []string{"Exec"}, rep.Summary.SourceScan.Matched)
}

func TestScanService_AutoPlatformsNothingDetected(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, map[string]string{"notes.txt": "x"})

	_, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, filepath.Join(t.TempDir(), "r"), "auto"))
	assert.ErrorIs(t, err, domain.ErrNoPlatforms)
}

func TestScanService_CommonOnly(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, map[string]string{"notes.txt": "TODO\n", "Makefile": "TODO\n", "a.php": "eval(1);\n"})
	out := filepath.Join(t.TempDir(), "reports")

	rep, err := newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, out, "common"))
	require.NoError(t, err)

	require.Len(t, rep.Summary.RuleSets, 2)
	assert.Equal(t, "common", rep.Summary.RuleSets[0].RuleSet)
	assert.Equal(t, "", rep.Summary.Inputs.PlatformSpecificRules)
	assert.Equal(t, int64(2), rep.Summary.Detection.TotalFilesIdentified, "*.* needs a dot")

	todo := groupByTitle(parseFindings(t, out), "Todo")
	require.NotNil(t, todo)
	assert.Len(t, todo.Sources, 1)
	assert.Nil(t, groupByTitle(parseFindings(t, out), "Eval"))
}

func TestScanService_FileTypeOverride(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, map[string]string{"a.php": "eval(1);\n", "b.inc": "eval(2);\n", "c.html": "eval(3);\n"})

	tests := []struct {
		name      string
		fileTypes string
		want      int64
	}{
		{"glob", "*.inc", 1},
		{"platform name", "web", 1},
		{"mixed", "*.inc, web", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := scanOptions(target, filepath.Join(t.TempDir(), "r"), "php")
			opts.FileTypes = tt.fileTypes
			rep, err := newScanService(serviceOpts{}).Scan(context.Background(), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rep.Summary.Detection.TotalFilesIdentified)
		})
	}

	opts := scanOptions(target, filepath.Join(t.TempDir(), "r"), "php")
	opts.FileTypes = "cobol"
	_, err := newScanService(serviceOpts{}).Scan(context.Background(), opts)
	assert.ErrorIs(t, err, domain.ErrUnknownPlatform)
}

func TestScanService_CancelledMidRunStillWritesSummary(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, shopTree())
	out := filepath.Join(t.TempDir(), "reports")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &cancellingReader{SourceReader: linereader.New(domain.EncodingAuto), cancel: cancel}

	rep, err := newScanService(serviceOpts{reader: reader}).Scan(ctx, scanOptions(target, out, "php,java"))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.False(t, rep.Summary.Complete)
	require.NotEmpty(t, rep.Summary.RuleSets)
	assert.True(t, rep.Summary.RuleSets[0].Incomplete)

	assert.Empty(t, parseFindings(t, out), "an interrupted rule is never emitted")
	loaded, err := summary.New().Load(out)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.False(t, loaded.Complete)
}

func TestScanService_CancelledBeforeStart(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, shopTree())
	out := filepath.Join(t.TempDir(), "reports")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanService(serviceOpts{}).Scan(ctx, scanOptions(target, out, "php"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, out)
}

func TestScanService_SARIFExport(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, shopTree())
	out := filepath.Join(t.TempDir(), "reports")

	_, err := newScanService(serviceOpts{sarif: true}).Scan(context.Background(), scanOptions(target, out, "php"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, report.SARIFFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "execution.eval")
}

func TestScanService_RecordsHistoryAndDiscoveredFiles(t *testing.T) {
	target := filepath.Join(t.TempDir(), "shop")
	writeTree(t, target, shopTree())
	out := filepath.Join(t.TempDir(), "reports")

	svc := newScanService(serviceOpts{})
	_, err := svc.Scan(context.Background(), scanOptions(target, out, "php"))
	require.NoError(t, err)
	_, err = svc.Scan(context.Background(), scanOptions(target, out, "php"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "history", "runs.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"platforms": "php"`)

	discovered, err := os.ReadFile(filepath.Join(out, report.DiscoveredFile))
	require.NoError(t, err)
	assert.Contains(t, string(discovered), "shop/index.php\n")
	assert.NotContains(t, string(discovered), "App.java")
}

func TestScanService_ConcurrentRunsOnSameOutputDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports")
	unlock, err := filelock.NewLocker().Lock(out)
	require.NoError(t, err)
	defer unlock()

	target := t.TempDir()
	writeTree(t, target, shopTree())
	_, err = newScanService(serviceOpts{}).Scan(context.Background(), scanOptions(target, out, "php"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestResolveFileTypes(t *testing.T) {
	reg := &domain.Registry{Platforms: []domain.Platform{
		{Name: "java", FileTypes: []string{"*.java", "*.jsp"}},
	}}

	got, err := application.ResolveFileTypes(reg, "*.jspx, JAVA, .properties")
	require.NoError(t, err)
	assert.Equal(t, []string{"*.jspx", "*.java", "*.jsp", ".properties"}, got)

	_, err = application.ResolveFileTypes(reg, "cobol")
	assert.ErrorIs(t, err, domain.ErrUnknownPlatform)
}
