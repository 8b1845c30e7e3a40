package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dakshscra/scra/internal/adapters/outbound/config"
	"github.com/dakshscra/scra/internal/adapters/outbound/detector"
	"github.com/dakshscra/scra/internal/adapters/outbound/filelock"
	"github.com/dakshscra/scra/internal/adapters/outbound/gitinfo"
	"github.com/dakshscra/scra/internal/adapters/outbound/history"
	"github.com/dakshscra/scra/internal/adapters/outbound/linereader"
	"github.com/dakshscra/scra/internal/adapters/outbound/logging"
	"github.com/dakshscra/scra/internal/adapters/outbound/report"
	"github.com/dakshscra/scra/internal/adapters/outbound/rules"
	"github.com/dakshscra/scra/internal/adapters/outbound/scanner"
	"github.com/dakshscra/scra/internal/application"
	"github.com/dakshscra/scra/internal/domain"
	"github.com/dakshscra/scra/internal/rulepack"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// scanFlags are shared by scan and watch.
type scanFlags struct {
	platforms    string
	target       string
	fileTypes    string
	out          string
	rulesDir     string
	configPath   string
	encoding     string
	verbosity    int
	concurrency  int
	noExclusions bool
	sarif        bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.platforms, "rules", "r", "", `Platforms to scan, comma separated (e.g. "php,java"), or "auto"`)
	fl.StringVarP(&f.target, "target", "t", "", "Target source directory")
	fl.StringVarP(&f.fileTypes, "filetypes", "f", "", `Override file types: globs ("*.jsp,*.jspx") or platform names`)
	fl.CountVarP(&f.verbosity, "verbose", "v", "Progress detail: -v progress line, -vv per rule, -vvv per file")
	fl.StringVar(&f.out, "out", "", "Report directory (default from config, else ./reports)")
	fl.StringVar(&f.rulesDir, "rules-dir", "", "Rule pack directory (default: embedded pack)")
	fl.StringVar(&f.configPath, "config", "", "Config file (default ./"+config.FileName+")")
	fl.IntVar(&f.concurrency, "concurrency", 0, "Files read in parallel per rule (0 = one per CPU)")
	fl.StringVar(&f.encoding, "encoding", "", "Source decoding: auto, latin1 or utf-8")
	fl.BoolVar(&f.noExclusions, "no-exclusions", false, "Ignore rule exclude patterns")
	fl.BoolVar(&f.sarif, "sarif", false, "Also write content findings as SARIF")
}

// config loads the tool config and applies any flag the user set on top.
func (f *scanFlags) config(cmd *cobra.Command) (domain.ToolConfig, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return cfg, err
	}
	fl := cmd.Flags()
	if fl.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if fl.Changed("encoding") {
		cfg.Encoding = domain.Encoding(strings.ToLower(f.encoding))
	}
	if f.out != "" {
		cfg.OutputDir = f.out
	}
	if f.rulesDir != "" {
		cfg.RulesDir = f.rulesDir
	}
	if f.noExclusions {
		off := false
		cfg.Exclusions = &off
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (f *scanFlags) options(cfg domain.ToolConfig) application.ScanOptions {
	return application.ScanOptions{
		Target:      f.target,
		Platforms:   f.platforms,
		FileTypes:   f.fileTypes,
		OutputDir:   cfg.OutputDir,
		Exclusions:  cfg.ExclusionsEnabled(),
		Concurrency: cfg.Concurrency,
	}
}

// loadConfig reads an explicit config file, which must exist, or the
// optional .scra.yaml in the working directory.
func loadConfig(path string) (domain.ToolConfig, error) {
	if path == "" {
		return config.New().Load(".")
	}
	if _, err := os.Stat(path); err != nil {
		return domain.ToolConfig{}, fmt.Errorf("config file: %w", err)
	}
	return config.New().Load(path)
}

func newLogger(cfg domain.ToolConfig, w io.Writer) hclog.Logger {
	return logging.New(cfg.Logger, "scra", w)
}

func newScanService(cfg domain.ToolConfig, withSARIF bool, progress domain.Progress, logger hclog.Logger) *application.ScanService {
	classifier := scanner.New(logger.Named("classifier"), cfg.ExcludeDirs...).Ignore(cfg.OutputDir)
	return application.NewScanService(
		rules.New(rulepack.Open(cfg.RulesDir)),
		classifier,
		linereader.New(cfg.Encoding),
		detector.New(classifier),
		report.NewSink(withSARIF),
		filelock.NewLocker(),
		history.New(),
		gitinfo.New(),
		progress,
		logger,
	)
}

func newDetectService(cfg domain.ToolConfig, logger hclog.Logger) *application.DetectService {
	classifier := scanner.New(logger.Named("classifier"), cfg.ExcludeDirs...).Ignore(cfg.OutputDir)
	return application.NewDetectService(rules.New(rulepack.Open(cfg.RulesDir)), classifier, detector.New(classifier))
}
