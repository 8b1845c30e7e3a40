package domain

import (
	"fmt"
	"strings"
)

// Encoding selects how source file bytes are decoded into lines.
type Encoding string

const (
	// EncodingAuto keeps valid UTF-8 lines and decodes any other line as ISO-8859-1.
	EncodingAuto Encoding = "auto"
	// EncodingLatin1 decodes every byte as ISO-8859-1; it never fails.
	EncodingLatin1 Encoding = "latin1"
	// EncodingUTF8 treats invalid UTF-8 as a per-file read error.
	EncodingUTF8 Encoding = "utf-8"
)

// ValidEncodings enumerates all recognized encodings.
var ValidEncodings = []Encoding{EncodingAuto, EncodingLatin1, EncodingUTF8}

// ValidLogLevels enumerates the accepted logger.level values.
var ValidLogLevels = []string{"trace", "debug", "info", "warn", "error", "off"}

// ToolConfig holds settings loaded from .scra.yaml.
type ToolConfig struct {
	Concurrency int          `yaml:"concurrency"  json:"concurrency,omitempty"`
	Encoding    Encoding     `yaml:"encoding"     json:"encoding,omitempty"`
	Exclusions  *bool        `yaml:"exclusions"   json:"exclusions,omitempty"`
	ExcludeDirs []string     `yaml:"exclude_dirs" json:"exclude_dirs,omitempty"`
	OutputDir   string       `yaml:"output_dir"   json:"output_dir,omitempty"`
	RulesDir    string       `yaml:"rules_dir"    json:"rules_dir,omitempty"`
	Logger      LoggerConfig `yaml:"logger"       json:"logger,omitempty"`
}

// LoggerConfig configures diagnostics logging.
type LoggerConfig struct {
	Level           string `yaml:"level"            json:"level,omitempty"`
	JSONFormat      bool   `yaml:"json_format"      json:"json_format,omitempty"`
	IncludeLocation bool   `yaml:"include_location" json:"include_location,omitempty"`
}

// DefaultExcludeDirs are version control directories never walked.
var DefaultExcludeDirs = []string{".git", ".svn", ".hg"}

// DefaultOutputDir is where reports are written when nothing else is set.
const DefaultOutputDir = "reports"

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() ToolConfig {
	on := true
	return ToolConfig{
		Encoding:    EncodingAuto,
		Exclusions:  &on,
		ExcludeDirs: append([]string(nil), DefaultExcludeDirs...),
		OutputDir:   DefaultOutputDir,
		Logger:      LoggerConfig{Level: "info"},
	}
}

// ExclusionsEnabled reports whether exclude patterns are applied. Unset means on.
func (c ToolConfig) ExclusionsEnabled() bool {
	return c.Exclusions == nil || *c.Exclusions
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c ToolConfig) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0 (got %d)", c.Concurrency)
	}

	if c.Encoding != "" && !isValidEncoding(c.Encoding) {
		return fmt.Errorf("unknown encoding %q (valid: auto, latin1, utf-8)", c.Encoding)
	}

	for i, d := range c.ExcludeDirs {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("exclude_dirs[%d] must not be empty", i)
		}
	}

	if c.Logger.Level != "" && !isValidLogLevel(c.Logger.Level) {
		return fmt.Errorf("unknown logger.level %q (valid: %s)", c.Logger.Level, strings.Join(ValidLogLevels, ", "))
	}

	return nil
}

// WithDefaults fills every unset field from DefaultConfig.
func (c ToolConfig) WithDefaults() ToolConfig {
	d := DefaultConfig()
	c.Encoding = Encoding(strings.ToLower(string(c.Encoding)))
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	if c.Exclusions == nil {
		c.Exclusions = d.Exclusions
	}
	if c.ExcludeDirs == nil {
		c.ExcludeDirs = d.ExcludeDirs
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.Logger.Level == "" {
		c.Logger.Level = d.Logger.Level
	}
	return c
}

func isValidEncoding(e Encoding) bool {
	for _, v := range ValidEncodings {
		if strings.EqualFold(string(e), string(v)) {
			return true
		}
	}
	return false
}

func isValidLogLevel(level string) bool {
	for _, v := range ValidLogLevels {
		if strings.EqualFold(level, v) {
			return true
		}
	}
	return false
}
