package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPlatform is matched by every *UnknownPlatformError.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrNotDirectory is returned when the scan target is missing or not a directory.
	ErrNotDirectory = errors.New("target is not a directory")
	// ErrUndecodable marks a file whose bytes cannot be decoded with the configured encoding.
	ErrUndecodable = errors.New("undecodable byte sequence")
	// ErrNoPlatforms is returned when a selection resolves to nothing.
	ErrNoPlatforms = errors.New("no platforms selected")
)

// UnknownPlatformError names the selected platforms missing from the registry.
type UnknownPlatformError struct {
	Names     []string
	Available []string
}

func (e *UnknownPlatformError) Error() string {
	msg := fmt.Sprintf("unknown platform %s", strings.Join(quoteAll(e.Names), ", "))
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", "))
	}
	return msg
}

func (e *UnknownPlatformError) Is(target error) bool { return target == ErrUnknownPlatform }

// RuleLoadError is fatal for the rule document it names: malformed documents,
// missing or duplicate names and patterns that do not compile.
type RuleLoadError struct {
	Path string
	Rule string
	Err  error
}

func (e *RuleLoadError) Error() string {
	var b strings.Builder
	b.WriteString("loading rules")
	if e.Path != "" {
		fmt.Fprintf(&b, " from %s", e.Path)
	}
	if e.Rule != "" {
		fmt.Fprintf(&b, ": rule %q", e.Rule)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *RuleLoadError) Unwrap() error { return e.Err }

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
