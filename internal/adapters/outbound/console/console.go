// Package console prints operator-facing progress of a scan. Verbosity only
// changes how much is printed, never what is matched.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Verbosity levels.
const (
	Quiet    = 0 // stages and inputs only
	Progress = 1 // one overwritten progress line per rule (TTY only)
	PerRule  = 2 // one line per rule
	PerFile  = 3 // one line per file evaluated
)

// Console implements domain.Progress. It is safe for concurrent use.
type Console struct {
	mu        sync.Mutex
	w         io.Writer
	verbosity int
	tty       bool
	pending   bool // a carriage-return line is on screen

	stage *color.Color
	set   *color.Color
	label *color.Color
}

// New returns a Console writing to w. Colour and carriage-return progress are
// enabled only when w is a terminal.
func New(w io.Writer, verbosity int) *Console {
	tty := isTerminal(w)
	c := &Console{
		w:         w,
		verbosity: verbosity,
		tty:       tty,
		stage:     color.New(color.FgCyan, color.Bold),
		set:       color.New(color.FgGreen),
		label:     color.New(color.FgHiBlack),
	}
	if !tty {
		c.stage.DisableColor()
		c.set.DisableColor()
		c.label.DisableColor()
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) Stage(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flush()
	fmt.Fprintf(c.w, "\n[*] %s\n", c.stage.Sprint(title))
}

func (c *Console) Info(label, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flush()
	fmt.Fprintf(c.w, "    [-] %s: %s\n", c.label.Sprint(label), value)
}

func (c *Console) RuleSet(name string, rules int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flush()
	fmt.Fprintf(c.w, "%s\n", c.set.Sprintf("--> Applying rules for %s (%d rules)", name, rules))
}

func (c *Console) Rule(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.verbosity >= PerRule:
		c.flush()
		fmt.Fprintf(c.w, "         [-] Applying Rule: %s\n", name)
	case c.verbosity == Progress && c.tty:
		fmt.Fprintf(c.w, "\r\033[K         [-] Applying Rule: %s", name)
		c.pending = true
	}
}

func (c *Console) File(n int, path string) {
	if c.verbosity < PerFile {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\t Parsing file: [%d] %s\n", n, path)
}

// Done terminates any progress line still on screen.
func (c *Console) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flush()
}

func (c *Console) flush() {
	if c.pending {
		fmt.Fprintln(c.w)
		c.pending = false
	}
}

// Nop discards all progress.
type Nop struct{}

func (Nop) Stage(string) {}
func (Nop) Info(string, string) {}
func (Nop) RuleSet(string, int) {}
func (Nop) Rule(string) {}
func (Nop) File(int, string) {}
func (Nop) Done() {}
