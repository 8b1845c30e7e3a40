package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dakshscra/scra/internal/domain"
)

// ── warm palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	catNameStyle  = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderSummary formats the end-of-run summary for the terminal.
func RenderSummary(s *domain.RunSummary) string {
	var b strings.Builder
	d := s.Detection

	// ── Header ──
	title := headerStyle.Render("scra")
	subtitle := dimStyle.Render("Source Code Review Scan")
	areas := fmt.Sprintf("%d areas of interest  ·  %d path areas", d.AreasOfInterest, d.PathAreasOfInterest)
	areasStyled := lipgloss.NewStyle().Bold(true).Foreground(areaColor(d.AreasOfInterest)).Render(areas)
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + areasStyled))
	b.WriteString("\n\n")

	// ── Inputs ──
	b.WriteString("  " + titleStyle.Render("Inputs") + "\n")
	kv(&b, "Target", s.Inputs.TargetDirectory)
	kv(&b, "Platforms", s.Inputs.RuleSelected)
	kv(&b, "Rules loaded", fmt.Sprintf("%d  %s", s.Inputs.TotalRulesLoaded,
		faintStyle.Render(fmt.Sprintf("(%s; common %d)", s.Inputs.PlatformSpecificRules, s.Inputs.CommonRules))))
	if s.Commit != "" {
		kv(&b, "Commit", shortHash(s.Commit)+" "+dimStyle.Render(s.Branch))
	}
	b.WriteString("\n")

	// ── Coverage ──
	b.WriteString("  " + titleStyle.Render("Coverage") + "\n")
	pct := 100
	if d.TotalFilesIdentified > 0 {
		pct = int(d.TotalFilesScanned * 100 / d.TotalFilesIdentified)
	}
	fmt.Fprintf(&b, "    %s %s  %s\n",
		catNameStyle.Render(padRight("Files scanned", 20)),
		coloredBar(pct, 20),
		dimStyle.Render(fmt.Sprintf("%d / %d  (%d in project)", d.TotalFilesScanned, d.TotalFilesIdentified, d.TotalProjectFiles)),
	)
	if d.FileReadErrors > 0 {
		fmt.Fprintf(&b, "    %s %s\n", errorTagStyle.Render("error"), failStyle.Render(fmt.Sprintf("%d file read errors", d.FileReadErrors)))
	}
	b.WriteString("\n")

	// ── Rule sets ──
	if len(s.RuleSets) > 0 {
		b.WriteString("  " + titleStyle.Render("Rule Sets") + "\n")
		for _, rs := range s.RuleSets {
			renderRuleSet(&b, rs)
		}
		b.WriteString("\n")
	}

	b.WriteString("  " + separatorLine + "\n")
	fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render("Completed in"), s.Timeline.Duration)
	if !s.Complete {
		b.WriteString("  " + warnStyle.Render("Scan stopped early; results are partial.") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func renderRuleSet(b *strings.Builder, rs domain.PassResult) {
	evaluated := rs.Evaluated()
	if evaluated == 0 {
		fmt.Fprintf(b, "    %s %s %s\n",
			skipStyle.Render("○"),
			skipStyle.Render(padRight(rs.RuleSet, 20)),
			skipStyle.Render("not evaluated"),
		)
		return
	}

	icon := passStyle.Render("●")
	if len(rs.Matched) > 0 {
		icon = warnStyle.Render("●")
	}
	counts := dimStyle.Render(fmt.Sprintf("%d/%d matched  %d findings", len(rs.Matched), evaluated, rs.Findings))
	line := fmt.Sprintf("    %s %s %s", icon, padRight(rs.RuleSet, 20), counts)
	if rs.Incomplete {
		line += "  " + faintStyle.Render("incomplete")
	}
	b.WriteString(line + "\n")
}

func kv(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "    %s %s\n", dimStyle.Render(padRight(label, 14)), value)
}

// coloredBar renders a coverage bar. Higher is better.
func coloredBar(pct, width int) string {
	filled := max(0, min(pct*width/100, width))
	empty := width - filled

	color := coverageColor(pct)
	filledStr := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	emptyStr := lipgloss.NewStyle().Foreground(faint).Render(strings.Repeat("░", empty))
	return filledStr + emptyStr
}

func coverageColor(pct int) lipgloss.Color {
	switch {
	case pct >= 100:
		return success
	case pct >= 90:
		return lipgloss.Color("#A3E635") // lime
	case pct >= 60:
		return warning
	default:
		return danger
	}
}

func areaColor(n int64) lipgloss.Color {
	if n == 0 {
		return success
	}
	return warning
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderHistory formats run history for terminal output.
func RenderHistory(entries []domain.HistoryEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No scan history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Scan History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := shortHash(e.CommitHash)
		if hash == "" {
			hash = "·······"
		}

		areas := lipgloss.NewStyle().
			Foreground(areaColor(e.AreasOfInterest)).
			Render(fmt.Sprintf("%d areas", e.AreasOfInterest))

		line := fmt.Sprintf("  %s  %s  %s  %s  %s",
			dimStyle.Render(e.Timestamp),
			faintStyle.Render(hash),
			padRight(e.Platforms, 16),
			areas,
			fileStyle.Render(fmt.Sprintf("%d files", e.FilesScanned)),
		)

		if i > 0 {
			diff := e.AreasOfInterest - entries[i-1].AreasOfInterest
			if diff > 0 {
				line += "  " + failStyle.Render(fmt.Sprintf("↑%d", diff))
			} else if diff < 0 {
				line += "  " + passStyle.Render(fmt.Sprintf("↓%d", -diff))
			}
		}
		if e.ReadErrors > 0 {
			line += "  " + errorTagStyle.Render(fmt.Sprintf("%d read errors", e.ReadErrors))
		}
		if !e.Complete {
			line += "  " + skipStyle.Render("partial")
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
