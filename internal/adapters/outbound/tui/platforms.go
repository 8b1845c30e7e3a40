package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dakshscra/scra/internal/domain"
)

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	globStyle          = lipgloss.NewStyle().Foreground(warning)
	hintStyle          = lipgloss.NewStyle().Foreground(dim).Italic(true)
)

// fileTypesWidth wraps long glob lists so the table stays readable.
const fileTypesWidth = 40

// RenderPlatforms lists the registered platforms, optionally with their
// file-type globs.
func RenderPlatforms(reg *domain.Registry, withFileTypes bool) string {
	var b strings.Builder

	names := reg.Names()
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n\n",
		sectionHeaderStyle.Render("Platforms"),
		dimStyle.Render(fmt.Sprintf("(%d)", len(names))),
	)

	for _, name := range names {
		p, _ := reg.Lookup(name)
		icon := passStyle.Render("●")
		if name == domain.CommonPlatform {
			icon = faintStyle.Render("●")
		}
		if !withFileTypes {
			fmt.Fprintf(&b, "    %s %s\n", icon, name)
			continue
		}

		lines := wrapGlobs(p.FileTypes, fileTypesWidth)
		fmt.Fprintf(&b, "    %s %s %s\n", icon, titleStyle.Render(padRight(name, 12)), globStyle.Render(lines[0]))
		for _, l := range lines[1:] {
			fmt.Fprintf(&b, "      %s %s\n", strings.Repeat(" ", 12), globStyle.Render(l))
		}
	}

	b.WriteString("\n")
	b.WriteString("  " + hintStyle.Render("Select platforms with scra scan -r php,java or -r auto."))
	b.WriteString("\n")
	return b.String()
}

func wrapGlobs(globs []string, width int) []string {
	var (
		lines []string
		cur   string
	)
	for _, g := range globs {
		next := g
		if cur != "" {
			next = cur + ", " + g
		}
		if cur != "" && len(next) > width {
			lines = append(lines, cur+",")
			next = g
		}
		cur = next
	}
	return append(lines, cur)
}
