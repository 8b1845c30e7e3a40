package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dakshscra/scra/internal/domain"
)

const inventoryMaxRows = 15

// RenderInventory shows the detected platforms and the most common file
// extensions of a target directory.
func RenderInventory(inv *domain.Inventory) string {
	if inv == nil || inv.FilesPresent == 0 {
		return "\n  " + dimStyle.Render("No files found.") + "\n\n"
	}

	var b strings.Builder

	// ── Header box ──
	title := headerStyle.Render("Project Inventory")
	rootLine := lipgloss.NewStyle().Bold(true).Foreground(fg).Render(inv.Root)
	detected := "none"
	if len(inv.Platforms) > 0 {
		detected = strings.Join(inv.Platforms, ",")
	}
	stats := dimStyle.Render(fmt.Sprintf("%d files  ·  %d extensions  ·  platforms: ",
		inv.FilesPresent, len(inv.Extensions))) + passStyle.Render(detected)
	b.WriteString(boxStyle.Render(title + "\n\n" + rootLine + "\n" + stats))
	b.WriteString("\n\n")

	// ── Extension table ──
	fmt.Fprintf(&b, "  %s\n", titleStyle.Render("Extensions"))
	rows := inv.Extensions
	if len(rows) > inventoryMaxRows {
		rows = rows[:inventoryMaxRows]
	}
	for _, e := range rows {
		ext := e.Extension
		if ext == "" {
			ext = "(none)"
		}
		pct := e.Files * 100 / inv.FilesPresent
		fmt.Fprintf(&b, "    %s %s %s\n",
			padRight(ext, 14),
			shareBar(pct, 20),
			dimStyle.Render(fmt.Sprintf("%d", e.Files)),
		)
	}
	if hidden := len(inv.Extensions) - len(rows); hidden > 0 {
		fmt.Fprintf(&b, "    %s\n", faintStyle.Render(fmt.Sprintf("... and %d more", hidden)))
	}

	b.WriteString("\n")
	return b.String()
}

func shareBar(pct, width int) string {
	filled := max(1, min(pct*width/100, width))
	return lipgloss.NewStyle().Foreground(accent).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(faint).Render(strings.Repeat("░", width-filled))
}
