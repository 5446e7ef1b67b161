package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phpsniff/phpsniff/internal/domain"
)

// ── warm palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
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
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	infoTagStyle  = lipgloss.NewStyle().Foreground(info)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderSummary renders the totals of a drained scan.
func RenderSummary(ruleset domain.Ruleset, totals domain.Totals, fixable []string) string {
	var b strings.Builder

	title := headerStyle.Render("phpsniff")
	subtitle := dimStyle.Render(string(ruleset))

	status := passStyle.Bold(true).Render("clean")
	switch {
	case totals.Errors > 0:
		status = failStyle.Bold(true).Render(plural(totals.Errors, "error"))
	case totals.Warnings > 0:
		status = warnStyle.Bold(true).Render(plural(totals.Warnings, "warning"))
	}

	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + status))
	b.WriteString("\n\n")

	row := func(label string, n int, style lipgloss.Style) {
		fmt.Fprintf(&b, "  %s %s\n", titleStyle.Render(padRight(label, 12)), style.Render(fmt.Sprintf("%d", n)))
	}
	row("Files", totals.Files, dimStyle)
	row("Errors", totals.Errors, countStyle(totals.Errors, failStyle))
	row("Warnings", totals.Warnings, countStyle(totals.Warnings, warnStyle))
	row("Fixable", totals.Fixables, countStyle(totals.Fixables, infoTagStyle))

	if len(fixable) > 0 {
		b.WriteString("\n")
		b.WriteString("  " + separatorLine)
		b.WriteString("\n\n")
		b.WriteString("  " + titleStyle.Render("Auto-fixable files") + "  " + dimStyle.Render(fmt.Sprintf("(%d)", len(fixable))) + "\n")
		for _, f := range fixable {
			fmt.Fprintf(&b, "    %s %s\n", infoTagStyle.Render("●"), fileStyle.Render(shortenPath(f)))
		}
		b.WriteString("\n  " + dimStyle.Render("Run with --fix to apply automatic fixes.") + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

// RenderFixResult renders the outcome of a fix pass.
func RenderFixResult(result domain.FixResult) string {
	if len(result.Files) == 0 {
		return "  " + dimStyle.Render("Nothing to fix.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Fix") + "  " + dimStyle.Render(fmt.Sprintf("(%d files)", len(result.Files))) + "\n\n")
	for _, f := range result.Files {
		fmt.Fprintf(&b, "    %s %s\n", outcomeTag(result.Outcomes[f]), fileStyle.Render(shortenPath(f)))
	}
	b.WriteString("\n")
	return b.String()
}

func outcomeTag(o domain.FixOutcome) string {
	switch o {
	case domain.FixCompleted:
		return passStyle.Render("fixed ")
	case domain.FixKilled:
		return failStyle.Render("killed")
	case domain.FixErrored:
		return warnStyle.Render("failed")
	default:
		return faintStyle.Render("······")
	}
}

func severityTag(t domain.Severity) string {
	switch t {
	case domain.SeverityError:
		return errorTagStyle.Render("error")
	case domain.SeverityWarning:
		return warnTagStyle.Render("warn ")
	default:
		return infoTagStyle.Render("info ")
	}
}

func countStyle(n int, style lipgloss.Style) lipgloss.Style {
	if n == 0 {
		return dimStyle
	}
	return style
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func shortenPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 4 {
		return ".../" + strings.Join(parts[len(parts)-3:], "/")
	}
	return path
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderHistory formats recorded runs for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No run history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Run History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := e.Commit
		if len(hash) > 7 {
			hash = hash[:7]
		}
		if hash == "" {
			hash = "·······"
		}

		errStyled := countStyle(e.Totals.Errors, failStyle).Render(plural(e.Totals.Errors, "error"))
		warnStyled := countStyle(e.Totals.Warnings, warnStyle).Render(plural(e.Totals.Warnings, "warning"))

		line := fmt.Sprintf("  %s  %s  %s  %s  %s",
			dimStyle.Render(e.Timestamp.Format("2006-01-02 15:04")),
			faintStyle.Render(hash),
			errStyled,
			warnStyled,
			dimStyle.Render(plural(e.Totals.Files, "file")),
		)

		if i > 0 {
			diff := e.Totals.Errors - entries[i-1].Totals.Errors
			if diff < 0 {
				line += "  " + passStyle.Render(fmt.Sprintf("↓%d", -diff))
			} else if diff > 0 {
				line += "  " + failStyle.Render(fmt.Sprintf("↑%d", diff))
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// RenderRulesets lists the ruleset catalog, marking the members of current.
func RenderRulesets(current domain.Ruleset) string {
	active := make(map[domain.Ruleset]bool)
	for _, p := range current.Parts() {
		active[p] = true
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Rulesets") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")
	for _, r := range domain.Rulesets() {
		icon := faintStyle.Render("○")
		if active[r] {
			icon = passStyle.Render("●")
		}
		fmt.Fprintf(&b, "    %s %s %s\n", icon, titleStyle.Render(padRight(string(r), 18)), dimStyle.Render(r.Describe()))
	}
	b.WriteString("\n  " + dimStyle.Render("default: "+string(domain.DefaultRuleset)) + "\n")
	return b.String()
}
