package status

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"skillwatch/internal/application"
)

type RenderOptions struct {
	SkillsDir     string
	MaxSkillBytes int
	MaxIndexBytes int
}

const (
	barWidth = 24
	// Above this fill fraction the percent label switches to the
	// warning style, since the next index refresh will truncate.
	warnFraction = 0.9
)

func renderView(statuses []application.SkillStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Skills"),
		s.header.Render(headerLine(statuses, opts)),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No skills yet. Run the manager to grow some."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range statuses {
		lines = append(lines, s.section.Render(renderSkill(status, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func headerLine(statuses []application.SkillStatus, opts RenderOptions) string {
	observing := 0
	for _, status := range statuses {
		if status.Running {
			observing++
		}
	}

	line := fmt.Sprintf("skills: %d  observing: %d", len(statuses), observing)
	if opts.SkillsDir != "" {
		line += "  dir: " + opts.SkillsDir
	}
	return line
}

func renderSkill(status application.SkillStatus, opts RenderOptions, s styles) string {
	parts := []string{
		s.skill.Render(skillTitle(status)),
	}

	if indexLine, ok := usageLine("index", status.IndexBytes, opts.MaxIndexBytes, s); ok {
		parts = append(parts, indexLine)
	}
	if detailsLine, ok := usageLine("details", status.DetailsBytes, opts.MaxSkillBytes, s); ok {
		parts = append(parts, detailsLine)
	}

	if extra := detailLine(status); extra != "" {
		parts = append(parts, s.detail.Render(extra))
	}
	if status.IndexBytes == 0 && status.DetailsBytes == 0 && status.Legacy {
		parts = append(parts, s.empty.Render("legacy flat file, not yet distilled"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func skillTitle(status application.SkillStatus) string {
	if status.Running {
		return fmt.Sprintf("%s (observing, pid %d)", status.Name, status.Pid)
	}
	return fmt.Sprintf("%s (idle)", status.Name)
}

// usageLine renders one artifact bar. Artifacts that were never
// written are omitted rather than shown as empty bars.
func usageLine(label string, used, capacity int, s styles) (string, bool) {
	if used == 0 || capacity <= 0 {
		return "", false
	}

	fraction := float64(used) / float64(capacity)
	bar := renderProgressBar(fraction, barWidth, s)
	key := s.barKey.Render(fmt.Sprintf("%7s:", label))

	percentStyle := s.barMeta
	if fraction >= warnFraction {
		percentStyle = s.warning
	}
	meta := percentStyle.Render(fmt.Sprintf("%3.0f%% of %s", clampFraction(fraction)*100, humanBytes(capacity)))
	size := s.detail.Render(humanBytes(used))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		key,
		" ",
		bar,
		" ",
		size,
		" ",
		meta,
	), true
}

func detailLine(status application.SkillStatus) string {
	var notes []string
	if status.Resources > 0 {
		noun := "resources"
		if status.Resources == 1 {
			noun = "resource"
		}
		notes = append(notes, fmt.Sprintf("%d %s", status.Resources, noun))
	}
	if status.Legacy && (status.IndexBytes > 0 || status.DetailsBytes > 0) {
		notes = append(notes, "legacy flat file present")
	}
	return strings.Join(notes, "  ")
}

// renderProgressBar fills left to right with the used fraction, so a
// skill close to its cap shows a nearly full bar.
func renderProgressBar(fraction float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampFraction(fraction)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func humanBytes(n int) string {
	const kilobyte = 1024.0

	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	kb := float64(n) / kilobyte
	if kb < 1024 {
		return fmt.Sprintf("%.1f KB", kb)
	}
	return fmt.Sprintf("%.1f MB", kb/kilobyte)
}
