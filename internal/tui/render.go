package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/greetcard/internal/card"
	"github.com/verte-zerg/greetcard/internal/effects"
)

// confettiGlyphs are indexed by rotation in 45° steps.
var confettiGlyphs = []string{"│", "╱", "─", "╲", "■", "◆", "▪", "●"}

var (
	dotActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	dotBeforeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	dotAfterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
)

type styledCell struct {
	s     string
	width int
}

var blankCell = styledCell{s: " ", width: 1}

func renderDots(tags []card.PageTag) string {
	dots := make([]string, 0, len(tags))
	for _, tag := range tags {
		switch tag {
		case card.TagActive:
			dots = append(dots, dotActiveStyle.Render("●"))
		case card.TagBefore:
			dots = append(dots, dotBeforeStyle.Render("•"))
		default:
			dots = append(dots, dotAfterStyle.Render("○"))
		}
	}
	return strings.Join(dots, " ")
}

func confettiGlyph(rotation float64) string {
	idx := int(rotation/45) % len(confettiGlyphs)
	if idx < 0 {
		idx = 0
	}
	return confettiGlyphs[idx]
}

// renderConfetti draws particles on a width x height field. Later particles
// overwrite earlier ones sharing a cell.
func renderConfetti(particles []effects.Particle, now time.Time, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	grid := make([][]styledCell, height)
	for row := range grid {
		grid[row] = make([]styledCell, width)
		for col := range grid[row] {
			grid[row][col] = blankCell
		}
	}
	for _, p := range particles {
		col := int(p.X / 100 * float64(width))
		row := int(p.Progress(now) * float64(height-1))
		if col < 0 || col >= width || row < 0 || row >= height {
			continue
		}
		glyph := confettiGlyph(p.Rotation)
		w := runewidth.StringWidth(glyph)
		if w < 1 || col+w > width {
			continue
		}
		grid[row][col] = styledCell{
			s:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render(glyph),
			width: w,
		}
	}

	lines := make([]string, height)
	for row, cells := range grid {
		lines[row] = renderCells(cells)
	}
	return strings.Join(lines, "\n")
}

// renderCells joins a row, skipping cells covered by a wide glyph.
func renderCells(cells []styledCell) string {
	var b strings.Builder
	for col := 0; col < len(cells); {
		cell := cells[col]
		b.WriteString(cell.s)
		if cell.width < 1 {
			col++
			continue
		}
		col += cell.width
	}
	return b.String()
}
