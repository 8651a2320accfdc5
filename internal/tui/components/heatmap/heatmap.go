// Package heatmap renders a habit's yearly activity as a week-by-weekday grid.
package heatmap

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/metrics"
)

const cell = "■"

var (
	// one style per intensity, 0 through 4
	levels = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	}

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	weekdayLabels = []string{"Sun", "", "Tue", "", "Thu", "", "Sat"}
)

func style(intensity int) lipgloss.Style {
	if intensity < 0 {
		intensity = 0
	}
	if intensity >= len(levels) {
		intensity = len(levels) - 1
	}
	return levels[intensity]
}

// Grid arranges cells into rows by weekday (Sunday first) and columns by
// week. Slots before the first day and after the last are -1.
func Grid(cells []metrics.HeatmapCell) [7][]int {
	var grid [7][]int
	if len(cells) == 0 {
		return grid
	}
	first, err := time.Parse(constants.DateFormat, cells[0].Day)
	if err != nil {
		return grid
	}

	offset := int(first.Weekday())
	weeks := (offset + len(cells) + 6) / 7
	for row := range grid {
		grid[row] = make([]int, weeks)
		for col := range grid[row] {
			grid[row][col] = -1
		}
	}
	for i, c := range cells {
		pos := offset + i
		grid[pos%7][pos/7] = c.Intensity
	}
	return grid
}

// Render draws the grid with month labels above it
func Render(cells []metrics.HeatmapCell) string {
	grid := Grid(cells)
	if len(grid[0]) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("    ")
	b.WriteString(labelStyle.Render(monthHeader(cells, len(grid[0]))))
	b.WriteString("\n")

	for row := 0; row < 7; row++ {
		b.WriteString(labelStyle.Render(padRight(weekdayLabels[row], 4)))
		for _, intensity := range grid[row] {
			if intensity < 0 {
				b.WriteString(" ")
				continue
			}
			b.WriteString(style(intensity).Render(cell))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n    ")
	b.WriteString(labelStyle.Render("Less "))
	for i := range levels {
		b.WriteString(style(i).Render(cell))
	}
	b.WriteString(labelStyle.Render(" More"))
	return b.String()
}

// monthHeader places a three-letter month name over the week a month starts in
func monthHeader(cells []metrics.HeatmapCell, weeks int) string {
	line := []rune(strings.Repeat(" ", weeks+3))
	first, err := time.Parse(constants.DateFormat, cells[0].Day)
	if err != nil {
		return ""
	}
	offset := int(first.Weekday())
	next := 0
	for i, c := range cells {
		if !strings.HasSuffix(c.Day, "-01") {
			continue
		}
		col := (offset + i) / 7
		if col < next {
			continue
		}
		d, err := time.Parse(constants.DateFormat, c.Day)
		if err != nil {
			continue
		}
		copy(line[col:], []rune(d.Format("Jan")))
		next = col + 4
	}
	return strings.TrimRight(string(line), " ")
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
