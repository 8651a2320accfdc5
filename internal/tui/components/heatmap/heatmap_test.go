package heatmap

import (
	"strings"
	"testing"

	"github.com/julianstephens/habitflow/internal/metrics"
	"github.com/julianstephens/habitflow/internal/models"
)

func TestGridPlacesDaysByWeekday(t *testing.T) {
	// 2024-01-01 is a Monday
	entries := []models.HabitEntry{
		{ID: "e1", HabitID: "h1", Day: "2024-01-01", Count: 2},
		{ID: "e2", HabitID: "h1", Day: "2024-12-31", Count: 9},
	}
	grid := Grid(metrics.Heatmap(entries, "h1", 2024))

	if got := grid[0][0]; got != -1 {
		t.Errorf("Sunday before Jan 1 should be empty, got %d", got)
	}
	if got := grid[1][0]; got != 2 {
		t.Errorf("Jan 1 intensity = %d, want 2", got)
	}

	weeks := len(grid[0])
	if weeks != 53 {
		t.Fatalf("weeks = %d, want 53", weeks)
	}
	// 2024-12-31 is a Tuesday
	if got := grid[2][weeks-1]; got != 4 {
		t.Errorf("Dec 31 intensity = %d, want capped 4", got)
	}
	if got := grid[3][weeks-1]; got != -1 {
		t.Errorf("slot after Dec 31 should be empty, got %d", got)
	}
}

func TestGridEmpty(t *testing.T) {
	grid := Grid(nil)
	for _, row := range grid {
		if len(row) != 0 {
			t.Fatal("expected empty grid")
		}
	}
	if Render(nil) != "" {
		t.Error("expected empty render")
	}
}

func TestRenderHasMonthsAndLegend(t *testing.T) {
	out := Render(metrics.Heatmap(nil, "h1", 2024))
	for _, want := range []string{"Jan", "Jun", "Dec", "Less", "More", "Sun", "Sat"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
	if lines := strings.Count(out, "\n"); lines < 9 {
		t.Errorf("expected header, 7 rows and legend, got %d lines", lines)
	}
}
