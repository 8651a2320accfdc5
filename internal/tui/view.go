package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/metrics"
	"github.com/julianstephens/habitflow/internal/tui/components/heatmap"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateHabits:
		content = docStyle.Render(m.habitsModel.View())
	case constants.StateTasks:
		content = docStyle.Render(m.taskList.View())
	case constants.StateStats:
		content = docStyle.Render(m.viewStats())
	case constants.StateAddHabit:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewStatus(),
		content,
		m.help.View(m),
	)
}

func (m *Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Habits", "Tasks", "Stats"} {
		if m.tab() == constants.SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// tab is the top-level tab behind any form or confirmation
func (m *Model) tab() constants.SessionState {
	switch m.state {
	case constants.StateAddHabit, constants.StateConfirmDelete:
		return m.previousState
	}
	return m.state
}

func (m *Model) viewStatus() string {
	switch {
	case m.errMsg != "":
		return warningStyle.Render("⚠ " + m.errMsg)
	case m.snapshot.Loading():
		return statusStyle.Render("Loading...")
	case m.snapshot.LastError != nil:
		return warningStyle.Render("⚠ Last refresh failed, press r to retry")
	case m.status != "":
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m *Model) viewStats() string {
	s := m.snapshot
	stats := m.calc.Dashboard(s.Habits, s.Tasks, s.Entries)

	var b strings.Builder
	row := func(label string, value interface{}) {
		fmt.Fprintf(&b, "%s %v\n", labelStyle.Render(fmt.Sprintf("%-22s", label)), value)
	}
	row("Habits done today", fmt.Sprintf("%d/%d", stats.CompletedHabitsToday, stats.TotalHabits))
	row("Longest streak", fmt.Sprintf("%d days", stats.LongestStreak))
	row("Avg completion rate", fmt.Sprintf("%d%%", stats.AvgCompletionRate))
	row("Tasks completed", fmt.Sprintf("%d/%d", stats.CompletedTasks, stats.TotalTasks))
	row("Pending tasks", stats.PendingTasks)
	row("Overdue tasks", stats.OverdueTasks)

	if breakdown := metrics.PriorityBreakdown(s.Tasks); len(breakdown) > 0 {
		parts := make([]string, len(breakdown))
		for i, p := range breakdown {
			parts[i] = fmt.Sprintf("%s %d", p.Priority, p.Count)
		}
		row("By priority", strings.Join(parts, " · "))
	}

	if item, ok := m.habitsModel.Selected(); ok {
		now := m.now()
		if m.calc.Location != nil {
			now = now.In(m.calc.Location)
		}
		year := now.Year()
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %d\n\n", item.Habit.Name, year)
		b.WriteString(heatmap.Render(metrics.Heatmap(s.Entries, item.Habit.ID, year)))
	}
	return b.String()
}

func (m *Model) viewConfirmDelete() string {
	what := "task"
	if m.toDelete != nil && m.toDelete.habit {
		what = "habit and all of its entries"
	}
	name := ""
	if m.toDelete != nil {
		name = m.toDelete.name
	}
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete this %s?", what)),
			name,
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
