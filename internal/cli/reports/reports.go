package reports

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/metrics"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	taskBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const barWidth = 30

func bar(style lipgloss.Style, n, limit int) string {
	if limit <= 0 || n <= 0 {
		return ""
	}
	w := n * barWidth / limit
	if w == 0 {
		w = 1
	}
	return style.Render(strings.Repeat("█", w))
}

func printJSON(ctx *cli.Context, v interface{}) error {
	enc := json.NewEncoder(ctx.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

type DashboardCmd struct {
	JSON bool `help:"Print statistics as JSON."`
}

func (c *DashboardCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	s := ctx.State()
	calc := ctx.Calculator()
	stats := calc.Dashboard(s.Habits, s.Tasks, s.Entries)
	upcoming := metrics.UpcomingTasks(s.Tasks, constants.UpcomingTaskLimit)

	if c.JSON {
		return printJSON(ctx, struct {
			metrics.DashboardStats
			Today string `json:"today"`
		}{stats, calc.Today()})
	}

	ctx.Println(headingStyle.Render("Dashboard - " + ctx.Now().Format(constants.DisplayDateFormat)))
	ctx.Println()
	row := func(label string, value string) {
		ctx.Printf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-22s", label)), valueStyle.Render(value))
	}
	row("Habits done today", fmt.Sprintf("%d/%d", stats.CompletedHabitsToday, stats.TotalHabits))
	row("Longest streak", fmt.Sprintf("%d days", stats.LongestStreak))
	row("Avg completion rate", fmt.Sprintf("%d%%", stats.AvgCompletionRate))
	row("Tasks completed", fmt.Sprintf("%d/%d", stats.CompletedTasks, stats.TotalTasks))
	row("Tasks pending", fmt.Sprintf("%d", stats.PendingTasks))
	overdue := fmt.Sprintf("%d", stats.OverdueTasks)
	if stats.OverdueTasks > 0 {
		overdue = overdueStyle.Render(overdue)
	}
	row("Tasks overdue", overdue)

	ctx.Println()
	ctx.Println(headingStyle.Render("Today's habits"))
	shown := false
	for _, h := range s.Habits {
		if !h.IsActive {
			continue
		}
		shown = true
		mark := "[ ]"
		if calc.CompletedToday(s.Entries, h.ID) {
			mark = "[x]"
		}
		ctx.Printf("  %s %s (streak %d)\n", mark, h.Name, calc.Streak(s.Entries, h.ID))
	}
	if !shown {
		ctx.Println("  No active habits.")
	}

	ctx.Println()
	ctx.Println(headingStyle.Render("Upcoming tasks"))
	if len(upcoming) == 0 {
		ctx.Println("  Nothing due.")
	}
	now := ctx.Now()
	for _, t := range upcoming {
		due := t.DueDate.In(ctx.Location()).Format(constants.DisplayDateFormat)
		if t.IsOverdue(now) {
			due = overdueStyle.Render(due + " (overdue)")
		}
		ctx.Printf("  %s - %s [%s]\n", t.Title, due, t.Priority)
	}
	return nil
}

type AnalyticsCmd struct {
	Days   int  `help:"Days of recent activity to show." default:"${recent_days}"`
	Months int  `help:"Months of activity to show." default:"${monthly_months}"`
	JSON   bool `help:"Print analytics as JSON."`
}

func (c *AnalyticsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	s := ctx.State()
	calc := ctx.Calculator()

	habitStats := calc.HabitStats(s.Habits, s.Entries)
	recent := calc.RecentActivity(s.Entries, s.Tasks, c.Days)
	monthly := calc.MonthlyActivity(s.Entries, s.Tasks, c.Months)
	priorities := metrics.PriorityBreakdown(s.Tasks)

	if c.JSON {
		return printJSON(ctx, struct {
			Habits     []metrics.HabitStat     `json:"habits"`
			Recent     []metrics.DayActivity   `json:"recent"`
			Monthly    []metrics.MonthActivity `json:"monthly"`
			Priorities []metrics.PriorityCount `json:"priorities"`
		}{habitStats, recent, monthly, priorities})
	}

	ctx.Println(headingStyle.Render("Habit performance"))
	if len(habitStats) == 0 {
		ctx.Println("  No habits yet.")
	}
	for _, st := range habitStats {
		ctx.Printf("  %-20s %3d%% %s streak %d\n", st.Name, st.CompletionRate, bar(barStyle, st.CompletionRate, 100), st.Streak)
	}

	ctx.Println()
	ctx.Println(headingStyle.Render(fmt.Sprintf("Last %d days", c.Days)))
	maxDay := 0
	for _, d := range recent {
		maxDay = max(maxDay, d.Habits, d.Tasks)
	}
	for _, d := range recent {
		ctx.Printf("  %s  habits %2d %s\n", d.Day, d.Habits, bar(barStyle, d.Habits, maxDay))
		ctx.Printf("  %s  tasks  %2d %s\n", strings.Repeat(" ", len(d.Day)), d.Tasks, bar(taskBarStyle, d.Tasks, maxDay))
	}

	ctx.Println()
	ctx.Println(headingStyle.Render("Monthly activity"))
	maxMonth := 0
	for _, m := range monthly {
		maxMonth = max(maxMonth, m.Habits+m.Tasks)
	}
	for _, m := range monthly {
		ctx.Printf("  %-8s %4d %s%s\n", m.Label(), m.Habits+m.Tasks,
			bar(barStyle, m.Habits, maxMonth), bar(taskBarStyle, m.Tasks, maxMonth))
	}

	ctx.Println()
	ctx.Println(headingStyle.Render("Tasks by priority"))
	if len(priorities) == 0 {
		ctx.Println("  No tasks yet.")
	}
	total := 0
	for _, p := range priorities {
		total += p.Count
	}
	for _, p := range priorities {
		ctx.Printf("  %-8s %3d %s\n", p.Priority, p.Count, bar(taskBarStyle, p.Count, total))
	}
	return nil
}
