package metrics

import (
	"sort"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

// DashboardStats summarises current progress. Habit figures cover active
// habits only; inactive habits keep their history but are not tracked today.
type DashboardStats struct {
	TotalHabits          int `json:"totalHabits"`
	CompletedHabitsToday int `json:"completedHabitsToday"`
	TotalTasks           int `json:"totalTasks"`
	CompletedTasks       int `json:"completedTasks"`
	PendingTasks         int `json:"pendingTasks"`
	OverdueTasks         int `json:"overdueTasks"`
	LongestStreak        int `json:"longestStreak"`
	AvgCompletionRate    int `json:"avgCompletionRate"`
}

// HabitStat is the per-habit line of the analytics view
type HabitStat struct {
	HabitID        string `json:"habitId"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	Streak         int    `json:"streak"`
	CompletionRate int    `json:"completionRate"`
}

// DayActivity counts habit entries and completed tasks for one calendar day
type DayActivity struct {
	Day    string `json:"day"`
	Habits int    `json:"habits"`
	Tasks  int    `json:"tasks"`
}

// MonthActivity counts habit entries and completed tasks for one month
type MonthActivity struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Habits int        `json:"habits"`
	Tasks  int        `json:"tasks"`
}

// Label returns a short display label such as "Mar 2024"
func (m MonthActivity) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format(constants.MonthFormat)
}

// PriorityCount is one bucket of the priority breakdown
type PriorityCount struct {
	Priority models.Priority `json:"priority"`
	Count    int             `json:"count"`
}

// HeatmapCell is one day of a habit's yearly heatmap
type HeatmapCell struct {
	Day       string `json:"day"`
	Intensity int    `json:"intensity"`
}

// Dashboard computes the headline statistics
func (c Calculator) Dashboard(habits []models.Habit, tasks []models.Task, entries []models.HabitEntry) DashboardStats {
	var stats DashboardStats
	now := c.now()

	rateSum := 0
	for _, h := range habits {
		if !h.IsActive {
			continue
		}
		stats.TotalHabits++
		if c.CompletedToday(entries, h.ID) {
			stats.CompletedHabitsToday++
		}
		if s := c.Streak(entries, h.ID); s > stats.LongestStreak {
			stats.LongestStreak = s
		}
		rateSum += c.CompletionRate(entries, h.ID, constants.DefaultCompletionWindowDays)
	}
	if stats.TotalHabits > 0 {
		stats.AvgCompletionRate = (2*rateSum + stats.TotalHabits) / (2 * stats.TotalHabits)
	}

	stats.TotalTasks = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			stats.CompletedTasks++
		}
		if t.IsOverdue(now) {
			stats.OverdueTasks++
		}
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks

	return stats
}

// HabitStats returns streak and 30-day completion rate per habit, highest rate first.
func (c Calculator) HabitStats(habits []models.Habit, entries []models.HabitEntry) []HabitStat {
	stats := make([]HabitStat, 0, len(habits))
	for _, h := range habits {
		stats = append(stats, HabitStat{
			HabitID:        h.ID,
			Name:           h.Name,
			Color:          h.Color,
			Streak:         c.Streak(entries, h.ID),
			CompletionRate: c.CompletionRate(entries, h.ID, constants.DefaultCompletionWindowDays),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].CompletionRate > stats[j].CompletionRate
	})
	return stats
}

// RecentActivity returns one bucket per day for the last n days, oldest first.
func (c Calculator) RecentActivity(entries []models.HabitEntry, tasks []models.Task, days int) []DayActivity {
	if days <= 0 {
		return nil
	}
	today := c.Today()
	buckets := make([]DayActivity, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		day, err := utils.AddDays(today, i-(days-1))
		if err != nil {
			return nil
		}
		buckets[i] = DayActivity{Day: day}
		index[day] = i
	}

	for _, e := range entries {
		if i, ok := index[e.Day]; ok {
			buckets[i].Habits++
		}
	}
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		if i, ok := index[utils.DayOf(*t.CompletedAt, c.loc())]; ok {
			buckets[i].Tasks++
		}
	}
	return buckets
}

// MonthlyActivity returns one bucket per month for the last n months, oldest first.
func (c Calculator) MonthlyActivity(entries []models.HabitEntry, tasks []models.Task, months int) []MonthActivity {
	if months <= 0 {
		return nil
	}
	now := c.now().In(c.loc())
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	buckets := make([]MonthActivity, months)
	index := make(map[[2]int]int, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i-(months-1), 0)
		buckets[i] = MonthActivity{Year: m.Year(), Month: m.Month()}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}

	for _, e := range entries {
		d, err := time.Parse(constants.DateFormat, e.Day)
		if err != nil {
			continue
		}
		if i, ok := index[[2]int{d.Year(), int(d.Month())}]; ok {
			buckets[i].Habits++
		}
	}
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		d := t.CompletedAt.In(c.loc())
		if i, ok := index[[2]int{d.Year(), int(d.Month())}]; ok {
			buckets[i].Tasks++
		}
	}
	return buckets
}

// PriorityBreakdown counts tasks per priority, high first, omitting empty buckets.
func PriorityBreakdown(tasks []models.Task) []PriorityCount {
	counts := make(map[models.Priority]int)
	for _, t := range tasks {
		counts[t.Priority]++
	}
	var out []PriorityCount
	for _, p := range []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		if counts[p] > 0 {
			out = append(out, PriorityCount{Priority: p, Count: counts[p]})
		}
	}
	return out
}

// Heatmap returns every day of year with the habit's entry count capped at 4.
func Heatmap(entries []models.HabitEntry, habitID string, year int) []HeatmapCell {
	counts := make(map[string]int)
	for _, e := range entries {
		if e.HabitID == habitID {
			counts[e.Day] += e.Count
		}
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	var cells []HeatmapCell
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		day := d.Format(constants.DateFormat)
		cells = append(cells, HeatmapCell{Day: day, Intensity: min(counts[day], constants.MaxHeatmapIntensity)})
	}
	return cells
}

// UpcomingTasks returns incomplete tasks that have a due date, soonest first.
func UpcomingTasks(tasks []models.Task, limit int) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if !t.Completed && t.DueDate != nil {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
