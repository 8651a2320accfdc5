package habits

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/metrics"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/tui/components/heatmap"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit a habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and its history."`
	Done    HabitDoneCmd    `cmd:"" help:"Mark a habit as done for a day."`
	Today   HabitTodayCmd   `cmd:"" help:"Show today's habit status."`
	Log     HabitLogCmd     `cmd:"" help:"Show habit log (ASCII history)."`
	Stats   HabitStatsCmd   `cmd:"" help:"Show streak and completion rate per habit."`
	Heatmap HabitHeatmapCmd `cmd:"" help:"Show a yearly heatmap for a habit."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Category    string `short:"c" help:"Category." required:""`
	Description string `short:"d" help:"Description."`
	Frequency   string `short:"f" help:"Frequency (daily|weekly|custom)." default:"daily" enum:"daily,weekly,custom"`
	Target      int    `short:"t" help:"Target count per period." default:"1"`
	Color       string `help:"Display color." default:"emerald"`
	Inactive    bool   `help:"Create the habit as inactive."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	habit, err := ctx.Sync.AddHabit(ctx.Ctx, models.NewHabit{
		Name:        c.Name,
		Description: c.Description,
		Frequency:   models.Frequency(c.Frequency),
		TargetCount: c.Target,
		Category:    c.Category,
		Color:       c.Color,
		IsActive:    !c.Inactive,
	})
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s (ID: %s)\n", habit.Name, cli.ShortID(habit.ID))
	return nil
}

type HabitListCmd struct {
	All     bool `help:"Include inactive habits."`
	ShowIDs bool `help:"Show habit IDs." name:"show-ids"`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	s := ctx.State()
	if len(s.Habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	calc := ctx.Calculator()
	for _, h := range s.Habits {
		if !c.All && !h.IsActive {
			continue
		}
		status := ""
		if !h.IsActive {
			status = " [INACTIVE]"
		}
		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", h.ID)
		}
		ctx.Printf("%s%s%s - %s, %s x%d, streak %d\n",
			h.Name, status, idStr, h.Category, h.Frequency, h.TargetCount, calc.Streak(s.Entries, h.ID))
	}
	return nil
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit name or ID."`
	Name        *string `help:"New name."`
	Category    *string `short:"c" help:"New category."`
	Description *string `short:"d" help:"New description."`
	Frequency   *string `short:"f" help:"New frequency (daily|weekly|custom)."`
	Target      *int    `short:"t" help:"New target count."`
	Color       *string `help:"New color."`
	Active      *bool   `help:"Set active status."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	habit, err := cli.ResolveHabit(ctx.State(), c.Habit)
	if err != nil {
		return err
	}

	patch := models.HabitPatch{
		Name:        c.Name,
		Description: c.Description,
		TargetCount: c.Target,
		Category:    c.Category,
		Color:       c.Color,
		IsActive:    c.Active,
	}
	if c.Frequency != nil {
		f := models.Frequency(*c.Frequency)
		patch.Frequency = &f
	}

	updated, err := ctx.Sync.UpdateHabit(ctx.Ctx, habit.ID, patch)
	if err != nil {
		return err
	}
	ctx.Printf("Updated habit: %s\n", updated.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	habit, err := cli.ResolveHabit(ctx.State(), c.Habit)
	if err != nil {
		return err
	}
	entries := len(ctx.State().EntriesFor(habit.ID))

	if err := ctx.Sync.DeleteHabit(ctx.Ctx, habit.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s (%d entries removed)\n", habit.Name, entries)
	return nil
}

type HabitDoneCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Count int    `help:"Times performed." default:"1"`
	Note  string `help:"Optional note for this entry." default:""`
}

func (c *HabitDoneCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	habit, err := cli.ResolveHabit(ctx.State(), c.Habit)
	if err != nil {
		return err
	}

	entry, err := ctx.Sync.AddHabitEntry(ctx.Ctx, models.NewHabitEntry{
		HabitID: habit.ID,
		Day:     c.Date,
		Count:   c.Count,
		Notes:   c.Note,
	})
	if err != nil {
		return err
	}

	streak := ctx.Calculator().Streak(ctx.State().Entries, habit.ID)
	ctx.Printf("Marked habit %q for %s (streak: %d)\n", habit.Name, entry.Day, streak)
	return nil
}

type HabitTodayCmd struct{}

func (c *HabitTodayCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	s := ctx.State()
	calc := ctx.Calculator()
	today := calc.Today()

	ctx.Printf("Habits for %s:\n\n", today)
	recorded, active := 0, 0
	for _, h := range s.Habits {
		if !h.IsActive {
			continue
		}
		active++
		status := "[ ]"
		if calc.CompletedToday(s.Entries, h.ID) {
			status = "[x]"
			recorded++
		}
		ctx.Printf("%s %s\n", status, h.Name)
	}
	if active == 0 {
		ctx.Println("No active habits.")
		return nil
	}

	ctx.Printf("\nRecorded: %d/%d\n", recorded, active)
	return nil
}

type HabitLogCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show log for specific habit only."`
}

const maxNameLen = 20

func padName(name string) string {
	if len(name) > maxNameLen {
		return name[:maxNameLen-3] + "..."
	}
	return name + strings.Repeat(" ", maxNameLen-len(name))
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 {
		return fmt.Errorf("days must be positive")
	}
	if err := ctx.Load(); err != nil {
		return err
	}

	s := ctx.State()
	var selected []models.Habit
	if c.Habit != "" {
		h, err := cli.ResolveHabit(s, c.Habit)
		if err != nil {
			return err
		}
		selected = []models.Habit{h}
	} else {
		for _, h := range s.Habits {
			if h.IsActive {
				selected = append(selected, h)
			}
		}
	}
	if len(selected) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	end := ctx.Now()
	start := end.AddDate(0, 0, -(c.Days - 1))

	ctx.Printf("Habit log (last %d days):\n\n", c.Days)
	ctx.Printf("%-*s", maxNameLen, "Habit")
	for i := 0; i < c.Days; i++ {
		ctx.Printf(" %5s", start.AddDate(0, 0, i).Format("01/02"))
	}
	ctx.Println()
	ctx.Println(strings.Repeat("-", maxNameLen+6*c.Days))

	calc := ctx.Calculator()
	for _, h := range selected {
		ctx.Printf("%s", padName(h.Name))
		for i := 0; i < c.Days; i++ {
			day := start.AddDate(0, 0, i).Format("2006-01-02")
			if _, ok := calc.EntryForDay(s.Entries, h.ID, day); ok {
				ctx.Printf("  x   ")
			} else {
				ctx.Printf("  .   ")
			}
		}
		ctx.Println()
	}
	return nil
}

type HabitStatsCmd struct {
	Window int `help:"Completion rate window in days (default: from config)."`
}

func (c *HabitStatsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	window := c.Window
	if window <= 0 {
		window = ctx.Config.CompletionWindowDays
	}

	s := ctx.State()
	calc := ctx.Calculator()
	if len(s.Habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	ctx.Printf("%-*s %7s %6s\n", maxNameLen, "Habit", "Streak", "Rate")
	for _, st := range statsFor(calc, s.Habits, s.Entries, window) {
		ctx.Printf("%s %7d %5d%%\n", padName(st.Name), st.Streak, st.CompletionRate)
	}
	return nil
}

// statsFor is HabitStats with a configurable window
func statsFor(calc metrics.Calculator, habits []models.Habit, entries []models.HabitEntry, window int) []metrics.HabitStat {
	stats := calc.HabitStats(habits, entries)
	for i := range stats {
		stats[i].CompletionRate = calc.CompletionRate(entries, stats[i].HabitID, window)
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].CompletionRate > stats[j].CompletionRate })
	return stats
}

type HabitHeatmapCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Year  int    `help:"Year to show (default: current year)."`
}

func (c *HabitHeatmapCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	s := ctx.State()
	habit, err := cli.ResolveHabit(s, c.Habit)
	if err != nil {
		return err
	}
	year := c.Year
	if year == 0 {
		year = ctx.Now().Year()
	}

	cells := metrics.Heatmap(s.Entries, habit.ID, year)
	active := 0
	for _, cell := range cells {
		if cell.Intensity > 0 {
			active++
		}
	}

	ctx.Printf("%s - %d (%d active days)\n\n", habit.Name, year, active)
	ctx.Println(heatmap.Render(cells))
	return nil
}
