package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitflow/internal/auth"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/datasync"
	"github.com/julianstephens/habitflow/internal/metrics"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/state"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/storage/memory"
	"github.com/julianstephens/habitflow/internal/tui/components/habits"
	"github.com/julianstephens/habitflow/internal/tui/components/tasklist"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	sync  *datasync.Syncer
	model *Model
	habit models.Habit
	task  models.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return fixedNow }

	store := memory.NewStore()
	store.Now = clock
	id := &models.Identity{UserID: "user-a", Email: "a@example.com"}

	h, err := store.InsertHabit(ctx, id.UserID, models.NewHabit{Name: "Read", Category: "mind", IsActive: true}.WithDefaults())
	require.NoError(t, err)
	task, err := store.InsertTask(ctx, id.UserID, models.NewTask{Title: "Taxes", Category: "admin"}.WithDefaults())
	require.NoError(t, err)

	s := datasync.New(
		storage.Configured{Provider: store, Endpoint: constants.MemoryEndpoint, APIKey: "hf_0123456789abcdef"},
		state.NewContainer(),
		datasync.WithClock(clock),
		datasync.WithLocation(time.UTC),
	)
	require.NoError(t, s.SetIdentity(ctx, id))

	m := NewModel(ctx, s, nil, metrics.Calculator{Now: clock, Location: time.UTC})
	t.Cleanup(m.Close)
	return &fixture{ctx: ctx, store: store, sync: s, model: m, habit: h, task: task}
}

// run executes cmd and feeds the resulting message back into the model
func (f *fixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	_, _ = f.model.Update(msg)
	// deliver the state change the write produced
	if _, ok := msg.(writeDoneMsg); ok {
		_, _ = f.model.Update(waitForChange(f.ctx, f.model.changes)())
	}
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewModelShowsSnapshot(t *testing.T) {
	f := newFixture(t)

	items := f.model.habitItems()
	require.Len(t, items, 1)
	assert.Equal(t, "Read", items[0].Habit.Name)
	assert.False(t, items[0].Done)
	assert.Len(t, f.model.taskItems(), 1)
}

func TestTabCycles(t *testing.T) {
	f := newFixture(t)
	tab := tea.KeyMsg{Type: tea.KeyTab}

	_, _ = f.model.Update(tab)
	assert.Equal(t, constants.StateTasks, f.model.state)
	_, _ = f.model.Update(tab)
	assert.Equal(t, constants.StateStats, f.model.state)
	_, _ = f.model.Update(tab)
	assert.Equal(t, constants.StateHabits, f.model.state)

	_, _ = f.model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, constants.StateStats, f.model.state)
}

func TestMarkHabitDone(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.model.Update(habits.MarkHabitMsg{ID: f.habit.ID})
	assert.True(t, f.model.pending[datasync.EntryKey(f.habit.ID, "2024-03-15")])
	f.run(t, cmd)

	assert.Empty(t, f.model.pending)
	assert.Empty(t, f.model.errMsg)
	items := f.model.habitItems()
	require.Len(t, items, 1)
	assert.True(t, items[0].Done)
	assert.Equal(t, 1, items[0].Streak)
}

func TestMarkHabitTwiceShowsDuplicateMessage(t *testing.T) {
	f := newFixture(t)
	_, err := f.sync.AddHabitEntry(f.ctx, models.NewHabitEntry{HabitID: f.habit.ID, Day: "2024-03-15"})
	require.NoError(t, err)

	_, cmd := f.model.Update(habits.MarkHabitMsg{ID: f.habit.ID})
	msg := cmd()
	_, _ = f.model.Update(msg)

	assert.Equal(t, "already completed today", f.model.errMsg)
}

func TestToggleTask(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.model.Update(tasklist.ToggleTaskMsg{ID: f.task.ID})
	f.run(t, cmd)

	got, ok := f.model.snapshot.Task(f.task.ID)
	require.True(t, ok)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(fixedNow))
}

func TestDeleteHabitRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	_, err := f.sync.AddHabitEntry(f.ctx, models.NewHabitEntry{HabitID: f.habit.ID, Day: "2024-03-15"})
	require.NoError(t, err)

	_, _ = f.model.Update(habits.DeleteHabitMsg{ID: f.habit.ID, Name: f.habit.Name})
	assert.Equal(t, constants.StateConfirmDelete, f.model.state)
	assert.Contains(t, f.model.View(), "all of its entries")

	_, cmd := f.model.Update(keyPress('n'))
	assert.Nil(t, cmd)
	assert.Equal(t, constants.StateHabits, f.model.state)
	assert.Len(t, f.sync.Store().Snapshot().Habits, 1)

	_, _ = f.model.Update(habits.DeleteHabitMsg{ID: f.habit.ID, Name: f.habit.Name})
	_, cmd = f.model.Update(keyPress('y'))
	f.run(t, cmd)

	assert.Equal(t, constants.StateHabits, f.model.state)
	assert.Empty(t, f.model.snapshot.Habits)
	assert.Empty(t, f.model.snapshot.Entries)
}

func TestQuitIgnoredWhileConfirming(t *testing.T) {
	f := newFixture(t)
	_, _ = f.model.Update(tasklist.DeleteTaskMsg{ID: f.task.ID, Title: f.task.Title})

	_, cmd := f.model.Update(keyPress('q'))
	assert.Nil(t, cmd)
	assert.False(t, f.model.quitting)
}

func TestRefreshReportsStatus(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.model.Update(keyPress('r'))
	require.NotNil(t, cmd)
	_, _ = f.model.Update(cmd())
	assert.Equal(t, "Up to date", f.model.status)
}

func TestClearKeyEmptiesLocalView(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.model.Update(keyPress('C'))
	assert.Nil(t, cmd)
	_, _ = f.model.Update(waitForChange(f.ctx, f.model.changes)())
	assert.Empty(t, f.model.habitItems())
	assert.Contains(t, f.model.status, "Local data cleared")

	remote, err := f.store.ListHabits(f.ctx, "user-a")
	require.NoError(t, err)
	assert.Len(t, remote, 1)
}

func TestStatsViewRendersHeatmap(t *testing.T) {
	f := newFixture(t)
	f.model.state = constants.StateStats

	view := f.model.View()
	assert.Contains(t, view, "Habits done today")
	assert.Contains(t, view, "Read 2024")
}

func TestSignOutKeyEndsSessionAndClearsView(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := func() time.Time { return fixedNow }

	store := memory.NewStore()
	store.Now = clock
	svc := auth.NewService(store, auth.NewTokenManager("0123456789abcdef0123456789abcdef", "habitflow", time.Hour),
		&auth.MemorySessionStore{}, auth.WithHashCost(bcrypt.MinCost))
	id, err := svc.SignUp(ctx, "a@example.com", "correct horse")
	require.NoError(t, err)
	_, err = store.InsertHabit(ctx, id.UserID, models.NewHabit{Name: "Read", Category: "mind", IsActive: true}.WithDefaults())
	require.NoError(t, err)

	s := datasync.New(
		storage.Configured{Provider: store, Endpoint: constants.MemoryEndpoint, APIKey: "hf_0123456789abcdef"},
		state.NewContainer(),
		datasync.WithClock(clock),
		datasync.WithLocation(time.UTC),
	)
	require.NoError(t, s.SetIdentity(ctx, &id))

	events, stop := svc.Subscribe(1)
	defer stop()
	go s.Watch(ctx, events)

	m := NewModel(ctx, s, svc, metrics.Calculator{Now: clock, Location: time.UTC})
	defer m.Close()
	require.Len(t, m.habitItems(), 1)

	_, cmd := m.Update(keyPress('S'))
	require.NotNil(t, cmd)
	_, _ = m.Update(cmd())
	assert.Equal(t, "Signed out", m.status)

	assert.Eventually(t, func() bool { return s.Identity() == nil }, time.Second, 5*time.Millisecond)
	_, _ = m.Update(waitForChange(ctx, m.changes)())
	assert.Empty(t, m.habitItems())

	cur, err := svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}
