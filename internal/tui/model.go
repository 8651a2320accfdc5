package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/datasync"
	"github.com/julianstephens/habitflow/internal/metrics"
	"github.com/julianstephens/habitflow/internal/state"
	"github.com/julianstephens/habitflow/internal/tui/components/habits"
	"github.com/julianstephens/habitflow/internal/tui/components/tasklist"
)

// Session ends the signed-in session. The resulting session event reaches
// the syncer, which clears the view.
type Session interface {
	SignOut(ctx context.Context) error
}

type HabitFormModel struct {
	Name     string
	Category string
}

// pendingDelete is the record awaiting confirmation
type pendingDelete struct {
	habit bool
	id    string
	name  string
}

type Model struct {
	ctx     context.Context
	sync    *datasync.Syncer
	session Session
	calc    metrics.Calculator
	changes chan state.State
	unsub   func()

	snapshot      state.State
	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	habitsModel   habits.Model
	taskList      tasklist.Model
	form          *huh.Form
	habitForm     *HabitFormModel
	toDelete      *pendingDelete
	// pending holds in-flight keys for writes started from this model
	pending  map[string]bool
	status   string
	errMsg   string
	quitting bool
	width    int
	height   int
}

// NewModel builds the TUI over a syncer whose session has already been restored
func NewModel(ctx context.Context, s *datasync.Syncer, session Session, calc metrics.Calculator) *Model {
	m := &Model{
		ctx:     ctx,
		sync:    s,
		session: session,
		calc:    calc,
		changes: make(chan state.State, 1),
		state:   constants.StateHabits,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		pending: make(map[string]bool),
	}

	// listeners run under the container lock, so only the latest state is queued
	m.unsub = s.Store().Subscribe(func(st state.State) {
		select {
		case <-m.changes:
		default:
		}
		m.changes <- st
	})

	m.snapshot = s.Store().Snapshot()
	m.habitsModel = habits.New(m.habitItems(), 0, 0)
	m.taskList = tasklist.New(m.taskItems(), 0, 0)
	return m
}

// Close stops listening for state changes
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

func (m *Model) busy(key string) bool {
	return m.pending[key] || m.sync.InFlight(key)
}

func (m *Model) now() time.Time {
	if m.calc.Now != nil {
		return m.calc.Now()
	}
	return time.Now()
}

func (m *Model) habitItems() []habits.Item {
	today := m.calc.Today()
	items := make([]habits.Item, len(m.snapshot.Habits))
	for i, h := range m.snapshot.Habits {
		items[i] = habits.Item{
			Habit:  h,
			Done:   m.calc.CompletedToday(m.snapshot.Entries, h.ID),
			Streak: m.calc.Streak(m.snapshot.Entries, h.ID),
			Busy:   m.busy(datasync.HabitKey(h.ID)) || m.busy(datasync.EntryKey(h.ID, today)),
		}
	}
	return items
}

func (m *Model) taskItems() []tasklist.Item {
	return tasklist.Items(m.snapshot.Tasks, m.now(), func(id string) bool {
		return m.busy(datasync.TaskKey(id))
	})
}

// refreshViews rebuilds the lists from the latest snapshot
func (m *Model) refreshViews() {
	m.habitsModel.SetItems(m.habitItems())
	m.taskList.SetItems(m.taskItems())
}

func (m *Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Refresh, m.keys.Quit, m.keys.Help}
	if m.state == constants.StateHabits {
		keys = append(keys, m.keys.Add)
	}
	return keys
}

func (m *Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Refresh, m.keys.Clear, m.keys.SignOut, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case constants.StateHabits:
		actions = []key.Binding{m.keys.Add, m.keys.Mark, m.keys.Delete}
	case constants.StateTasks:
		actions = []key.Binding{m.keys.Toggle, m.keys.Delete}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m *Model) Init() tea.Cmd {
	return waitForChange(m.ctx, m.changes)
}
