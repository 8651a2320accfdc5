package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
)

type ToggleTaskMsg struct {
	ID string
}

type DeleteTaskMsg struct {
	ID    string
	Title string
}

type Item struct {
	Task    models.Task
	Overdue bool
	Busy    bool
}

func (i Item) Title() string {
	switch {
	case i.Busy:
		return "… " + i.Task.Title
	case i.Task.Completed:
		return "✓ " + i.Task.Title
	case i.Overdue:
		return "! " + i.Task.Title
	default:
		return "○ " + i.Task.Title
	}
}

func (i Item) Description() string {
	parts := []string{string(i.Task.Priority), i.Task.Category}
	if i.Task.DueDate != nil {
		parts = append(parts, "due "+i.Task.DueDate.Format(constants.DisplayDateFormat))
	}
	if n := len(i.Task.Subtasks); n > 0 {
		done := 0
		for _, s := range i.Task.Subtasks {
			if s.Completed {
				done++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d subtasks", done, n))
	}
	if i.Busy {
		parts = append(parts, "saving...")
	}
	return strings.Join(parts, " · ")
}

func (i Item) FilterValue() string { return i.Task.Title }

type KeyMap struct {
	Toggle key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "toggle done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

// Items builds list items, marking overdue tasks relative to now
func Items(tasks []models.Task, now time.Time, busy func(id string) bool) []Item {
	items := make([]Item, len(tasks))
	for i, t := range tasks {
		items[i] = Item{Task: t, Overdue: t.IsOverdue(now), Busy: busy(t.ID)}
	}
	return items
}

func New(items []Item, width, height int) Model {
	l := list.New(toListItems(items), list.NewDefaultDelegate(), width, height)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Delete}
	}
	return Model{list: l, keys: keys}
}

func toListItems(items []Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func (m *Model) SetItems(items []Item) {
	m.list.SetItems(toListItems(items))
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Toggle):
			if i, ok := m.list.SelectedItem().(Item); ok && !i.Busy {
				return m, func() tea.Msg { return ToggleTaskMsg{ID: i.Task.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if i, ok := m.list.SelectedItem().(Item); ok && !i.Busy {
				return m, func() tea.Msg { return DeleteTaskMsg{ID: i.Task.ID, Title: i.Task.Title} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No tasks yet.\n  Use 'habitflow task add' to create one."
	}
	return m.list.View()
}

// Filtering reports whether the list's filter input has focus
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
