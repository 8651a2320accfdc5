package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/datasync"
	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/state"
	"github.com/julianstephens/habitflow/internal/tui/components/habits"
	"github.com/julianstephens/habitflow/internal/tui/components/tasklist"
)

type stateChangedMsg struct {
	state state.State
}

// writeDoneMsg reports the outcome of a write started from the TUI
type writeDoneMsg struct {
	key  string
	done string
	err  error
}

type refreshDoneMsg struct {
	err error
}

type signOutDoneMsg struct {
	err error
}

func waitForChange(ctx context.Context, ch <-chan state.State) tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-ch:
			return stateChangedMsg{state: st}
		case <-ctx.Done():
			return nil
		}
	}
}

// write marks key pending and runs fn off the update loop
func (m *Model) write(key, done string, fn func(ctx context.Context) error) tea.Cmd {
	m.pending[key] = true
	m.errMsg = ""
	m.refreshViews()
	ctx := m.ctx
	return func() tea.Msg {
		return writeDoneMsg{key: key, done: done, err: fn(ctx)}
	}
}

func (m *Model) refresh() tea.Cmd {
	m.status = "Refreshing..."
	ctx, s := m.ctx, m.sync
	return func() tea.Msg {
		return refreshDoneMsg{err: s.Refresh(ctx)}
	}
}

func (m *Model) signOut() tea.Cmd {
	if m.session == nil {
		return nil
	}
	m.status = "Signing out..."
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return signOutDoneMsg{err: session.SignOut(ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		m.habitsModel.SetSize(msg.Width-h, msg.Height-v-4)
		m.taskList.SetSize(msg.Width-h, msg.Height-v-4)
		return m, nil

	case stateChangedMsg:
		m.snapshot = msg.state
		m.refreshViews()
		return m, waitForChange(m.ctx, m.changes)

	case writeDoneMsg:
		delete(m.pending, msg.key)
		if msg.err != nil {
			m.errMsg = apperrors.UserMessage(msg.err)
			m.status = ""
		} else {
			m.status = msg.done
		}
		m.refreshViews()
		return m, nil

	case refreshDoneMsg:
		if msg.err != nil {
			m.errMsg = apperrors.UserMessage(msg.err)
			m.status = ""
		} else {
			m.status = "Up to date"
		}
		return m, nil

	case signOutDoneMsg:
		if msg.err != nil {
			m.errMsg = apperrors.UserMessage(msg.err)
			m.status = ""
		} else {
			m.errMsg = ""
			m.status = "Signed out"
		}
		return m, nil
	}

	switch m.state {
	case constants.StateAddHabit:
		return m, m.updateAddHabit(msg)
	case constants.StateConfirmDelete:
		return m, m.updateConfirmDelete(msg)
	}

	if handled, cmd := m.handleComponentMsg(msg); handled {
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % 3
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state + 2) % 3
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh()
		case key.Matches(msg, m.keys.Clear):
			m.sync.ClearLocal()
			m.errMsg = ""
			m.status = "Local data cleared, press r to reload"
			return m, nil
		case key.Matches(msg, m.keys.SignOut):
			return m, m.signOut()
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case constants.StateHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	case constants.StateTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	}
	return m, cmd
}

// filtering reports whether the active list is capturing keystrokes
func (m *Model) filtering() bool {
	switch m.state {
	case constants.StateHabits:
		return m.habitsModel.Filtering()
	case constants.StateTasks:
		return m.taskList.Filtering()
	}
	return false
}

func (m *Model) handleComponentMsg(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case habits.AddHabitMsg:
		if m.busy(datasync.KeyNewHabit) {
			return true, nil
		}
		m.habitForm = &HabitFormModel{Category: "general"}
		m.form = NewHabitForm(m.habitForm)
		m.previousState = m.state
		m.state = constants.StateAddHabit
		return true, m.form.Init()

	case habits.MarkHabitMsg:
		day := m.calc.Today()
		k := datasync.EntryKey(msg.ID, day)
		if m.busy(k) {
			return true, nil
		}
		s := m.sync
		return true, m.write(k, "Marked done for today", func(ctx context.Context) error {
			_, err := s.AddHabitEntry(ctx, models.NewHabitEntry{HabitID: msg.ID, Day: day})
			return err
		})

	case habits.DeleteHabitMsg:
		m.confirmDelete(pendingDelete{habit: true, id: msg.ID, name: msg.Name})
		return true, nil

	case tasklist.ToggleTaskMsg:
		k := datasync.TaskKey(msg.ID)
		if m.busy(k) {
			return true, nil
		}
		s := m.sync
		return true, m.write(k, "Task updated", func(ctx context.Context) error {
			_, err := s.ToggleTask(ctx, msg.ID)
			return err
		})

	case tasklist.DeleteTaskMsg:
		m.confirmDelete(pendingDelete{id: msg.ID, name: msg.Title})
		return true, nil
	}
	return false, nil
}

func (m *Model) confirmDelete(p pendingDelete) {
	m.toDelete = &p
	m.previousState = m.state
	m.state = constants.StateConfirmDelete
}

func (m *Model) updateAddHabit(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		return nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		h := models.NewHabit{
			Name:     strings.TrimSpace(m.habitForm.Name),
			Category: strings.TrimSpace(m.habitForm.Category),
			IsActive: true,
		}
		s := m.sync
		cmds = append(cmds, m.write(datasync.KeyNewHabit, fmt.Sprintf("Added %q", h.Name), func(ctx context.Context) error {
			_, err := s.AddHabit(ctx, h)
			return err
		}))
		m.state = m.previousState
	case huh.StateAborted:
		m.state = m.previousState
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateConfirmDelete(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.toDelete == nil {
		return nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		p := *m.toDelete
		m.toDelete = nil
		m.state = m.previousState
		s := m.sync
		if p.habit {
			return m.write(datasync.HabitKey(p.id), fmt.Sprintf("Deleted %q", p.name), func(ctx context.Context) error {
				return s.DeleteHabit(ctx, p.id)
			})
		}
		return m.write(datasync.TaskKey(p.id), fmt.Sprintf("Deleted %q", p.name), func(ctx context.Context) error {
			return s.DeleteTask(ctx, p.id)
		})
	case key.Matches(keyMsg, m.keys.Cancel):
		m.toDelete = nil
		m.state = m.previousState
	}
	return nil
}

// NewHabitForm creates the add-habit form
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Category").
				Value(&fm.Category).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("category cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
