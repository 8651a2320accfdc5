package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/habitflow/internal/auth"
	"github.com/julianstephens/habitflow/internal/backend"
	"github.com/julianstephens/habitflow/internal/config"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/datasync"
	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/metrics"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/state"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/utils"
)

// Context is shared by every command
type Context struct {
	// Ctx is cancelled on interrupt
	Ctx     context.Context
	Config  *config.Config
	Backend storage.Backend
	// Auth is nil when the backend is not configured
	Auth *auth.Service
	Sync *datasync.Syncer
	Out  io.Writer

	loc *time.Location
	now func() time.Time
}

// NewContext wires the identity and sync layers over an opened backend
func NewContext(ctx context.Context, cfg *config.Config, b storage.Backend, sessions auth.SessionStore, opts ...auth.Option) (*Context, error) {
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	c := &Context{
		Ctx:     ctx,
		Config:  cfg,
		Backend: b,
		Out:     os.Stdout,
		loc:     loc,
		now:     time.Now,
	}
	if conf, ok := b.(storage.Configured); ok {
		tokens := auth.NewTokenManager(conf.APIKey, constants.DefaultTokenIssuer, constants.DefaultTokenTTL)
		c.Auth = auth.NewService(conf.Provider, tokens, sessions, opts...)
	}
	c.Sync = datasync.New(b, state.NewContainer(), datasync.WithLocation(loc), datasync.WithClock(c.Now))
	return c, nil
}

// Close tears down the session view and releases the backend
func (c *Context) Close() error {
	c.Sync.Close()
	return backend.Close(c.Backend)
}

// Now returns the current time in the configured timezone
func (c *Context) Now() time.Time {
	return c.now().In(c.loc)
}

// SetClock replaces the context's time source, including the syncer's
func (c *Context) SetClock(now func() time.Time) {
	c.now = now
}

// Location returns the configured timezone
func (c *Context) Location() *time.Location {
	return c.loc
}

// Calculator returns a metrics calculator on the context's clock
func (c *Context) Calculator() metrics.Calculator {
	return metrics.Calculator{Now: c.Now, Location: c.loc}
}

// Today returns the current calendar day
func (c *Context) Today() string {
	return utils.DayOf(c.Now(), c.loc)
}

// Printf writes to the command output
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// Println writes a line to the command output
func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// RequireAuth returns the identity service or a configuration error
func (c *Context) RequireAuth(op string) (*auth.Service, error) {
	if c.Auth == nil {
		missing := []string{}
		if u, ok := c.Backend.(storage.Unconfigured); ok {
			missing = u.Missing
		}
		return nil, apperrors.Newf(apperrors.KindConfiguration, op, "missing %s", strings.Join(missing, ", "))
	}
	return c.Auth, nil
}

// Load restores the saved session and fetches the user's data
func (c *Context) Load() error {
	svc, err := c.RequireAuth("load")
	if err != nil {
		return err
	}
	id, err := svc.CurrentSession(c.Ctx)
	if err != nil {
		return err
	}
	if id == nil {
		return apperrors.New(apperrors.KindNotAuthenticated, "load", "")
	}
	return c.Sync.SetIdentity(c.Ctx, id)
}

// State returns the current local snapshot
func (c *Context) State() state.State {
	return c.Sync.Store().Snapshot()
}

// ResolveHabit finds a habit by id, id prefix or case-insensitive name
func ResolveHabit(s state.State, ref string) (models.Habit, error) {
	return resolve(s.Habits, ref, "habit",
		func(h models.Habit) string { return h.ID },
		func(h models.Habit) string { return h.Name })
}

// ResolveTask finds a task by id, id prefix or case-insensitive title
func ResolveTask(s state.State, ref string) (models.Task, error) {
	return resolve(s.Tasks, ref, "task",
		func(t models.Task) string { return t.ID },
		func(t models.Task) string { return t.Title })
}

func resolve[T any](items []T, ref, entity string, id, name func(T) string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, apperrors.Newf(apperrors.KindValidation, "", "%s reference is required", entity)
	}

	var byName, byPrefix []T
	for _, item := range items {
		if id(item) == ref {
			return item, nil
		}
		if strings.EqualFold(name(item), ref) {
			byName = append(byName, item)
		}
		if strings.HasPrefix(id(item), ref) {
			byPrefix = append(byPrefix, item)
		}
	}
	for _, matches := range [][]T{byName, byPrefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return zero, apperrors.Newf(apperrors.KindValidation, "", "%q matches %d %ss, use the id", ref, len(matches), entity)
		}
	}
	return zero, apperrors.Newf(apperrors.KindNotFound, "", "%s %q not found", entity, ref)
}

// ParseDueDate reads a YYYY-MM-DD due date as midnight in loc
func ParseDueDate(s string, loc *time.Location) (*time.Time, error) {
	t, err := utils.ParseDateInLocation(s, loc)
	if err != nil {
		return nil, apperrors.Newf(apperrors.KindValidation, "", "invalid date %q (expected YYYY-MM-DD)", s)
	}
	return &t, nil
}

// ShortID trims a uuid for display
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
