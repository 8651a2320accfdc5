// Package datasync is the only path between the state container and the
// persistence collaborator. It refreshes the collections when the session
// changes, performs writes for the signed-in user and patches the single
// affected record locally once a write is confirmed.
package datasync

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/habitflow/internal/auth"
	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/state"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/transfer"
)

// Syncer owns the session-scoped view of one user's data.
//
// mu guards identity, gen and inflight. Local patches are dispatched while mu
// is held so that a generation or identity check and the dispatch it guards
// happen as one step.
type Syncer struct {
	backend storage.Backend
	store   *state.Container
	now     func() time.Time
	loc     *time.Location

	mu       sync.Mutex
	identity *models.Identity
	gen      uint64
	inflight map[string]struct{}
}

// Option configures a Syncer
type Option func(*Syncer)

// WithClock overrides time.Now, used for toggle timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// WithLocation sets the timezone that decides which day "today" is
func WithLocation(loc *time.Location) Option {
	return func(s *Syncer) {
		s.loc = loc
	}
}

func New(backend storage.Backend, store *state.Container, opts ...Option) *Syncer {
	s := &Syncer{
		backend:  backend,
		store:    store,
		now:      time.Now,
		loc:      time.Local,
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identity returns the current identity, or nil when signed out
func (s *Syncer) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Store returns the container the syncer writes to
func (s *Syncer) Store() *state.Container {
	return s.store
}

// provider returns the configured provider or a configuration error
func (s *Syncer) provider(op string) (storage.Provider, error) {
	switch b := s.backend.(type) {
	case storage.Configured:
		if b.Provider != nil {
			return b.Provider, nil
		}
	case storage.Unconfigured:
		return nil, apperrors.Newf(apperrors.KindConfiguration, op, "missing %s", strings.Join(b.Missing, ", "))
	}
	return nil, apperrors.New(apperrors.KindConfiguration, op, "")
}

// session returns the provider and identity a write needs, failing fast
// before any remote call.
func (s *Syncer) session(op string) (storage.Provider, models.Identity, error) {
	p, err := s.provider(op)
	if err != nil {
		return nil, models.Identity{}, err
	}
	id := s.Identity()
	if id == nil {
		return nil, models.Identity{}, apperrors.New(apperrors.KindNotAuthenticated, op, "")
	}
	return p, *id, nil
}

// SetIdentity applies a session transition. A nil identity clears all
// collections immediately. A different user clears the previous user's data
// and refetches; the same user only refetches.
func (s *Syncer) SetIdentity(ctx context.Context, id *models.Identity) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	prev := s.identity
	if id != nil {
		cp := *id
		s.identity = &cp
	} else {
		s.identity = nil
	}
	if id == nil || (prev != nil && prev.UserID != id.UserID) {
		s.store.Dispatch(state.Clear{})
	}
	s.mu.Unlock()

	if id == nil {
		logger.Info("Session ended, local data cleared")
		return nil
	}
	logger.Info("Session started", "user", id.UserID)
	return s.refresh(ctx, gen, *id)
}

// Refresh refetches every collection for the current identity
func (s *Syncer) Refresh(ctx context.Context) error {
	const op = "refresh"

	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return apperrors.New(apperrors.KindNotAuthenticated, op, "")
	}
	s.gen++
	gen, id := s.gen, *s.identity
	s.mu.Unlock()

	return s.refresh(ctx, gen, id)
}

// current runs fn under mu if gen is still the latest refresh
func (s *Syncer) current(gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	fn()
	return true
}

func (s *Syncer) refresh(ctx context.Context, gen uint64, id models.Identity) error {
	const op = "refresh"

	p, err := s.provider(op)
	if err != nil {
		s.current(gen, func() { s.store.Dispatch(state.LoadFailed{Err: err}) })
		return err
	}

	if !s.current(gen, func() { s.store.Dispatch(state.BeginLoading{}) }) {
		return nil
	}

	var (
		habits  []models.Habit
		tasks   []models.Task
		entries []models.HabitEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		habits, err = p.ListHabits(gctx, id.UserID)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = p.ListTasks(gctx, id.UserID)
		return err
	})
	g.Go(func() (err error) {
		entries, err = p.ListHabitEntries(gctx, id.UserID)
		return err
	})
	fetchErr := g.Wait()

	if fetchErr != nil {
		classified := classify(op, fetchErr)
		applied := s.current(gen, func() { s.store.Dispatch(state.LoadFailed{Err: classified}) })
		if !applied {
			logger.Debug("Discarding failed stale refresh", "user", id.UserID, "error", fetchErr)
			return nil
		}
		return classified
	}

	applied := s.current(gen, func() {
		s.store.Dispatch(state.ReplaceAll{Habits: habits, Tasks: tasks, Entries: entries})
	})
	if !applied {
		logger.Debug("Discarding stale refresh", "user", id.UserID)
		return nil
	}
	logger.Debug("Refresh complete", "habits", len(habits), "tasks", len(tasks), "entries", len(entries))
	return nil
}

// Watch applies session events until ctx is done or events is closed.
// Refresh failures are already reflected in the container and logged.
func (s *Syncer) Watch(ctx context.Context, events <-chan auth.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var id *models.Identity
			if ev.Kind == auth.SignedIn {
				id = ev.Identity
			}
			if err := s.SetIdentity(ctx, id); err != nil {
				logger.Warn("Session refresh failed", "error", err)
			}
		}
	}
}

// patch dispatches a local patch if the write's user is still signed in.
// A write that completes after a switch to another user is not shown.
func (s *Syncer) patch(userID string, actions ...state.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil || s.identity.UserID != userID {
		logger.Debug("Dropping local patch for previous session", "user", userID)
		return
	}
	s.store.Dispatch(actions...)
}

// ClearLocal empties the local collections without touching the backend
func (s *Syncer) ClearLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Dispatch(state.Clear{})
}

// Close tears down the session view without touching the backend. The
// identity is dropped, in-flight refreshes become stale and the container
// returns to its initial state.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.identity = nil
	s.store.Reset()
}

// Import replaces the local collections with doc. The backend is not
// written; the next refresh restores the backend's view.
func (s *Syncer) Import(doc transfer.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transfer.Import(s.store, doc)
}

// Export captures the current local collections
func (s *Syncer) Export() transfer.Document {
	return transfer.Export(s.store.Snapshot(), s.now())
}

// Ping checks that the configured backend is reachable
func (s *Syncer) Ping(ctx context.Context) error {
	const op = "ping"
	p, err := s.provider(op)
	if err != nil {
		return err
	}
	if err := p.Ping(ctx); err != nil {
		logger.Error("Backend ping failed", "error", err)
		return apperrors.Wrap(apperrors.KindRemote, op, err)
	}
	return nil
}
