// Package auth is the identity collaborator: password sign-up and sign-in
// against the backend's user records, a persisted session token, and a
// stream of session change events.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
)

// MinPasswordLength is the shortest password SignUp accepts
const MinPasswordLength = 8

// EventKind names a session transition
type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// Event reports a session transition. Identity is nil for SignedOut.
type Event struct {
	Kind     EventKind
	Identity *models.Identity
}

// Users is the part of the persistence collaborator auth needs
type Users interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Service manages the signed-in session
type Service struct {
	users    Users
	tokens   *TokenManager
	sessions SessionStore
	hashCost int

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// Option configures a Service
type Option func(*Service)

// WithHashCost sets the bcrypt cost; tests use bcrypt.MinCost
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

func NewService(users Users, tokens *TokenManager, sessions SessionStore, opts ...Option) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		hashCost: bcrypt.DefaultCost,
		subs:     make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and signs it in
func (s *Service) SignUp(ctx context.Context, email, password string) (models.Identity, error) {
	const op = "sign up"
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return models.Identity{}, apperrors.New(apperrors.KindValidation, op, "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return models.Identity{}, apperrors.Newf(apperrors.KindValidation, op, "password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.Identity{}, apperrors.Wrap(apperrors.KindUnknown, op, err)
	}

	u, err := s.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Identity{}, apperrors.New(apperrors.KindValidation, op, "an account with that email already exists")
		}
		logger.Error("Failed to create user", "email", email, "error", err)
		return models.Identity{}, apperrors.Wrap(apperrors.KindRemote, op, err)
	}

	logger.Info("Account created", "user", u.ID)
	return s.startSession(op, models.Identity{UserID: u.ID, Email: u.Email})
}

// SignIn checks the password and starts a session
func (s *Service) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	const op = "sign in"
	invalid := apperrors.New(apperrors.KindNotAuthenticated, op, "invalid email or password")

	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Identity{}, invalid
		}
		logger.Error("Failed to look up user", "error", err)
		return models.Identity{}, apperrors.Wrap(apperrors.KindRemote, op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.Identity{}, invalid
	}
	return s.startSession(op, models.Identity{UserID: u.ID, Email: u.Email})
}

func (s *Service) startSession(op string, id models.Identity) (models.Identity, error) {
	token, err := s.tokens.Issue(id)
	if err != nil {
		return models.Identity{}, apperrors.Wrap(apperrors.KindUnknown, op, err)
	}
	if err := s.sessions.Save(token); err != nil {
		return models.Identity{}, apperrors.Wrap(apperrors.KindUnknown, op, err)
	}
	s.publish(Event{Kind: SignedIn, Identity: &id})
	return id, nil
}

// CurrentSession returns the signed-in identity, or nil when there is none.
// An expired or foreign token is discarded.
func (s *Service) CurrentSession(ctx context.Context) (*models.Identity, error) {
	token, err := s.sessions.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindUnknown, "load session", err)
	}

	id, err := s.tokens.Verify(token)
	if err != nil {
		logger.Info("Discarding invalid session", "error", err)
		_ = s.sessions.Clear()
		return nil, nil
	}

	// the account may have been removed since the token was issued
	if _, err := s.users.GetUser(ctx, id.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = s.sessions.Clear()
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindRemote, "load session", err)
	}
	return &id, nil
}

// SignOut clears the session and notifies subscribers
func (s *Service) SignOut(ctx context.Context) error {
	_ = ctx
	if err := s.sessions.Clear(); err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "sign out", err)
	}
	s.publish(Event{Kind: SignedOut})
	return nil
}

// Subscribe returns a channel of session events and a function that ends the
// subscription and closes the channel.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Event, buffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// publish delivers ev to every subscriber. A full buffer loses its oldest
// event so that a slow subscriber still ends on the latest transition.
func (s *Service) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case stale := <-ch:
			logger.Debug("Coalescing session event for slow subscriber", "dropped", stale.Kind, "latest", ev.Kind)
		default:
		}
		select {
		case ch <- ev:
		default:
			logger.Warn("Dropping session event for slow subscriber", "event", ev.Kind)
		}
	}
}
