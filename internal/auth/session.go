package auth

import (
	"errors"
	"sync"

	"github.com/julianstephens/habitflow/internal/keyring"
)

// ErrNoSession is returned by a SessionStore holding no token
var ErrNoSession = errors.New("no session")

// SessionStore persists the current session token between runs
type SessionStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// KeyringSessionStore keeps the token in the OS keyring
type KeyringSessionStore struct{}

func (KeyringSessionStore) Load() (string, error) {
	token, err := keyring.GetSessionToken()
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSession
	}
	return token, err
}

func (KeyringSessionStore) Save(token string) error {
	return keyring.SetSessionToken(token)
}

func (KeyringSessionStore) Clear() error {
	if err := keyring.DeleteSessionToken(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// MemorySessionStore keeps the token for the life of the process
type MemorySessionStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemorySessionStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoSession
	}
	return m.token, nil
}

func (m *MemorySessionStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
