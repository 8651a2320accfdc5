// Package clitest builds command contexts over an in-memory backend for tests.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/habitflow/internal/auth"
	"github.com/julianstephens/habitflow/internal/backend"
	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/config"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/storage"
)

const (
	APIKey   = "hf_0123456789abcdef0123"
	Email    = "tester@example.com"
	Password = "correct-horse"
)

// Now is the fixed clock every test context starts with
var Now = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

// Config returns a valid configuration rooted in a temp dir
func Config(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Backend:              config.Backend{Endpoint: constants.MemoryEndpoint, APIKey: APIKey},
		Timezone:             "UTC",
		CompletionWindowDays: constants.DefaultCompletionWindowDays,
		Path:                 filepath.Join(t.TempDir(), constants.DefaultConfigFile),
	}
	cfg.Log.Level = "warn"
	return cfg
}

// New returns a context over a fresh memory backend with output captured.
// The user is not signed in.
func New(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	return NewWithConfig(t, Config(t))
}

// NewWithConfig is New with a caller-supplied configuration
func NewWithConfig(t *testing.T, cfg *config.Config) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	b, err := backend.Open(context.Background(), cfg.Backend.Endpoint, cfg.Backend.APIKey)
	if err != nil {
		t.Fatalf("failed to open backend: %v", err)
	}

	ctx, err := cli.NewContext(context.Background(), cfg, b, &auth.MemorySessionStore{}, auth.WithHashCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	t.Cleanup(func() { _ = ctx.Close() })

	out := &bytes.Buffer{}
	ctx.Out = out
	ctx.SetClock(func() time.Time { return Now })
	return ctx, out
}

// SignedIn returns a context with a signed-up user whose data is loaded
func SignedIn(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	ctx, out := New(t)
	if _, err := ctx.Auth.SignUp(ctx.Ctx, Email, Password); err != nil {
		t.Fatalf("failed to sign up: %v", err)
	}
	if err := ctx.Load(); err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return ctx, out
}

// Unconfigured returns a context whose backend is missing both settings
func Unconfigured(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	cfg := Config(t)
	cfg.Backend = config.Backend{}

	ctx, err := cli.NewContext(context.Background(), cfg,
		storage.Unconfigured{Missing: storage.MissingSettings("", "")}, &auth.MemorySessionStore{})
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	out := &bytes.Buffer{}
	ctx.Out = out
	return ctx, out
}
