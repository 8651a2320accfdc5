// Package backend resolves configuration into a storage.Backend, choosing the
// provider implementation from the endpoint.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/storage/memory"
	"github.com/julianstephens/habitflow/internal/storage/postgres"
	"github.com/julianstephens/habitflow/internal/storage/sqlite"
)

// Kind names a provider implementation
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindMemory   Kind = "memory"
)

// KindOf picks the provider for an endpoint
func KindOf(endpoint string) Kind {
	switch {
	case strings.HasPrefix(endpoint, "postgres://"), strings.HasPrefix(endpoint, "postgresql://"):
		return KindPostgres
	case endpoint == constants.MemoryEndpoint:
		return KindMemory
	default:
		return KindSQLite
	}
}

// ExpandPath resolves a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Open returns Unconfigured when endpoint or apiKey is missing, without
// touching any database. Otherwise it builds and initialises the provider.
func Open(ctx context.Context, endpoint, apiKey string) (storage.Backend, error) {
	if missing := storage.MissingSettings(endpoint, apiKey); len(missing) > 0 {
		logger.Warn("Backend not configured", "missing", missing)
		return storage.Unconfigured{Missing: missing}, nil
	}

	var p storage.Provider
	switch KindOf(endpoint) {
	case KindPostgres:
		if err := postgres.ValidateConnString(endpoint); err != nil {
			return nil, err
		}
		// the API key doubles as the database password
		p = postgres.New(endpoint, apiKey)
	case KindMemory:
		p = memory.NewStore()
	default:
		p = sqlite.NewStore(ExpandPath(endpoint))
	}

	if err := p.Init(ctx); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to initialize %s backend: %w", KindOf(endpoint), err)
	}
	logger.Debug("Backend opened", "kind", KindOf(endpoint))
	return storage.Configured{Provider: p, Endpoint: endpoint, APIKey: apiKey}, nil
}

// Close releases a configured backend's provider
func Close(b storage.Backend) error {
	if c, ok := b.(storage.Configured); ok && c.Provider != nil {
		return c.Provider.Close()
	}
	return nil
}
