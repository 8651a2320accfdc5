package system

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/habitflow/internal/backend"
	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/config"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/keyring"
	"github.com/julianstephens/habitflow/internal/logger"
)

type InitCmd struct {
	Endpoint string `help:"Backend endpoint: a SQLite path, a postgres:// URL or memory:."`
	Force    bool   `help:"Generate a new API key even if one is already configured."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	cfg := *ctx.Config
	if c.Endpoint != "" {
		cfg.Backend.Endpoint = c.Endpoint
	}
	if cfg.Backend.Endpoint == "" {
		cfg.Backend.Endpoint = constants.DefaultEndpoint
	}

	if cfg.Backend.APIKey == "" || c.Force {
		key := NewAPIKey()
		if err := keyring.SetAPIKey(key); err != nil {
			return fmt.Errorf("failed to store api key in keyring: %w (set %s instead)", err, config.EnvAPIKey)
		}
		cfg.Backend.APIKey = key
		ctx.Println("✓ Generated API key and stored it in the OS keyring")
	}

	path := cfg.Path
	if path == "" {
		path = config.DefaultPath()
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	cfg.Path = path
	ctx.Printf("✓ Wrote configuration to %s\n", path)

	b, err := backend.Open(ctx.Ctx, cfg.Backend.Endpoint, cfg.Backend.APIKey)
	if err != nil {
		return err
	}
	defer backend.Close(b)

	if err := ping(ctx, b); err != nil {
		return err
	}
	logger.Info("Initialized backend", "kind", backend.KindOf(cfg.Backend.Endpoint))
	ctx.Printf("✓ Initialized %s backend at %s\n", backend.KindOf(cfg.Backend.Endpoint), cfg.Backend.Endpoint)
	ctx.Println("  Run 'habitflow auth signup' to create an account")
	return nil
}

// NewAPIKey returns a random key in the form hf_<32 hex chars>
func NewAPIKey() string {
	return "hf_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
