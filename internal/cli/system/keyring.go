package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/keyring"
)

// KeyCmd manages the backend API key kept in the OS keyring
type KeyCmd struct {
	Set    KeySetCmd    `cmd:"" help:"Store an API key in the OS keyring."`
	Show   KeyShowCmd   `cmd:"" help:"Show the stored API key, masked."`
	Delete KeyDeleteCmd `cmd:"" help:"Remove the API key from the OS keyring."`
	Status KeyStatusCmd `cmd:"" help:"Check OS keyring availability."`
}

// KeySetCmd stores an API key, generating one when none is given
type KeySetCmd struct {
	Key string `arg:"" optional:"" help:"API key to store. A new key is generated when omitted."`
}

func (cmd *KeySetCmd) Run(ctx *cli.Context) error {
	key := cmd.Key
	if key == "" {
		key = NewAPIKey()
	}
	if err := keyring.SetAPIKey(key); err != nil {
		return fmt.Errorf("failed to store api key in keyring: %w", err)
	}
	ctx.Println("✓ API key stored in OS keyring")
	if cmd.Key == "" {
		ctx.Printf("  Key: %s\n", key)
	}
	ctx.Println("  Existing sessions signed with the old key are no longer valid")
	return nil
}

type KeyShowCmd struct{}

func (cmd *KeyShowCmd) Run(ctx *cli.Context) error {
	key, err := keyring.GetAPIKey()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no api key found in keyring. Use 'habitflow key set' to store one")
		}
		return fmt.Errorf("failed to retrieve api key from keyring: %w", err)
	}
	ctx.Println(maskKey(key))
	return nil
}

type KeyDeleteCmd struct{}

func (cmd *KeyDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteAPIKey(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no api key found in keyring")
		}
		return fmt.Errorf("failed to delete api key from keyring: %w", err)
	}
	ctx.Println("✓ API key deleted from OS keyring")
	return nil
}

type KeyStatusCmd struct{}

func (cmd *KeyStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")
	if _, err := keyring.GetAPIKey(); err == nil {
		ctx.Println("✓ API key is stored in keyring")
	} else if errors.Is(err, keyring.ErrNotFound) {
		ctx.Println("ℹ No API key stored in keyring")
	}
	return nil
}

// maskKey keeps the prefix and last four characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "****" + key[len(key)-4:]
}
