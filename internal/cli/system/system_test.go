package system

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitflow/internal/cli/clitest"
	"github.com/julianstephens/habitflow/internal/config"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/keyring"
)

func TestNewAPIKeyFormat(t *testing.T) {
	key := NewAPIKey()
	assert.Regexp(t, regexp.MustCompile(`^hf_[0-9a-f]{32}$`), key)
	assert.NotEqual(t, key, NewAPIKey())
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "hf_****cdef", maskKey("hf_0123456789abcdef"))
	assert.Equal(t, "****", maskKey("short"))
}

func TestInitWritesConfigAndKey(t *testing.T) {
	gokeyring.MockInit()
	ctx, out := clitest.Unconfigured(t)

	require.NoError(t, (&InitCmd{Endpoint: constants.MemoryEndpoint}).Run(ctx))
	assert.Contains(t, out.String(), "Generated API key")
	assert.Contains(t, out.String(), "Initialized memory backend")

	key, err := keyring.GetAPIKey()
	require.NoError(t, err)
	assert.Regexp(t, `^hf_`, key)

	cfg, err := config.Load(ctx.Config.Path)
	require.NoError(t, err)
	assert.Equal(t, constants.MemoryEndpoint, cfg.Backend.Endpoint)
}

func TestInitWritesToConfigNamedInEnv(t *testing.T) {
	gokeyring.MockInit()
	path := filepath.Join(t.TempDir(), "custom", "habitflow.yaml")
	t.Setenv(config.EnvConfigPath, path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	ctx, out := clitest.NewWithConfig(t, cfg)

	require.NoError(t, (&InitCmd{Endpoint: constants.MemoryEndpoint}).Run(ctx))
	assert.Contains(t, out.String(), "Wrote configuration to "+path)
	assert.FileExists(t, path)
}

func TestInitKeepsExistingKey(t *testing.T) {
	gokeyring.MockInit()
	ctx, out := clitest.New(t)

	require.NoError(t, (&InitCmd{}).Run(ctx))
	assert.NotContains(t, out.String(), "Generated API key")

	_, err := keyring.GetAPIKey()
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestDoctorHealthy(t *testing.T) {
	gokeyring.MockInit()
	ctx, out := clitest.SignedIn(t)

	require.NoError(t, (&DoctorCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Backend reachable: OK")
	assert.Contains(t, out.String(), "⊘ Database schema: SKIPPED (backend has no schema)")
	assert.Contains(t, out.String(), "signed in as "+clitest.Email)
	assert.Contains(t, out.String(), "All diagnostics passed!")
}

func TestDoctorChecksSQLiteSchema(t *testing.T) {
	gokeyring.MockInit()
	cfg := clitest.Config(t)
	cfg.Backend.Endpoint = filepath.Join(t.TempDir(), "habitflow.db")
	ctx, out := clitest.NewWithConfig(t, cfg)

	require.NoError(t, (&DoctorCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Database schema: OK")
}

func TestDoctorWarnsWithoutSession(t *testing.T) {
	gokeyring.MockInit()
	ctx, out := clitest.New(t)

	require.NoError(t, (&DoctorCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "⚠ Session: WARNING")
	assert.Contains(t, out.String(), "⊘ Data validation: SKIPPED (not signed in)")
}

func TestDoctorUnconfigured(t *testing.T) {
	gokeyring.MockInit()
	ctx, out := clitest.Unconfigured(t)

	assert.Error(t, (&DoctorCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "❌ Backend configured: FAIL")
	assert.Contains(t, out.String(), "⊘ Backend reachable: SKIPPED (backend not configured)")
}

func TestKeyCommands(t *testing.T) {
	gokeyring.MockInit()
	ctx, out := clitest.New(t)

	assert.Error(t, (&KeyShowCmd{}).Run(ctx))

	require.NoError(t, (&KeySetCmd{Key: "hf_0123456789abcdef"}).Run(ctx))
	require.NoError(t, (&KeyShowCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "hf_****cdef")
	assert.NotContains(t, out.String(), "0123456789")

	require.NoError(t, (&KeyStatusCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "API key is stored in keyring")

	require.NoError(t, (&KeyDeleteCmd{}).Run(ctx))
	assert.Error(t, (&KeyDeleteCmd{}).Run(ctx))
}

func TestKeySetRejectsShortKey(t *testing.T) {
	gokeyring.MockInit()
	ctx, _ := clitest.New(t)

	assert.Error(t, (&KeySetCmd{Key: "short"}).Run(ctx))
}
