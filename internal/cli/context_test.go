package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitflow/internal/cli/clitest"
	"github.com/julianstephens/habitflow/internal/cli/habits"
	"github.com/julianstephens/habitflow/internal/state"
)

func TestCloseResetsSessionView(t *testing.T) {
	ctx, _ := clitest.SignedIn(t)
	require.NoError(t, (&habits.HabitAddCmd{Name: "Run", Category: "health", Frequency: "daily", Target: 1, Color: "emerald"}).Run(ctx))
	require.Len(t, ctx.State().Habits, 1)

	require.NoError(t, ctx.Close())
	assert.Nil(t, ctx.Sync.Identity())
	assert.Equal(t, state.Initial(), ctx.State())
}
