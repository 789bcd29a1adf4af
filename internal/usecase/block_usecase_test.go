package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "livemarket/pkg/errors"
)

func TestBlockUserIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	assert.True(t, env.blocks.BlockUser(ctx, "alice", "bob"))
	assert.True(t, env.blocks.BlockUser(ctx, "alice", "bob"))

	blocked, err := env.blocks.ListBlocked(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, blocked)

	assert.True(t, env.blocks.UnblockUser(ctx, "alice", "bob"))
	assert.True(t, env.blocks.UnblockUser(ctx, "alice", "bob"))

	blocked, err = env.blocks.ListBlocked(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestBlockStatusIsAsymmetric(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	require.True(t, env.blocks.BlockUser(ctx, "alice", "bob"))

	fromAlice, err := env.blocks.CheckBlockStatus(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, fromAlice.HasBlockedOther)
	assert.False(t, fromAlice.IsBlockedByOther)

	fromBob, err := env.blocks.CheckBlockStatus(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, fromBob.HasBlockedOther)
	assert.True(t, fromBob.IsBlockedByOther)
}

func TestBlockStatusWithoutRecords(t *testing.T) {
	env := newTestEnv(t)

	status, err := env.blocks.CheckBlockStatus(testContext(t), "carol", "dave")
	require.NoError(t, err)
	assert.False(t, status.Blocked())
}

func TestBlockUserRejectsSelfAndEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	assert.False(t, env.blocks.BlockUser(ctx, "alice", "alice"))
	assert.False(t, env.blocks.BlockUser(ctx, "", "bob"))
	assert.False(t, env.blocks.UnblockUser(ctx, "alice", ""))
}

func TestBlockFailuresReportFalse(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)
	env.store.SetFailure(errors.New("unavailable"))

	assert.False(t, env.blocks.BlockUser(ctx, "alice", "bob"))
	assert.False(t, env.blocks.UnblockUser(ctx, "alice", "bob"))

	_, err := env.blocks.CheckBlockStatus(ctx, "alice", "bob")
	assert.True(t, apperrors.Is(err, apperrors.CodeInternal))
}
