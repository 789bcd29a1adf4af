package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livemarket/internal/adapter/repository/memory"
	"livemarket/internal/domain/entity"
)

func TestGoOnlineAndOffline(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	require.NoError(t, env.presence.GoOnline(ctx, "alice"))
	p, err := env.presenceRepo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, p.Online)
	assert.Equal(t, env.clock.Now().UnixMilli(), p.LastUpdate)

	env.clock.Advance(time.Minute)
	require.NoError(t, env.presence.GoOffline(ctx, "alice"))
	require.NoError(t, env.presence.GoOffline(ctx, "alice"))

	p, err = env.presenceRepo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, p.Online)
	assert.Equal(t, env.clock.Now(), p.LastSeen)
	assert.Equal(t, env.clock.Now().Add(-time.Minute).UnixMilli(), p.LastUpdate, "offline keeps lastUpdate")
}

func TestGetPresenceOfUnknownUserIsOffline(t *testing.T) {
	env := newTestEnv(t)

	view, err := env.presence.GetPresence(testContext(t), "nobody")
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceView{}, view)
}

func TestSubscribeToPresence(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	rec := &recorder[entity.PresenceView]{}
	unsubscribe := env.presence.SubscribeToPresence(ctx, "bob", rec.add, rec.fail)
	defer unsubscribe()

	assert.Eventually(t, func() bool { return rec.count() >= 1 }, waitFor, tick)

	require.NoError(t, env.presence.GoOnline(ctx, "bob"))
	assert.Eventually(t, func() bool {
		v, ok := rec.last()
		return ok && v.Online && v.LastSeen == "Just now" && !v.Typing
	}, waitFor, tick)

	unsubscribe()
	unsubscribe()
}

func TestPresenceSessionHeartbeat(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewPresenceRepository(store)
	uc := NewPresenceUseCase(repo, 10*time.Millisecond, 0)
	ctx := testContext(t)

	session := uc.NewSession("alice")
	require.NoError(t, session.Start(ctx))
	defer session.Stop(ctx)

	first, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, first.Online)

	assert.Eventually(t, func() bool {
		p, _ := repo.Get(ctx, "alice")
		return p.LastUpdate > first.LastUpdate
	}, waitFor, tick)
	assert.True(t, session.HeartbeatRunning())
}

func TestPresenceSessionVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	session := env.presence.NewSession("alice")
	require.NoError(t, session.Start(ctx))
	require.NoError(t, session.Start(ctx))

	require.NoError(t, session.SetVisible(ctx, false))
	p, _ := env.presenceRepo.Get(ctx, "alice")
	assert.False(t, p.Online)
	assert.False(t, session.HeartbeatRunning())

	require.NoError(t, session.SetVisible(ctx, true))
	p, _ = env.presenceRepo.Get(ctx, "alice")
	assert.True(t, p.Online)
	assert.True(t, session.HeartbeatRunning())

	require.NoError(t, session.Stop(ctx))
	p, _ = env.presenceRepo.Get(ctx, "alice")
	assert.False(t, p.Online)
	assert.False(t, session.HeartbeatRunning())

	// a stopped session ignores visibility
	require.NoError(t, session.SetVisible(ctx, true))
	p, _ = env.presenceRepo.Get(ctx, "alice")
	assert.False(t, p.Online)
}

func TestPresenceSessionHeartbeatFailureStops(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewPresenceRepository(store)
	uc := NewPresenceUseCase(repo, 10*time.Millisecond, 0)
	ctx := testContext(t)

	session := uc.NewSession("alice")
	require.NoError(t, session.Start(ctx))
	require.True(t, session.HeartbeatRunning())

	store.SetFailure(errors.New("network blip"))
	assert.Eventually(t, func() bool { return !session.HeartbeatRunning() }, waitFor, tick)

	store.SetFailure(nil)
	require.NoError(t, session.SetVisible(ctx, true))
	assert.True(t, session.HeartbeatRunning(), "becoming visible restarts the heartbeat")
	require.NoError(t, session.Stop(ctx))
}

func TestPresenceSessionHiddenGrace(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewPresenceRepository(store)
	uc := NewPresenceUseCase(repo, time.Hour, 50*time.Millisecond)
	ctx := testContext(t)

	session := uc.NewSession("alice")
	require.NoError(t, session.Start(ctx))
	defer session.Stop(ctx)

	// back within the grace period: never flips offline
	require.NoError(t, session.SetVisible(ctx, false))
	require.NoError(t, session.SetVisible(ctx, true))
	time.Sleep(100 * time.Millisecond)
	p, _ := repo.Get(ctx, "alice")
	assert.True(t, p.Online)

	require.NoError(t, session.SetVisible(ctx, false))
	p, _ = repo.Get(ctx, "alice")
	assert.True(t, p.Online, "offline is deferred by the grace period")

	assert.Eventually(t, func() bool {
		p, _ := repo.Get(ctx, "alice")
		return !p.Online
	}, waitFor, tick)
}
