package usecase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livemarket/internal/domain/entity"
	apperrors "livemarket/pkg/errors"
)

func TestGetOrCreateChatIsOrderIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	first, err := env.chats.GetOrCreateChat(ctx, "bob", "alice", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice_bob", first)

	again, err := env.chats.GetOrCreateChat(ctx, "alice", "bob", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	chats, err := env.chatRepo.ListByUserID(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestGetOrCreateChatInitialisesParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	id, err := env.chats.GetOrCreateChat(ctx, "alice", "dave", nil, &entity.ParticipantProfile{Name: "Dave", ProfileURL: "d.png"})
	require.NoError(t, err)

	chat, err := env.chatRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice_dave", chat.PairKey)
	assert.ElementsMatch(t, []string{"alice", "dave"}, chat.UserIDs)
	assert.Equal(t, entity.ParticipantProfile{ID: "alice", Name: "Alice", ProfileURL: "https://cdn.example/alice.png"}, chat.Users["alice"])
	assert.Equal(t, entity.ParticipantProfile{ID: "dave", Name: "Dave", ProfileURL: "d.png"}, chat.Users["dave"])
	assert.Equal(t, map[string]int64{"alice": 0, "dave": 0}, chat.LastRead)
}

func TestGetOrCreateChatRejectsSelfChat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.chats.GetOrCreateChat(testContext(t), "alice", "alice", nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))

	_, err = env.chats.GetOrCreateChat(testContext(t), "alice", "", nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))
}

func TestGetOrCreateChatFindsLegacyChat(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	require.NoError(t, env.chatRepo.Create(ctx, &entity.Chat{
		ID:      "Xy12legacy",
		UserIDs: []string{"bob", "alice"},
	}))

	id, err := env.chats.GetOrCreateChat(ctx, "alice", "bob", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Xy12legacy", id)
}

func TestGetOrCreateChatKeepsUnderscoreIDsApart(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	first, err := env.chats.GetOrCreateChat(ctx, "a_b", "c", nil, nil)
	require.NoError(t, err)
	second, err := env.chats.GetOrCreateChat(ctx, "a", "b_c", nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	chat, err := env.chatRepo.GetByID(ctx, second)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b_c"}, chat.UserIDs)

	_, err = env.messages.SendMessage(ctx, SendMessageInput{ChatID: second, SenderID: "a", Text: "hi"})
	assert.NoError(t, err)
}

func TestGetOrCreateChatRejectsForeignChatAtKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	require.NoError(t, env.chatRepo.Create(ctx, &entity.Chat{
		ID:      "alice_bob",
		PairKey: "alice_bob",
		UserIDs: []string{"alice", "mallory"},
	}))

	_, err := env.chats.GetOrCreateChat(ctx, "alice", "bob", nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
}

func TestGetOrCreateChatConcurrentCallsConverge(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				ids[i], errs[i] = env.chats.GetOrCreateChat(ctx, "alice", "bob", nil, nil)
			} else {
				ids[i], errs[i] = env.chats.GetOrCreateChat(ctx, "bob", "alice", nil, nil)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "alice_bob", ids[i])
	}
	chats, err := env.chatRepo.ListByUserID(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestGetOrCreateChatRateLimitsCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)
	existing := env.chat(t, "alice", "bob")

	env.chats.rateLimiter = denyAll{}

	id, err := env.chats.GetOrCreateChat(ctx, "alice", "bob", nil, nil)
	require.NoError(t, err, "lookups are never limited")
	assert.Equal(t, existing, id)

	_, err = env.chats.GetOrCreateChat(ctx, "alice", "carol", nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeTooManyRequests))
}

func TestGetChatChecksParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)
	id := env.chat(t, "alice", "bob")

	chat, err := env.chats.GetChat(ctx, "bob", id)
	require.NoError(t, err)
	assert.Equal(t, id, chat.ID)

	_, err = env.chats.GetChat(ctx, "carol", id)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	_, err = env.chats.GetChat(ctx, "alice", "missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestSetChatDisabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)
	id := env.chat(t, "alice", "bob")

	require.NoError(t, env.chats.SetChatDisabled(ctx, "alice", id, true))
	chat, err := env.chatRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, chat.ChatDisabled)

	err = env.chats.SetChatDisabled(ctx, "carol", id, false)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
}
