package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"livemarket/internal/adapter/repository/memory"
	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type denyAll struct{}

func (denyAll) Allow(string, string) (bool, time.Duration) { return false, time.Minute }

type testEnv struct {
	store        *memory.Store
	clock        *fakeClock
	chatRepo     repository.ChatRepository
	messageRepo  repository.MessageRepository
	presenceRepo repository.PresenceRepository
	blockRepo    repository.BlockRepository

	blocks        *BlockUseCase
	presence      *PresenceUseCase
	messages      *MessageUseCase
	chats         *ChatUseCase
	conversations *ConversationUseCase
	typing        *TypingUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	clock := newFakeClock()

	env := &testEnv{
		store:        store,
		clock:        clock,
		chatRepo:     memory.NewChatRepository(store),
		messageRepo:  memory.NewMessageRepository(store),
		presenceRepo: memory.NewPresenceRepository(store),
		blockRepo:    memory.NewBlockRepository(store),
	}
	userRepo := memory.NewUserRepository(store)

	env.blocks = NewBlockUseCase(env.blockRepo)
	env.presence = NewPresenceUseCase(env.presenceRepo, time.Hour, 0)
	env.presence.clock = clock.Now
	env.messages = NewMessageUseCase(env.chatRepo, env.messageRepo, env.blocks, nil, "")
	env.messages.clock = clock.Now
	env.chats = NewChatUseCase(env.chatRepo, userRepo, nil)
	env.chats.clock = clock.Now
	env.conversations = NewConversationUseCase(env.chatRepo, env.messageRepo, env.blocks, env.presence, "")
	env.conversations.clock = clock.Now
	env.typing = NewTypingUseCase(env.chatRepo, nil, DefaultTypingTTL)
	env.typing.clock = clock.Now

	store.PutUser(&entity.User{ID: "alice", Username: "Alice", AvatarURL: "https://cdn.example/alice.png"})
	store.PutUser(&entity.User{ID: "bob", Username: "Bob", AvatarURL: "https://cdn.example/bob.png"})
	store.PutUser(&entity.User{ID: "carol", Username: "Carol"})
	return env
}

func (e *testEnv) chat(t *testing.T, a, b string) string {
	t.Helper()
	id, err := e.chats.GetOrCreateChat(testContext(t), a, b, nil, nil)
	if err != nil {
		t.Fatalf("GetOrCreateChat(%s, %s): %v", a, b, err)
	}
	return id
}

// recorder collects values delivered to a subscription callback.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
	errs   []error
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *recorder[T]) fail(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recorder[T]) last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.values) == 0 {
		return zero, false
	}
	return r.values[len(r.values)-1], true
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func (r *recorder[T]) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
