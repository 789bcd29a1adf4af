// Package memory is an in-process implementation of the domain repositories.
// It backs the STORE_DRIVER=memory mode and the use-case tests. Live watches
// are driven by a change notification fan-out instead of a server stream.
package memory

import (
	"context"
	"reflect"
	"sync"

	"livemarket/internal/domain/entity"
)

type Store struct {
	mu sync.RWMutex

	chats        map[string]*entity.Chat
	messages     map[string][]*entity.Message
	roomMessages map[string][]entity.RawRoomMessage
	presence     map[string]*entity.Presence
	blocks       map[string][]string
	users        map[string]*entity.User

	failure error

	watchMu  sync.Mutex
	watchers map[int]chan struct{}
	nextID   int
}

func NewStore() *Store {
	return &Store{
		chats:        make(map[string]*entity.Chat),
		messages:     make(map[string][]*entity.Message),
		roomMessages: make(map[string][]entity.RawRoomMessage),
		presence:     make(map[string]*entity.Presence),
		blocks:       make(map[string][]string),
		users:        make(map[string]*entity.User),
		watchers:     make(map[int]chan struct{}),
	}
}

// SetFailure makes every subsequent read and write return err until it is
// cleared with SetFailure(nil). Used to simulate an unavailable store.
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	s.failure = err
	s.mu.Unlock()
}

func (s *Store) failed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failure
}

// PutUser seeds a display profile.
func (s *Store) PutUser(user *entity.User) {
	s.mu.Lock()
	copied := *user
	s.users[user.ID] = &copied
	s.mu.Unlock()
}

// PutRoomMessage stores a room document verbatim, including legacy field names.
func (s *Store) PutRoomMessage(showID string, raw entity.RawRoomMessage) {
	s.mu.Lock()
	s.roomMessages[showID] = append(s.roomMessages[showID], raw)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) subscribe() (int, chan struct{}) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.watchers[id] = ch
	return id, ch
}

func (s *Store) unsubscribe(id int) {
	s.watchMu.Lock()
	delete(s.watchers, id)
	s.watchMu.Unlock()
}

// watch delivers snapshot() immediately and again whenever the store changes
// and the snapshot differs from the last one delivered.
func watch[T any](ctx context.Context, s *Store, snapshot func() (T, error), fn func(T)) error {
	id, changes := s.subscribe()
	defer s.unsubscribe(id)

	current, err := snapshot()
	if err != nil {
		return err
	}
	fn(current)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			next, err := snapshot()
			if err != nil {
				return err
			}
			if reflect.DeepEqual(next, current) {
				continue
			}
			current = next
			fn(current)
		}
	}
}
