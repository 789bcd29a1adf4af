package websocket

import (
	"context"
	"sync"

	"livemarket/internal/infrastructure/metrics"
	"livemarket/pkg/logger"
)

// Manager tracks every open connection. A user may hold several.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the registration loop until ctx is done, then closes every client.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.add(client)
				logger.WithFields(map[string]interface{}{"user_id": client.UserID, "conn_id": client.ID}).Debug("WebSocket client registered")

			case client := <-m.Unregister:
				m.remove(client)
				logger.WithFields(map[string]interface{}{"user_id": client.UserID, "conn_id": client.ID}).Debug("WebSocket client unregistered")

			case <-ctx.Done():
				close(m.done)
				m.closeAll()
				return
			}
		}
	}()
}

// Attach registers client. It reports false once the manager has stopped.
func (m *Manager) Attach(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) Detach(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		client.shutdown()
	}
}

func (m *Manager) add(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		m.clients[client.UserID] = conns
	}
	conns[client] = struct{}{}
	metrics.WebSocketConnections.Inc()
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	conns, ok := m.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(m.clients, client.UserID)
	}
	client.shutdown()
	metrics.WebSocketConnections.Dec()
}

func (m *Manager) closeAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for userID, conns := range m.clients {
		for client := range conns {
			client.shutdown()
			metrics.WebSocketConnections.Dec()
		}
		delete(m.clients, userID)
	}
}

// SendToUser pushes a frame to every connection of userID.
func (m *Manager) SendToUser(userID, frameType, key string, data interface{}) int {
	m.mutex.RLock()
	targets := make([]*Client, 0, len(m.clients[userID]))
	for client := range m.clients[userID] {
		targets = append(targets, client)
	}
	m.mutex.RUnlock()

	sent := 0
	for _, client := range targets {
		if client.Push(frameType, key, data) {
			sent++
		}
	}
	return sent
}

func (m *Manager) ConnectionCount(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID])
}
