package handler

import (
	"net/http"
	"net/url"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"livemarket/internal/adapter/api/middleware"
	ws "livemarket/internal/infrastructure/websocket"
	"livemarket/pkg/errors"
	"livemarket/pkg/logger"
	"livemarket/pkg/response"
)

type WebSocketHandler struct {
	deps     Dependencies
	upgrader gorillaws.Upgrader
}

func NewWebSocketHandler(deps Dependencies, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		deps: deps,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := len(allowed) == 0
	hosts := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		hosts[strings.TrimRight(origin, "/")] = true
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, err := url.Parse(origin); err != nil {
			return false
		}
		return hosts[origin]
	}
}

// HandleWebSocket upgrades an authenticated request and starts its session:
// presence goes online and the client may open live subscriptions.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed for %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(userID, conn)
	if !h.deps.WSManager.Attach(client) {
		conn.Close()
		return nil
	}

	session := newWSSession(h.deps, client)
	session.start()

	go client.WritePump()
	go client.ReadPump(h.deps.WSManager, session)

	return nil
}
