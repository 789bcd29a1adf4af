package handler

import (
	ws "livemarket/internal/infrastructure/websocket"
	"livemarket/internal/usecase"
)

// Dependencies are the use cases the HTTP and WebSocket surfaces serve.
type Dependencies struct {
	Chats         *usecase.ChatUseCase
	Messages      *usecase.MessageUseCase
	Conversations *usecase.ConversationUseCase
	Typing        *usecase.TypingUseCase
	Blocks        *usecase.BlockUseCase
	Presence      *usecase.PresenceUseCase
	Uploader      ImageUploader
	Health        ConnectionTester
	WSManager     *ws.Manager
	// AllowedOrigins for WebSocket upgrades; empty or "*" allows any.
	AllowedOrigins []string
}

var (
	chatHandler      *ChatHandler
	roomHandler      *RoomHandler
	blockHandler     *BlockHandler
	presenceHandler  *PresenceHandler
	healthHandler    *HealthHandler
	webSocketHandler *WebSocketHandler
)

func Setup(deps Dependencies) {
	chatHandler = NewChatHandler(deps.Chats, deps.Messages, deps.Conversations, deps.Typing, deps.Uploader)
	roomHandler = NewRoomHandler(deps.Messages, deps.Chats)
	blockHandler = NewBlockHandler(deps.Blocks)
	presenceHandler = NewPresenceHandler(deps.Presence)
	healthHandler = NewHealthHandler(deps.Health)
	webSocketHandler = NewWebSocketHandler(deps, deps.AllowedOrigins)
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetRoomHandler() *RoomHandler {
	return roomHandler
}

func GetBlockHandler() *BlockHandler {
	return blockHandler
}

func GetPresenceHandler() *PresenceHandler {
	return presenceHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}
