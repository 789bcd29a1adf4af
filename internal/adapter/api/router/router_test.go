package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"livemarket/internal/adapter/api"
	"livemarket/internal/adapter/api/handler"
	"livemarket/internal/adapter/api/middleware"
	"livemarket/internal/adapter/api/router"
	"livemarket/internal/adapter/repository/memory"
	"livemarket/internal/domain/entity"
	"livemarket/internal/infrastructure/firebase"
	"livemarket/internal/infrastructure/ratelimit"
	"livemarket/internal/infrastructure/websocket"
	"livemarket/internal/usecase"
	"livemarket/pkg/response"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

type listData struct {
	Items json.RawMessage `json:"items"`
	Total int             `json:"total"`
}

type APISuite struct {
	suite.Suite
	e      *echo.Echo
	store  *memory.Store
	cancel context.CancelFunc
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.store = memory.NewStore()
	s.store.PutUser(&entity.User{ID: "alice", Username: "Alice"})
	s.store.PutUser(&entity.User{ID: "bob", Username: "Bob"})

	chats := memory.NewChatRepository(s.store)
	messages := memory.NewMessageRepository(s.store)
	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultPolicies(30))

	blockUseCase := usecase.NewBlockUseCase(memory.NewBlockRepository(s.store))
	presenceUseCase := usecase.NewPresenceUseCase(memory.NewPresenceRepository(s.store), time.Minute, 0)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	verifier := firebase.NewDevTokenVerifier()
	handler.Setup(handler.Dependencies{
		Chats:         usecase.NewChatUseCase(chats, memory.NewUserRepository(s.store), limiter),
		Messages:      usecase.NewMessageUseCase(chats, messages, blockUseCase, limiter, ""),
		Conversations: usecase.NewConversationUseCase(chats, messages, blockUseCase, presenceUseCase, ""),
		Typing:        usecase.NewTypingUseCase(chats, limiter, 0),
		Blocks:        blockUseCase,
		Presence:      presenceUseCase,
		Health:        verifier,
		WSManager:     wsManager,
	})

	s.e = echo.New()
	s.e.Validator = api.NewValidator()
	router.Setup(s.e, middleware.NewAuthMiddleware(verifier), verifier, limiter)
	router.SetupDevRouter(s.e, "development", true)
}

func (s *APISuite) TearDownTest() {
	s.cancel()
}

func (s *APISuite) do(method, path, uid, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if uid != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+firebase.DevToken(uid))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func (s *APISuite) createChat(uid, recipient string) string {
	rec, env := s.do(http.MethodPost, "/v1/chats", uid, `{"recipient_id":"`+recipient+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var data map[string]string
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	return data["chat_id"]
}

func (s *APISuite) TestHealth() {
	rec, _ := s.do(http.MethodGet, "/health", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "ok")

	rec, _ = s.do(http.MethodGet, "/firebase-health", "", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestRequiresAuth() {
	rec, _ := s.do(http.MethodGet, "/v1/chats", "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestDevToken() {
	rec, env := s.do(http.MethodGet, "/_dev/token/alice", "", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var data map[string]string
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal(firebase.DevToken("alice"), data["token"])
}

func (s *APISuite) TestCreateChatIsSymmetric() {
	first := s.createChat("alice", "bob")
	second := s.createChat("bob", "alice")
	s.Equal(first, second)
	s.Equal("alice_bob", first)
}

func (s *APISuite) TestCreateChatWithSelf() {
	rec, env := s.do(http.MethodPost, "/v1/chats", "alice", `{"recipient_id":"alice"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(env.Success)
}

func (s *APISuite) TestCreateChatValidation() {
	rec, env := s.do(http.MethodPost, "/v1/chats", "alice", `{}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Require().NotNil(env.Error)
	s.Equal("VALIDATION_ERROR", env.Error.Code)
}

func (s *APISuite) TestSendAndReadMessages() {
	chatID := s.createChat("alice", "bob")

	rec, _ := s.do(http.MethodPost, "/v1/chats/"+chatID+"/messages", "alice", `{"message":"<b>Hello</b> & welcome"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := s.do(http.MethodGet, "/v1/chats/"+chatID+"/messages", "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var list listData
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	var messages []entity.Message
	s.Require().NoError(json.Unmarshal(list.Items, &messages))
	s.Require().Len(messages, 1)
	s.Equal("Hello & welcome", messages[0].Message)
	s.Equal("alice", messages[0].Sender)

	rec, env = s.do(http.MethodGet, "/v1/chats", "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	var conversations []entity.Conversation
	s.Require().NoError(json.Unmarshal(list.Items, &conversations))
	s.Require().Len(conversations, 1)
	s.Equal(1, conversations[0].UnreadCount)

	rec, _ = s.do(http.MethodPut, "/v1/chats/"+chatID+"/read", "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	_, env = s.do(http.MethodGet, "/v1/chats", "bob", "")
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Require().NoError(json.Unmarshal(list.Items, &conversations))
	s.Require().Len(conversations, 1)
	s.Equal(0, conversations[0].UnreadCount)
}

func (s *APISuite) TestOutsiderCannotReadChat() {
	chatID := s.createChat("alice", "bob")

	rec, _ := s.do(http.MethodGet, "/v1/chats/"+chatID+"/messages", "mallory", "")
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *APISuite) TestBlockedSendIsRejected() {
	chatID := s.createChat("alice", "bob")

	rec, _ := s.do(http.MethodPost, "/v1/blocks", "bob", `{"user_id":"alice"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, env := s.do(http.MethodPost, "/v1/chats/"+chatID+"/messages", "alice", `{"message":"hi"}`)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Require().NotNil(env.Error)
	s.Equal("CHAT_BLOCKED", env.Error.Code)

	rec, env = s.do(http.MethodGet, "/v1/blocks/bob/status", "alice", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var status entity.BlockStatus
	s.Require().NoError(json.Unmarshal(env.Data, &status))
	s.True(status.IsBlockedByOther)
	s.False(status.HasBlockedOther)

	rec, _ = s.do(http.MethodDelete, "/v1/blocks/alice", "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPost, "/v1/chats/"+chatID+"/messages", "alice", `{"message":"hi"}`)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *APISuite) TestTypingRequiresFlag() {
	chatID := s.createChat("alice", "bob")

	rec, _ := s.do(http.MethodPut, "/v1/chats/"+chatID+"/typing", "alice", `{}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodPut, "/v1/chats/"+chatID+"/typing", "alice", `{"typing":true}`)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestShowChatIsPublicToRead() {
	rec, _ := s.do(http.MethodPost, "/v1/shows/show-1/messages", "", `{"message":"hi"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/v1/shows/show-1/messages", "alice", `{"message":"hi @Bob","mentions":[{"id":"bob","name":"Bob"}]}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := s.do(http.MethodGet, "/v1/shows/show-1/messages", "", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var list listData
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Equal(1, list.Total)
}

func (s *APISuite) TestOfflineBeacon() {
	rec, _ := s.do(http.MethodPost, "/api/presence/offline", "", `{"userId":"alice","online":false,"timestamp":1700000000000}`)
	s.Equal(http.StatusNoContent, rec.Code)

	rec, env := s.do(http.MethodGet, "/v1/presence/alice", "bob", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var view entity.PresenceView
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	s.False(view.Online)

	rec, _ = s.do(http.MethodPost, "/api/presence/offline", "", `{"userId":"alice","online":true}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestWebSocketSubscription() {
	chatID := s.createChat("alice", "bob")

	server := httptest.NewServer(s.e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + firebase.DevToken("bob")
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.Require().NoError(conn.WriteJSON(map[string]interface{}{
		"type": websocket.MessageTypeSubscribeMessages,
		"data": map[string]string{"chat_id": chatID},
	}))

	rec, _ := s.do(http.MethodPost, "/v1/chats/"+chatID+"/messages", "alice", `{"message":"live"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	for {
		var frame websocket.WSMessage
		s.Require().NoError(conn.ReadJSON(&frame))
		if frame.Type != websocket.MessageTypeMessages {
			continue
		}
		var messages []entity.Message
		s.Require().NoError(json.Unmarshal(frame.Data, &messages))
		if len(messages) == 1 {
			s.Equal("live", messages[0].Message)
			s.Equal("messages:"+chatID, frame.Key)
			return
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	e := echo.New()
	mw := router.OptionalAuth(firebase.NewDevTokenVerifier())
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, middleware.UserID(c))
	})

	cases := map[string]string{
		"":                                     "",
		"Bearer " + firebase.DevToken("alice"): "alice",
		"Bearer garbage":                       "",
		"Basic abc":                            "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		assert.Equal(t, want, rec.Body.String(), "header %q", header)
	}
}
