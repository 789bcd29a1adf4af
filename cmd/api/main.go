package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"livemarket/internal/adapter/api"
	"livemarket/internal/adapter/api/handler"
	apimiddleware "livemarket/internal/adapter/api/middleware"
	"livemarket/internal/adapter/api/router"
	"livemarket/internal/adapter/repository"
	"livemarket/internal/adapter/repository/memory"
	domainrepo "livemarket/internal/domain/repository"
	"livemarket/internal/infrastructure/firebase"
	"livemarket/internal/infrastructure/ratelimit"
	"livemarket/internal/infrastructure/storage"
	"livemarket/internal/infrastructure/websocket"
	"livemarket/internal/usecase"
	"livemarket/pkg/config"
	"livemarket/pkg/logger"
)

type identity interface {
	usecase.TokenVerifier
	handler.ConnectionTester
}

type backend struct {
	chats     domainrepo.ChatRepository
	messages  domainrepo.MessageRepository
	presence  domainrepo.PresenceRepository
	blocks    domainrepo.BlockRepository
	users     domainrepo.UserRepository
	auth      identity
	uploader  handler.ImageUploader
	closeFunc func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var b *backend
	if cfg.IsMemoryStore() {
		logger.Warn("STORE_DRIVER=memory: state is lost on restart and tokens are dev tokens")
		b = newMemoryBackend()
	} else {
		b, err = newFirestoreBackend(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize Firestore backend: %v", err)
		}
	}
	defer b.closeFunc()

	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultPolicies(cfg.MessagesPerMinute))
	limiter.StartCleanupRoutine(ctx, 5*time.Minute, 30*time.Minute)

	blockUseCase := usecase.NewBlockUseCase(b.blocks)
	presenceUseCase := usecase.NewPresenceUseCase(b.presence, cfg.HeartbeatInterval, cfg.HiddenGrace)
	chatUseCase := usecase.NewChatUseCase(b.chats, b.users, limiter)
	messageUseCase := usecase.NewMessageUseCase(b.chats, b.messages, blockUseCase, limiter, cfg.StorageHostMarker)
	conversationUseCase := usecase.NewConversationUseCase(b.chats, b.messages, blockUseCase, presenceUseCase, cfg.StorageHostMarker)
	typingUseCase := usecase.NewTypingUseCase(b.chats, limiter, cfg.TypingTTL)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	handler.Setup(handler.Dependencies{
		Chats:          chatUseCase,
		Messages:       messageUseCase,
		Conversations:  conversationUseCase,
		Typing:         typingUseCase,
		Blocks:         blockUseCase,
		Presence:       presenceUseCase,
		Uploader:       b.uploader,
		Health:         b.auth,
		WSManager:      wsManager,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	e.Use(apimiddleware.Metrics)

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(b.auth)

	router.Setup(e, authMiddleware, b.auth, limiter)
	router.SetupDevRouter(e, cfg.Environment, cfg.IsMemoryStore())

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func newMemoryBackend() *backend {
	store := memory.NewStore()
	return &backend{
		chats:     memory.NewChatRepository(store),
		messages:  memory.NewMessageRepository(store),
		presence:  memory.NewPresenceRepository(store),
		blocks:    memory.NewBlockRepository(store),
		users:     memory.NewUserRepository(store),
		auth:      firebase.NewDevTokenVerifier(),
		closeFunc: func() {},
	}
}

func newFirestoreBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	var opt option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	} else {
		if _, err := os.Stat(cfg.ServiceAccountPath); err != nil {
			return nil, err
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject, StorageBucket: cfg.StorageBucket}, opt)
	if err != nil {
		return nil, err
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, err
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		return nil, err
	}

	b := &backend{
		chats:    repository.NewFirestoreChatRepository(firestoreClient),
		messages: repository.NewFirestoreMessageRepository(firestoreClient),
		presence: repository.NewFirestorePresenceRepository(firestoreClient),
		blocks:   repository.NewFirestoreBlockRepository(firestoreClient),
		users:    repository.NewFirestoreUserRepository(firestoreClient),
		auth:     firebase.NewFirebaseAuthClient(authClient),
	}

	if cfg.StorageBucket == "" {
		logger.Warn("STORAGE_BUCKET not set, image uploads disabled")
		b.closeFunc = func() { firestoreClient.Close() }
		return b, nil
	}

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		firestoreClient.Close()
		return nil, err
	}
	b.uploader = storageClient
	b.closeFunc = func() {
		storageClient.Close()
		firestoreClient.Close()
	}
	return b, nil
}
