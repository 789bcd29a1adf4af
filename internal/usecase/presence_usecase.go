package usecase

import (
	"context"
	"time"

	"livemarket/internal/domain/entity"
	"livemarket/internal/domain/repository"
	"livemarket/internal/infrastructure/metrics"
	"livemarket/pkg/errors"
	"livemarket/pkg/logger"
)

const DefaultHeartbeatInterval = 30 * time.Second

type PresenceUseCase struct {
	presenceRepo repository.PresenceRepository
	heartbeat    time.Duration
	hiddenGrace  time.Duration
	clock        func() time.Time
}

// NewPresenceUseCase builds the tracker. hiddenGrace delays the offline write
// after a session becomes hidden; zero flips offline immediately.
func NewPresenceUseCase(presenceRepo repository.PresenceRepository, heartbeat, hiddenGrace time.Duration) *PresenceUseCase {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	if hiddenGrace < 0 {
		hiddenGrace = 0
	}
	return &PresenceUseCase{
		presenceRepo: presenceRepo,
		heartbeat:    heartbeat,
		hiddenGrace:  hiddenGrace,
		clock:        time.Now,
	}
}

func (uc *PresenceUseCase) GoOnline(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.BadRequest("User ID is required", nil)
	}
	if err := uc.presenceRepo.SetOnline(ctx, userID, true, uc.clock()); err != nil {
		metrics.PresenceWrites.WithLabelValues("online", "error").Inc()
		logger.Error("Failed to mark %s online: %v", userID, err)
		return err
	}
	metrics.PresenceWrites.WithLabelValues("online", "ok").Inc()
	return nil
}

// GoOffline is an idempotent overwrite; the unload beacon and the session may both call it.
func (uc *PresenceUseCase) GoOffline(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.BadRequest("User ID is required", nil)
	}
	if err := uc.presenceRepo.SetOnline(ctx, userID, false, uc.clock()); err != nil {
		metrics.PresenceWrites.WithLabelValues("offline", "error").Inc()
		logger.Error("Failed to mark %s offline: %v", userID, err)
		return err
	}
	metrics.PresenceWrites.WithLabelValues("offline", "ok").Inc()
	return nil
}

// Heartbeat refreshes lastUpdate without touching the online flag.
func (uc *PresenceUseCase) Heartbeat(ctx context.Context, userID string) error {
	if err := uc.presenceRepo.Touch(ctx, userID, uc.clock()); err != nil {
		metrics.PresenceWrites.WithLabelValues("heartbeat", "error").Inc()
		return err
	}
	metrics.PresenceWrites.WithLabelValues("heartbeat", "ok").Inc()
	return nil
}

func (uc *PresenceUseCase) GetPresence(ctx context.Context, userID string) (entity.PresenceView, error) {
	presence, err := uc.presenceRepo.Get(ctx, userID)
	if err != nil {
		return entity.PresenceView{}, err
	}
	return uc.view(presence), nil
}

// SubscribeToPresence delivers the user's presence on every change. Typing is
// always false on this channel.
func (uc *PresenceUseCase) SubscribeToPresence(ctx context.Context, userID string, onUpdate func(entity.PresenceView), onError ErrorHandler) Unsubscribe {
	return subscribe(ctx, "presence", onError, func(ctx context.Context) error {
		return uc.presenceRepo.Watch(ctx, userID, func(presence *entity.Presence) {
			view := uc.view(presence)
			guard("presence", onError, func() { onUpdate(view) })
		})
	})
}

func (uc *PresenceUseCase) view(presence *entity.Presence) entity.PresenceView {
	if presence == nil {
		return entity.PresenceView{}
	}
	return entity.PresenceView{
		Online:   presence.Online,
		LastSeen: RelativeTime(presence.LastSeen, uc.clock()),
	}
}

// NewSession returns an idle session for userID. The caller owns it and must Stop it.
func (uc *PresenceUseCase) NewSession(userID string) *PresenceSession {
	return &PresenceSession{uc: uc, userID: userID}
}
