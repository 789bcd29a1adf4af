package usecase

import (
	"context"
	"sync"
	"time"

	"livemarket/internal/infrastructure/metrics"
	"livemarket/pkg/logger"
)

// PresenceSession drives one client's presence: online with a heartbeat while
// visible, offline when hidden or stopped. At most one heartbeat runs per session.
type PresenceSession struct {
	uc     *PresenceUseCase
	userID string

	mu            sync.Mutex
	started       bool
	visible       bool
	stopHeartbeat context.CancelFunc
	heartbeatDone chan struct{}
	hiddenTimer   *time.Timer
}

func (s *PresenceSession) UserID() string {
	return s.userID
}

// Start marks the user online and begins heartbeating. Calling Start on a
// running session does nothing.
func (s *PresenceSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.visible = true
	metrics.PresenceSessions.Inc()
	return s.goOnlineLocked(ctx)
}

// SetVisible handles a client visibility change.
func (s *PresenceSession) SetVisible(ctx context.Context, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	if visible {
		s.cancelHiddenTimerLocked()
		if s.visible && s.heartbeatRunningLocked() {
			return nil
		}
		s.visible = true
		return s.goOnlineLocked(ctx)
	}

	if !s.visible {
		return nil
	}
	s.visible = false
	s.stopHeartbeatLocked()

	if grace := s.uc.hiddenGrace; grace > 0 {
		s.hiddenTimer = time.AfterFunc(grace, s.expireHidden)
		return nil
	}
	return s.uc.GoOffline(ctx, s.userID)
}

// Stop ends the session and marks the user offline.
func (s *PresenceSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	s.visible = false
	metrics.PresenceSessions.Dec()
	s.cancelHiddenTimerLocked()
	s.stopHeartbeatLocked()
	return s.uc.GoOffline(ctx, s.userID)
}

func (s *PresenceSession) expireHidden() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.visible || s.hiddenTimer == nil {
		return
	}
	s.hiddenTimer = nil
	if err := s.uc.GoOffline(context.Background(), s.userID); err != nil {
		logger.Warn("Hidden grace expired but offline write failed for %s: %v", s.userID, err)
	}
}

func (s *PresenceSession) goOnlineLocked(ctx context.Context) error {
	if err := s.uc.GoOnline(ctx, s.userID); err != nil {
		return err
	}
	s.startHeartbeatLocked()
	return nil
}

func (s *PresenceSession) startHeartbeatLocked() {
	s.stopHeartbeatLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stopHeartbeat = cancel
	s.heartbeatDone = done

	go s.runHeartbeat(ctx, done)
}

func (s *PresenceSession) runHeartbeat(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.uc.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.uc.Heartbeat(ctx, s.userID); err != nil {
				if ctx.Err() != nil {
					return
				}
				// no retry; the next visibility change or Start restarts it
				logger.Warn("Presence heartbeat for %s failed, stopping: %v", s.userID, err)
				return
			}
		}
	}
}

func (s *PresenceSession) stopHeartbeatLocked() {
	if s.stopHeartbeat != nil {
		s.stopHeartbeat()
		s.stopHeartbeat = nil
	}
}

func (s *PresenceSession) heartbeatRunningLocked() bool {
	if s.stopHeartbeat == nil || s.heartbeatDone == nil {
		return false
	}
	select {
	case <-s.heartbeatDone:
		return false
	default:
		return true
	}
}

// HeartbeatRunning reports whether the heartbeat loop is alive.
func (s *PresenceSession) HeartbeatRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeatRunningLocked()
}

func (s *PresenceSession) cancelHiddenTimerLocked() {
	if s.hiddenTimer != nil {
		s.hiddenTimer.Stop()
		s.hiddenTimer = nil
	}
}
