package usecase

import (
	"context"
	"fmt"
	"sync"

	"livemarket/internal/infrastructure/metrics"
	"livemarket/pkg/logger"
)

// Unsubscribe stops a live subscription. It is safe to call more than once and
// from inside the subscription's own callbacks.
type Unsubscribe func()

// ErrorHandler receives stream failures and recovered callback panics.
type ErrorHandler func(error)

// subscribe runs watch on its own goroutine until the returned Unsubscribe is
// called or parent is done.
func subscribe(parent context.Context, kind string, onError ErrorHandler, watch func(ctx context.Context) error) Unsubscribe {
	ctx, cancel := context.WithCancel(parent)
	gauge := metrics.ActiveSubscriptions.WithLabelValues(kind)
	gauge.Inc()

	go func() {
		defer gauge.Dec()
		defer cancel()
		if err := watch(ctx); err != nil && ctx.Err() == nil {
			reportError(kind, onError, err)
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }
}

// guard runs fn, reporting a panic instead of letting it kill the stream.
func guard(kind string, onError ErrorHandler, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			reportError(kind, onError, fmt.Errorf("%s subscriber panicked: %v", kind, r))
		}
	}()
	fn()
}

func reportError(kind string, onError ErrorHandler, err error) {
	metrics.SubscriptionErrors.WithLabelValues(kind).Inc()
	if onError == nil {
		logger.Error("%s subscription: %v", kind, err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("%s error handler panicked: %v (original error: %v)", kind, r, err)
		}
	}()
	onError(err)
}
