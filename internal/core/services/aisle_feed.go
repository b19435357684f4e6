// internal/core/services/aisle_feed.go
package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/ports"
)

// AisleFeed is a live aggregation of the distinct aisle names across the full
// medicines collection. It is fed by a push subscription on the store
// gateway, independent of the paginated list window.
type AisleFeed struct {
	gateway ports.StoreGateway
	logger  *slog.Logger

	// startMu serializes Start so two racing calls cannot both pass Stop
	// and leave one subscription orphaned.
	startMu sync.Mutex

	mu     sync.Mutex
	sub    ports.Subscription
	aisles []string
	err    *domain.AppError

	subscribers map[int]chan []string
	nextSub     int
}

// NewAisleFeed creates a stopped feed.
func NewAisleFeed(gateway ports.StoreGateway, logger *slog.Logger) *AisleFeed {
	return &AisleFeed{
		gateway:     gateway,
		logger:      logger.With(slog.String("service", "aisle_feed")),
		subscribers: make(map[int]chan []string),
	}
}

// Start establishes the push subscription, replacing any prior one. Each
// remote update republishes the sorted distinct aisle list. A subscription
// error publishes a typed error and leaves the last aisle list in place.
func (f *AisleFeed) Start(ctx context.Context) error {
	f.startMu.Lock()
	defer f.startMu.Unlock()

	f.Stop()

	sub, err := f.gateway.SubscribeAisles(ctx, func(aisles []string, err error) {
		if err != nil {
			f.mu.Lock()
			f.err = domain.ClassifyStoreError(err)
			f.mu.Unlock()
			f.logger.Error("aisle subscription error",
				slog.String("error", err.Error()))
			return
		}

		sorted := make([]string, len(aisles))
		copy(sorted, aisles)
		sort.Strings(sorted)

		f.mu.Lock()
		f.aisles = sorted
		f.err = nil
		for _, ch := range f.subscribers {
			select {
			case ch <- sorted:
			default:
			}
		}
		f.mu.Unlock()
	})
	if err != nil {
		appErr := domain.ClassifyStoreError(err)
		f.mu.Lock()
		f.err = appErr
		f.mu.Unlock()
		f.logger.ErrorContext(ctx, "failed to start aisle feed",
			slog.String("error", err.Error()))
		return appErr
	}

	f.mu.Lock()
	f.sub = sub
	f.mu.Unlock()
	f.logger.InfoContext(ctx, "aisle feed started")
	return nil
}

// Stop cancels the subscription. Safe to call when none exists.
func (f *AisleFeed) Stop() {
	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.mu.Unlock()

	if sub != nil {
		sub.Cancel()
		f.logger.Info("aisle feed stopped")
	}
}

// Aisles returns the last published sorted aisle list.
func (f *AisleFeed) Aisles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.aisles))
	copy(out, f.aisles)
	return out
}

// Err returns the last subscription error, or nil.
func (f *AisleFeed) Err() *domain.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Subscribe registers an observer for republished aisle lists. Updates are
// dropped for observers that are not keeping up.
func (f *AisleFeed) Subscribe() (<-chan []string, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	ch := make(chan []string, 4)
	f.subscribers[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subscribers[id]; ok {
			delete(f.subscribers, id)
			close(c)
		}
	}
	return ch, cancel
}
