// internal/core/services/aisle_feed_test.go
package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/ports"
	"github.com/medkitapp/medkit-be/internal/core/services"
	"github.com/medkitapp/medkit-be/test/helpers"
	"github.com/medkitapp/medkit-be/test/mocks"
)

// cancelSpy counts Cancel calls.
type cancelSpy struct {
	cancelled int
}

func (c *cancelSpy) Cancel() { c.cancelled++ }

// captureSubscription wires the mock gateway so the test can drive the
// update callback by hand.
func captureSubscription(gateway *mocks.MockStoreGateway, sub ports.Subscription) *ports.AisleUpdateFunc {
	var onUpdate ports.AisleUpdateFunc
	gateway.EXPECT().
		SubscribeAisles(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f ports.AisleUpdateFunc) (ports.Subscription, error) {
			onUpdate = f
			return sub, nil
		})
	return &onUpdate
}

func TestAisleFeed_PublishesSortedAisles(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockStoreGateway(ctrl)
	feed := services.NewAisleFeed(gateway, helpers.TestLogger())

	onUpdate := captureSubscription(gateway, &cancelSpy{})
	require.NoError(t, feed.Start(context.Background()))

	updates, cancel := feed.Subscribe()
	defer cancel()

	(*onUpdate)([]string{"C3", "A1", "B2"}, nil)

	assert.Equal(t, []string{"A1", "B2", "C3"}, feed.Aisles())
	select {
	case got := <-updates:
		assert.Equal(t, []string{"A1", "B2", "C3"}, got)
	default:
		t.Fatal("expected a republished aisle list")
	}
}

func TestAisleFeed_ErrorKeepsLastList(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockStoreGateway(ctrl)
	feed := services.NewAisleFeed(gateway, helpers.TestLogger())

	onUpdate := captureSubscription(gateway, &cancelSpy{})
	require.NoError(t, feed.Start(context.Background()))

	(*onUpdate)([]string{"A1", "B2"}, nil)
	(*onUpdate)(nil, errors.New("stream broken"))

	assert.Equal(t, []string{"A1", "B2"}, feed.Aisles(), "error must not clear the list")
	require.NotNil(t, feed.Err())
	assert.Equal(t, domain.ErrUnknown, feed.Err().Kind)

	// A later successful update clears the error
	(*onUpdate)([]string{"A1"}, nil)
	assert.Nil(t, feed.Err())
}

func TestAisleFeed_StartReplacesSubscription(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockStoreGateway(ctrl)
	feed := services.NewAisleFeed(gateway, helpers.TestLogger())

	first := &cancelSpy{}
	second := &cancelSpy{}

	gateway.EXPECT().
		SubscribeAisles(gomock.Any(), gomock.Any()).
		Return(first, nil)
	require.NoError(t, feed.Start(context.Background()))

	gateway.EXPECT().
		SubscribeAisles(gomock.Any(), gomock.Any()).
		Return(second, nil)
	require.NoError(t, feed.Start(context.Background()))

	assert.Equal(t, 1, first.cancelled, "restart must cancel the prior subscription")
	assert.Equal(t, 0, second.cancelled)
}

func TestAisleFeed_ConcurrentStartLeavesOneSubscription(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockStoreGateway(ctrl)
	feed := services.NewAisleFeed(gateway, helpers.TestLogger())

	first := &cancelSpy{}
	second := &cancelSpy{}
	subs := []ports.Subscription{first, second}
	next := 0
	gateway.EXPECT().
		SubscribeAisles(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, ports.AisleUpdateFunc) (ports.Subscription, error) {
			s := subs[next]
			next++
			return s, nil
		}).
		Times(2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, feed.Start(context.Background()))
		}()
	}
	wg.Wait()
	feed.Stop()

	// The losing subscription is cancelled by the winning Start, the winner
	// by Stop; neither may leak or be cancelled twice.
	assert.Equal(t, 1, first.cancelled)
	assert.Equal(t, 1, second.cancelled)
}

func TestAisleFeed_StartFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockStoreGateway(ctrl)
	feed := services.NewAisleFeed(gateway, helpers.TestLogger())

	gateway.EXPECT().
		SubscribeAisles(gomock.Any(), gomock.Any()).
		Return(nil, context.Canceled)

	err := feed.Start(context.Background())
	require.Error(t, err)
	require.NotNil(t, feed.Err())
	assert.Equal(t, domain.ErrCancelled, feed.Err().Kind)
}

func TestAisleFeed_StopIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockStoreGateway(ctrl)
	feed := services.NewAisleFeed(gateway, helpers.TestLogger())

	// Stopping a feed that never started is safe
	feed.Stop()

	spy := &cancelSpy{}
	gateway.EXPECT().
		SubscribeAisles(gomock.Any(), gomock.Any()).
		Return(spy, nil)
	require.NoError(t, feed.Start(context.Background()))

	feed.Stop()
	feed.Stop()

	assert.Equal(t, 1, spy.cancelled)
}
