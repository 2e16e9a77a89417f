package notification

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEvent(kind model.SwapEventKind) model.SwapEvent {
	return model.SwapEvent{
		Kind:            kind,
		RequestID:       uuid.New(),
		InitiatorID:     1,
		CounterpartID:   2,
		OfferedSlotID:   uuid.New(),
		RequestedSlotID: uuid.New(),
		Status:          model.SwapStatusPending,
		OccurredAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestHub_PublishToSubscribers(t *testing.T) {
	hub := NewHub(4, metrics.New(prometheus.NewRegistry()), zap.NewNop())

	a := hub.Subscribe(2)
	b := hub.Subscribe(2)
	other := hub.Subscribe(3)
	defer a.Close()
	defer b.Close()
	defer other.Close()

	event := newTestEvent(model.SwapEventIncoming)
	hub.Publish(context.Background(), 2, event)

	assert.Equal(t, event, <-a.Events())
	assert.Equal(t, event, <-b.Events())
	assert.Empty(t, other.Events())
}

func TestHub_FullQueueDropsWithoutBlocking(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	hub := NewHub(1, m, zap.NewNop())

	sub := hub.Subscribe(7)
	defer sub.Close()

	hub.Publish(context.Background(), 7, newTestEvent(model.SwapEventAccepted))
	hub.Publish(context.Background(), 7, newTestEvent(model.SwapEventAccepted))

	assert.Len(t, sub.Events(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsDropped.WithLabelValues(transportWebsocket)))
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(1, metrics.New(prometheus.NewRegistry()), zap.NewNop())

	sub := hub.Subscribe(5)
	require.Equal(t, 1, hub.Subscribers(5))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Subscribers(5))
	_, ok := <-sub.Events()
	assert.False(t, ok)

	// Публикация без подписчиков ничего не делает
	hub.Publish(context.Background(), 5, newTestEvent(model.SwapEventRejected))
}
