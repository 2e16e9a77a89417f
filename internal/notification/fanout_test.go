package notification

import (
	"context"
	"testing"

	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type panicNotifier struct{}

func (panicNotifier) Publish(context.Context, int64, model.SwapEvent) {
	panic("boom")
}

func TestFanout_PanicDoesNotStopOthers(t *testing.T) {
	hub := NewHub(1, metrics.New(prometheus.NewRegistry()), zap.NewNop())
	sub := hub.Subscribe(2)
	defer sub.Close()

	f := NewFanout(zap.NewNop(), panicNotifier{}, hub)

	event := newTestEvent(model.SwapEventIncoming)
	assert.NotPanics(t, func() {
		f.Publish(context.Background(), 2, event)
	})
	assert.Equal(t, event, <-sub.Events())
}
