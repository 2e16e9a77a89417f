package notification

import (
	"context"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"go.uber.org/zap"
)

// Fanout рассылает событие во все транспорты. Паника одного транспорта
// не мешает остальным.
type Fanout struct {
	notifiers []service.Notifier
	logger    *zap.Logger
}

func NewFanout(logger *zap.Logger, notifiers ...service.Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, logger: logger}
}

func (f *Fanout) Publish(ctx context.Context, userID int64, event model.SwapEvent) {
	for _, n := range f.notifiers {
		f.publishOne(ctx, n, userID, event)
	}
}

func (f *Fanout) publishOne(ctx context.Context, n service.Notifier, userID int64, event model.SwapEvent) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("Notifier panicked",
				zap.Int64("user_id", userID),
				zap.String("kind", string(event.Kind)),
				zap.Any("panic", r),
			)
		}
	}()
	n.Publish(ctx, userID, event)
}
