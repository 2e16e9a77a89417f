package service

import (
	"context"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
)

// Notifier доставляет события обменов пользователям.
// Publish не должен блокироваться надолго и ничего не возвращает:
// доставка не гарантируется и не влияет на результат операции.
type Notifier interface {
	Publish(ctx context.Context, userID int64, event model.SwapEvent)
}
