package common

import (
	"context"
	"errors"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// WithUser создаёт HandlerContext и загружает пользователя.
// При ошибке сам отвечает пользователю и не вызывает handler.
func WithUser(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.LoadUser(); err != nil {
		h.Logger.Error("Failed to load user",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	handler(hc)
}

// HandleError логирует ошибку и показывает пользователю alert.
// Отказы бизнес-логики логируются как Info, остальное как Error.
func HandleError(hc *HandlerContext, err error, operation string) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Error(err),
	}

	if isDomainError(err) {
		hc.Handler.Logger.Info("Operation rejected", fields...)
	} else {
		hc.Handler.Logger.Error("Operation failed", fields...)
	}
	hc.AnswerAlert(ErrorMessage(err))
}

// LogAndAnswer логирует действие и отвечает на callback
func LogAndAnswer(hc *HandlerContext, message string, answer string) {
	hc.Handler.Logger.Info(message,
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Int64("user_id", hc.User.ID))
	hc.Answer(answer)
}

func isDomainError(err error) bool {
	return errors.Is(err, service.ErrValidation) ||
		errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrForbidden) ||
		errors.Is(err, service.ErrConflict)
}
