package handlers

import (
	"context"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser проверяет что пользователь зарегистрирован.
// Возвращает user и true если OK, nil и false если нет.
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.", nil)
		return nil, false
	}

	if user == nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Пользователь не найден. Используйте /start для регистрации.", nil)
		return nil, false
	}

	return user, true
}

// sendMessage отправляет HTML сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, kb *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendError логирует ошибку сервиса и показывает пользователю понятный текст
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, operation string, err error) {
	h.logger.Info("Command failed",
		zap.String("operation", operation),
		zap.Int64("chat_id", chatID),
		zap.Error(err),
	)
	h.sendMessage(ctx, b, chatID, common.ErrorMessage(err), nil)
}
