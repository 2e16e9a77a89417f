package common

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AnswerCallback убирает "часики" на кнопке; text показывается всплывающей подсказкой
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	answerCallback(ctx, b, callbackID, text, false)
}

func answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// callbackMessage возвращает сообщение с кнопкой и id чата.
// Для недоступного (старше 48 часов) сообщения известен только чат.
func callbackMessage(callback *models.CallbackQuery) (*models.Message, int64) {
	switch {
	case callback.Message.Message != nil:
		return callback.Message.Message, callback.Message.Message.Chat.ID
	case callback.Message.InaccessibleMessage != nil:
		return nil, callback.Message.InaccessibleMessage.Chat.ID
	}
	return nil, 0
}

// IsMessageNotModifiedError Telegram отвечает так на редактирование без изменений
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
