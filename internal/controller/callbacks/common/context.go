package common

import (
	"context"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandlerContext - всё, что нужно обработчику нажатия: бот, пользователь, исходное сообщение
type HandlerContext struct {
	Ctx        context.Context
	Bot        *bot.Bot
	Callback   *models.CallbackQuery
	Handler    *callbacktypes.Handler
	Message    *models.Message // nil, если сообщение слишком старое
	User       *model.User
	TelegramID int64
	ChatID     int64
}

func NewHandlerContext(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
) *HandlerContext {
	msg, chatID := callbackMessage(callback)

	return &HandlerContext{
		Ctx:        ctx,
		Bot:        b,
		Callback:   callback,
		Handler:    h,
		Message:    msg,
		TelegramID: callback.From.ID,
		ChatID:     chatID,
	}
}

func (hc *HandlerContext) LoadUser() error {
	user, err := hc.Handler.UserService.GetByTelegramID(hc.Ctx, hc.TelegramID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	hc.User = user
	return nil
}

// ParseID достаёт id слота или запроса из callback data.
// При ошибке сам отвечает пользователю, вызывающему остаётся только выйти.
func (hc *HandlerContext) ParseID(prefix, operation string) (uuid.UUID, bool) {
	id, err := callbackdata.ParseID(hc.Callback.Data, prefix)
	if err != nil {
		HandleError(hc, err, operation)
		return uuid.Nil, false
	}
	return id, true
}

func (hc *HandlerContext) Answer(text string) {
	answerCallback(hc.Ctx, hc.Bot, hc.Callback.ID, text, false)
}

func (hc *HandlerContext) AnswerAlert(text string) {
	answerCallback(hc.Ctx, hc.Bot, hc.Callback.ID, text, true)
}

// EditMessage заменяет текст и кнопки исходного сообщения
func (hc *HandlerContext) EditMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	params := &bot.EditMessageTextParams{
		ChatID:    hc.ChatID,
		MessageID: hc.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := hc.Bot.EditMessageText(hc.Ctx, params)
	if IsMessageNotModifiedError(err) {
		return nil
	}
	return err
}

// Show обновляет исходное сообщение, а если его нельзя редактировать
// (старое сообщение, картинка) - присылает новое
func (hc *HandlerContext) Show(text string, keyboard *models.InlineKeyboardMarkup) {
	err := hc.EditMessage(text, keyboard)
	if err == nil {
		return
	}

	hc.Handler.Logger.Debug("Cannot edit message, sending a new one", zap.Error(err))
	if err := hc.SendMessage(text, keyboard); err != nil {
		hc.Handler.Logger.Warn("Failed to send message",
			zap.Int64("chat_id", hc.ChatID),
			zap.Error(err),
		)
	}
}

func (hc *HandlerContext) DeleteMessage() error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	_, err := hc.Bot.DeleteMessage(hc.Ctx, &bot.DeleteMessageParams{
		ChatID:    hc.ChatID,
		MessageID: hc.Message.ID,
	})
	return err
}

// SendMessage отправляет новое сообщение в чат нажатия
func (hc *HandlerContext) SendMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.ChatID == 0 {
		return ErrNoMessage
	}

	params := &bot.SendMessageParams{
		ChatID:    hc.ChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := hc.Bot.SendMessage(hc.Ctx, params)
	return err
}

// ClearState сбрасывает незаконченный диалог пользователя
func (hc *HandlerContext) ClearState() {
	hc.Handler.StateManager.ClearState(hc.TelegramID)
}
