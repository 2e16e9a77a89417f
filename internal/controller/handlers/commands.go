package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 <b>Справка по командам</b>\n\n" +
	"/newslot ДД.ММ.ГГГГ ЧЧ:ММ ЧЧ:ММ Название - создать слот\n" +
	"/editslot - изменить время или название слота\n" +
	"/myslots - мои слоты: открыть для обмена, изменить, удалить\n" +
	"/week - моя неделя картинкой\n" +
	"/market - чужие слоты, открытые для обмена\n" +
	"/requests - входящие и исходящие запросы на обмен\n" +
	"/cancel - отменить текущий диалог\n\n" +
	"Как обменяться: откройте свой слот для обмена в /myslots, " +
	"выберите чужой слот в /market и предложите свой взамен. " +
	"Пока владелец не ответит, оба слота заблокированы."

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From

	registeredUser, err := h.userService.RegisterUser(
		ctx,
		from.ID,
		from.Username,
		from.FirstName,
		from.LastName,
		from.LanguageCode,
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.", nil)
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\nЭто бот для обмена слотами в календаре.\n\n%s",
		html.EscapeString(registeredUser.FirstName),
		helpText,
	)
	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.", nil)
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.", nil)
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Команды обрабатываются своими handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	switch h.stateManager.GetState(update.Message.From.ID) {
	case state.StateNewSlotInput:
		h.handleNewSlotInput(ctx, b, update)
	case state.StateEditSlotInput:
		h.handleEditSlotInput(ctx, b, update)
	case state.StateProposeSelectOffer:
		h.sendMessage(ctx, b, update.Message.Chat.ID, "👆 Выберите свой слот кнопкой выше или /cancel", nil)
	}
}
