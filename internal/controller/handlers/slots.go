package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/state"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const newSlotUsage = "Формат: <code>ДД.ММ.ГГГГ ЧЧ:ММ ЧЧ:ММ Название</code>\n" +
	"Например: <code>20.03.2026 10:00 11:30 Созвон с командой</code>"

// HandleNewSlot обрабатывает /newslot. Без аргументов запускает диалог ввода.
func (h *Handlers) HandleNewSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	args := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/newslot"))
	if args == "" {
		h.stateManager.SetState(update.Message.From.ID, state.StateNewSlotInput)
		h.sendMessage(ctx, b, update.Message.Chat.ID, "🆕 Новый слот\n\n"+newSlotUsage+"\n\n/cancel - отмена", nil)
		return
	}

	h.createSlot(ctx, b, update.Message.Chat.ID, user, args)
}

func (h *Handlers) handleNewSlotInput(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if h.createSlot(ctx, b, update.Message.Chat.ID, user, update.Message.Text) {
		h.stateManager.ClearState(update.Message.From.ID)
	}
}

// createSlot разбирает ввод и создаёт слот; false если пользователь должен повторить ввод
func (h *Handlers) createSlot(ctx context.Context, b *bot.Bot, chatID int64, user *model.User, input string) bool {
	in, err := formatting.ParseSlotInput(input, h.location)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Не удалось разобрать слот.\n\n"+newSlotUsage, nil)
		return false
	}

	slot, err := h.slotService.CreateSlot(ctx, user.ID, in.Title, in.Start, in.End, model.SlotStatusBusy)
	if err != nil {
		h.sendError(ctx, b, chatID, "create_slot", err)
		return !isRetryable(err)
	}

	h.sendMessage(ctx, b, chatID, "✅ Слот создан\n\n"+common.FormatSlotLine(slot, h.location)+
		"\n\nОткрыть его для обмена можно в /myslots", nil)
	return true
}

// HandleEditSlot обрабатывает /editslot: выбор слота для изменения
func (h *Handlers) HandleEditSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	slots, err := h.slotService.ListMySlots(ctx, user.ID)
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "list_slots", err)
		return
	}

	text, kb := common.BuildEditSlotsScreen(slots, h.location)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, kb)
}

func (h *Handlers) handleEditSlotInput(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	slotID, ok := h.stateManager.EditTarget(telegramID)
	if !ok {
		h.stateManager.ClearState(telegramID)
		return
	}

	edit, err := formatting.ParseSlotEdit(update.Message.Text, h.location)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Не удалось разобрать ввод.\n\n"+newSlotUsage, nil)
		return
	}

	slot, err := h.slotService.UpdateSlot(ctx, user.ID, slotID, slotUpdate(edit))
	if err != nil {
		h.sendError(ctx, b, chatID, "edit_slot", err)
		if !isRetryable(err) {
			h.stateManager.ClearState(telegramID)
		}
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, chatID, "✅ Слот изменён\n\n"+common.FormatSlotLine(slot, h.location), nil)
}

// slotUpdate переводит разобранный ввод в изменения сервиса; статус здесь не меняется
func slotUpdate(edit formatting.SlotEdit) service.SlotUpdate {
	return service.SlotUpdate{
		Title:     edit.Title,
		StartTime: edit.Start,
		EndTime:   edit.End,
	}
}

// HandleMySlots обрабатывает /myslots
func (h *Handlers) HandleMySlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	slots, err := h.slotService.ListMySlots(ctx, user.ID)
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "list_slots", err)
		return
	}

	text, kb := common.BuildMySlotsScreen(slots, h.location)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, kb)
}

// HandleWeek обрабатывает /week: картинка текущей недели
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if err := callbacks.SendWeek(ctx, b, h.callbackDeps(), update.Message.Chat.ID, user.ID, 0); err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "week", err)
	}
}

// isRetryable ошибки ввода, после которых диалог продолжается
func isRetryable(err error) bool {
	return errors.Is(err, service.ErrValidation)
}
