package callbacks

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleToggleSwappable открывает слот для обмена или снимает с обмена
func HandleToggleSwappable(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		slotID, ok := hc.ParseID(callbackdata.ToggleSwappable, "toggle_swappable")
		if !ok {
			return
		}

		slot, err := h.SlotService.GetSlot(ctx, hc.User.ID, slotID)
		if err != nil {
			common.HandleError(hc, err, "toggle_swappable")
			return
		}

		swappable := slot.Status != model.SlotStatusSwappable
		if _, err := h.SlotService.SetSwappable(ctx, hc.User.ID, slotID, swappable); err != nil {
			common.HandleError(hc, err, "toggle_swappable")
			return
		}

		answer := "🔒 Слот снят с обмена"
		if swappable {
			answer = "🔁 Слот открыт для обмена"
		}
		refreshMySlots(hc)
		common.LogAndAnswer(hc, "Slot swappable toggled", answer)
	})
}

// HandleDeleteSlot показывает подтверждение удаления
func HandleDeleteSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		slotID, ok := hc.ParseID(callbackdata.DeleteSlot, "delete_slot")
		if !ok {
			return
		}

		slot, err := h.SlotService.GetSlot(ctx, hc.User.ID, slotID)
		if err != nil {
			common.HandleError(hc, err, "delete_slot")
			return
		}

		text, kb := common.BuildDeleteConfirmScreen(slot, h.Location)
		if err := hc.SendMessage(text, kb); err != nil {
			h.Logger.Error("Failed to send delete confirmation", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleConfirmDelete удаляет слот
func HandleConfirmDelete(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		slotID, ok := hc.ParseID(callbackdata.ConfirmDelete, "delete_slot")
		if !ok {
			return
		}

		if err := h.SlotService.DeleteSlot(ctx, hc.User.ID, slotID); err != nil {
			common.HandleError(hc, err, "delete_slot")
			return
		}

		hc.Show("🗑 Слот удалён", nil)
		common.LogAndAnswer(hc, "Slot deleted", "Слот удалён")
	})
}

// HandleEditSlot начинает диалог изменения слота
func HandleEditSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		slotID, ok := hc.ParseID(callbackdata.EditSlot, "edit_slot")
		if !ok {
			return
		}

		slot, err := h.SlotService.GetSlot(ctx, hc.User.ID, slotID)
		if err != nil {
			common.HandleError(hc, err, "edit_slot")
			return
		}
		if slot.Status == model.SlotStatusSwapPending {
			common.HandleError(hc, service.ErrSlotLocked, "edit_slot")
			return
		}

		h.StateManager.StartEdit(hc.TelegramID, slotID)

		if err := hc.SendMessage(common.BuildEditSlotPrompt(slot, h.Location), nil); err != nil {
			h.Logger.Error("Failed to send edit prompt", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleWeekPage перерисовывает картинку недели со смещением
func HandleWeekPage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		offset, err := strconv.Atoi(strings.TrimPrefix(callback.Data, callbackdata.WeekPage))
		if err != nil {
			common.HandleError(hc, callbackdata.ErrInvalidFormat, "week_page")
			return
		}

		if err := SendWeek(ctx, b, h, hc.ChatID, hc.User.ID, offset); err != nil {
			common.HandleError(hc, err, "week_page")
			return
		}

		// Старую картинку удаляем, чтобы в чате была одна актуальная неделя
		if err := hc.DeleteMessage(); err != nil {
			h.Logger.Debug("Failed to delete previous week image", zap.Error(err))
		}
		hc.Answer("")
	})
}

// SendWeek отправляет картинку недели пользователя с навигацией
func SendWeek(ctx context.Context, b *bot.Bot, h *callbacktypes.Handler, chatID, userID int64, offset int) error {
	slots, err := h.SlotService.ListMySlots(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	weekStart := common.WeekStart(now, offset, h.Location)
	imageData, err := common.GenerateWeekImage(weekStart, slots, h.Location, now)
	if err != nil {
		return err
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(imageData)},
		Caption:     "🗓 Неделя с " + weekStart.Format("02.01.2006"),
		ReplyMarkup: keyboard.NewBuilder().AddWeekPagination(offset).Build(),
	})
	return err
}

// refreshMySlots перерисовывает список слотов в исходном сообщении
func refreshMySlots(hc *common.HandlerContext) {
	slots, err := hc.Handler.SlotService.ListMySlots(hc.Ctx, hc.User.ID)
	if err != nil {
		hc.Handler.Logger.Warn("Failed to reload slots", zap.Error(err))
		return
	}

	text, kb := common.BuildMySlotsScreen(slots, hc.Handler.Location)
	hc.Show(text, kb)
}
