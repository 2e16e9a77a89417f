package callbacks

import (
	"context"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandlePickTarget запоминает выбранный на рынке слот и предлагает выбрать свой
func HandlePickTarget(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		targetID, ok := hc.ParseID(callbackdata.PickTarget, "pick_target")
		if !ok {
			return
		}

		market, err := h.SlotService.ListMarket(ctx, hc.User.ID)
		if err != nil {
			common.HandleError(hc, err, "pick_target")
			return
		}

		var target *model.Slot
		for _, s := range market {
			if s.ID == targetID {
				target = s
				break
			}
		}
		if target == nil {
			common.HandleError(hc, service.ErrSlotNotSwappable, "pick_target")
			return
		}

		mine, err := h.SlotService.ListMySwappable(ctx, hc.User.ID)
		if err != nil {
			common.HandleError(hc, err, "pick_target")
			return
		}

		h.StateManager.StartPropose(hc.TelegramID, targetID)

		text, kb := common.BuildOfferScreen(target, mine, h.Location)
		if err := hc.SendMessage(text, kb); err != nil {
			h.Logger.Error("Failed to send offer screen", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleOffer создаёт запрос на обмен: свой слот из кнопки, чужой из состояния диалога
func HandleOffer(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		offeredID, ok := hc.ParseID(callbackdata.Offer, "propose")
		if !ok {
			return
		}

		targetID, ok := h.StateManager.ProposeTarget(hc.TelegramID)
		if !ok {
			hc.AnswerAlert("⚠️ Сначала выберите слот на рынке: /market")
			return
		}

		req, err := h.SwapService.ProposeSwap(ctx, hc.User.ID, offeredID, targetID)
		if err != nil {
			common.HandleError(hc, err, "propose")
			return
		}
		hc.ClearState()

		text := "📨 <b>Запрос отправлен</b>\n\n" +
			"Вы предлагаете: " + common.FormatSlotLine(req.OfferedSlot, h.Location) + "\n" +
			"За: " + common.FormatSlotLine(req.RequestedSlot, h.Location) + "\n\n" +
			"Оба слота ждут ответа владельца. Статус: /requests"
		hc.Show(text, nil)
		common.LogAndAnswer(hc, "Swap proposed from bot", "Запрос отправлен")
	})
}

// HandleRespond принимает или отклоняет входящий запрос
func HandleRespond(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler, accept bool) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		prefix := callbackdata.SwapReject
		if accept {
			prefix = callbackdata.SwapAccept
		}

		requestID, ok := hc.ParseID(prefix, "respond")
		if !ok {
			return
		}

		req, err := h.SwapService.RespondSwap(ctx, hc.User.ID, requestID, accept)
		if err != nil {
			common.HandleError(hc, err, "respond")
			return
		}

		hc.Show(common.BuildSwapResultText(req, h.Location), nil)

		answer := "🚫 Отклонено"
		if accept {
			answer = "✅ Обмен выполнен"
		}
		common.LogAndAnswer(hc, "Swap request answered", answer)
	})
}

// HandleSwapDetails показывает карточку запроса участнику обмена
func HandleSwapDetails(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		requestID, ok := hc.ParseID(callbackdata.SwapDetails, "swap_details")
		if !ok {
			return
		}

		req, err := h.SwapService.GetRequest(ctx, hc.User.ID, requestID)
		if err != nil {
			common.HandleError(hc, err, "swap_details")
			return
		}

		names, err := h.UserService.DisplayNames(ctx, []int64{req.InitiatorID, req.CounterpartID})
		if err != nil {
			h.Logger.Warn("Failed to load user names", zap.Error(err))
		}

		text, kb := common.BuildRequestDetailsScreen(req, hc.User.ID, names, h.Location)
		if err := hc.SendMessage(text, kb); err != nil {
			h.Logger.Error("Failed to send request details", zap.Error(err))
		}
		hc.Answer("")
	})
}
