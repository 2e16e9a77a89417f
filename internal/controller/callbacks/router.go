package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	h.Logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("telegram_id", callback.From.ID))

	switch {
	case data == callbackdata.Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Слоты =====
	case strings.HasPrefix(data, callbackdata.ToggleSwappable):
		HandleToggleSwappable(ctx, b, callback, h)
	case strings.HasPrefix(data, callbackdata.DeleteSlot):
		HandleDeleteSlot(ctx, b, callback, h)
	case strings.HasPrefix(data, callbackdata.ConfirmDelete):
		HandleConfirmDelete(ctx, b, callback, h)
	case strings.HasPrefix(data, callbackdata.EditSlot):
		HandleEditSlot(ctx, b, callback, h)
	case strings.HasPrefix(data, callbackdata.WeekPage):
		HandleWeekPage(ctx, b, callback, h)

	// ===== Обмены =====
	case strings.HasPrefix(data, callbackdata.PickTarget):
		HandlePickTarget(ctx, b, callback, h)
	case strings.HasPrefix(data, callbackdata.Offer):
		HandleOffer(ctx, b, callback, h)
	case strings.HasPrefix(data, callbackdata.SwapAccept):
		HandleRespond(ctx, b, callback, h, true)
	case strings.HasPrefix(data, callbackdata.SwapReject):
		HandleRespond(ctx, b, callback, h, false)
	case strings.HasPrefix(data, callbackdata.SwapDetails):
		HandleSwapDetails(ctx, b, callback, h)

	default:
		h.Logger.Warn("Unknown callback", zap.String("data", data))
		common.AnswerCallback(ctx, b, callback.ID, "❌ Неизвестная команда")
	}
}
