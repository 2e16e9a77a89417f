package handlers

import (
	"context"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleMarket обрабатывает /market: чужие слоты, открытые для обмена
func (h *Handlers) HandleMarket(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	slots, err := h.slotService.ListMarket(ctx, user.ID)
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "market", err)
		return
	}

	ownerIDs := make([]int64, 0, len(slots))
	for _, s := range slots {
		ownerIDs = append(ownerIDs, s.OwnerID)
	}

	text, kb := common.BuildMarketScreen(slots, h.displayNames(ctx, ownerIDs), h.location)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, kb)
}

// HandleRequests обрабатывает /requests
func (h *Handlers) HandleRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	reqs, err := h.swapService.ListRequests(ctx, user.ID)
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "list_requests", err)
		return
	}

	userIDs := make([]int64, 0, len(reqs.Incoming))
	for _, r := range reqs.Incoming {
		userIDs = append(userIDs, r.InitiatorID)
	}

	text, kb := common.BuildRequestsScreen(reqs, h.displayNames(ctx, userIDs), h.location)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, kb)
}

// displayNames имена пользователей; при ошибке пустая карта, экран покажет заглушку
func (h *Handlers) displayNames(ctx context.Context, ids []int64) map[int64]string {
	if len(ids) == 0 {
		return nil
	}

	names, err := h.userService.DisplayNames(ctx, ids)
	if err != nil {
		h.logger.Warn("Failed to load user names", zap.Error(err))
		return nil
	}
	return names
}
