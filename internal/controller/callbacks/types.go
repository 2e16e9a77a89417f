package callbacks

import (
	"context"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/state"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Handler обертка для callbacktypes.Handler с методами
type Handler struct {
	*callbacktypes.Handler
}

// NewHandler создаёт новый обработчик callbacks с зависимостями
func NewHandler(
	userService *service.UserService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	stateManager *state.Manager,
	location *time.Location,
	logger *zap.Logger,
) *Handler {
	return &Handler{Handler: &callbacktypes.Handler{
		UserService:  userService,
		SlotService:  slotService,
		SwapService:  swapService,
		StateManager: stateManager,
		Location:     location,
		Logger:       logger,
	}}
}

// HandleCallbackQuery - главный обработчик callback queries
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	Route(ctx, b, update.CallbackQuery, h.Handler)
}
