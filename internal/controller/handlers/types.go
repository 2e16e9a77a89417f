package handlers

import (
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/state"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService  *service.UserService
	slotService  *service.SlotService
	swapService  *service.SwapService
	stateManager *state.Manager
	location     *time.Location
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	stateManager *state.Manager,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:  userService,
		slotService:  slotService,
		swapService:  swapService,
		stateManager: stateManager,
		location:     location,
		logger:       logger,
	}
}

// callbackDeps зависимости в форме, которую ждут callback helpers
func (h *Handlers) callbackDeps() *callbacktypes.Handler {
	return &callbacktypes.Handler{
		UserService:  h.userService,
		SlotService:  h.slotService,
		SwapService:  h.swapService,
		StateManager: h.stateManager,
		Location:     h.location,
		Logger:       h.logger,
	}
}
