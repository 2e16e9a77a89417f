package callbacktypes

import (
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/state"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"go.uber.org/zap"
)

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService  *service.UserService
	SlotService  *service.SlotService
	SwapService  *service.SwapService
	StateManager *state.Manager
	Location     *time.Location
	Logger       *zap.Logger
}
