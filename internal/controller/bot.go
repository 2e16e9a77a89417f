package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/handlers"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/ratelimit"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/state"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	dialogMaxAge       = time.Hour
	dialogCleanupEvery = 10 * time.Minute
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	stateManager    *state.Manager
	limiter         *ratelimit.Limiter
	rateWindow      time.Duration
	logger          *zap.Logger
}

// RateLimit - не больше Max запросов одного пользователя за Window
type RateLimit struct {
	Max    int
	Window time.Duration
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	location *time.Location,
	limit RateLimit,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager()

	cmdHandlers := handlers.NewHandlers(
		userService,
		slotService,
		swapService,
		stateManager,
		location,
		logger,
	)

	callbackHandler := callbacks.NewHandler(
		userService,
		slotService,
		swapService,
		stateManager,
		location,
		logger,
	)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		stateManager:    stateManager,
		limiter:         ratelimit.New(limit.Max, limit.Window),
		rateWindow:      limit.Window,
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	limited := ratelimit.Middleware(c.limiter, c.rejectLimited)
	handle := func(pattern string, match bot.MatchType, h bot.HandlerFunc) {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, pattern, match, limited(h))
	}

	handle("/start", bot.MatchTypeExact, c.handlers.HandleStart)
	handle("/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	handle("/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)

	handle("/newslot", bot.MatchTypePrefix, c.handlers.HandleNewSlot)
	handle("/editslot", bot.MatchTypeExact, c.handlers.HandleEditSlot)
	handle("/myslots", bot.MatchTypeExact, c.handlers.HandleMySlots)
	handle("/week", bot.MatchTypeExact, c.handlers.HandleWeek)
	handle("/market", bot.MatchTypeExact, c.handlers.HandleMarket)
	handle("/requests", bot.MatchTypeExact, c.handlers.HandleRequests)

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	handle("", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, limited(c.callbackHandler.HandleCallbackQuery))

	return c.setCommands(ctx)
}

// rejectLimited отвечает пользователю, превысившему лимит запросов
func (c *BotController) rejectLimited(ctx context.Context, b *bot.Bot, update *models.Update) {
	const text = "⏳ Слишком много запросов. Подождите немного и попробуйте снова."

	switch {
	case update.CallbackQuery != nil:
		c.logger.Debug("Rate limited", zap.Int64("telegram_id", update.CallbackQuery.From.ID))
		common.AnswerCallback(ctx, b, update.CallbackQuery.ID, text)
	case update.Message != nil:
		c.logger.Debug("Rate limited", zap.Int64("telegram_id", update.Message.From.ID))
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   text,
		}); err != nil {
			c.logger.Warn("Failed to send rate limit notice", zap.Error(err))
		}
	}
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "newslot", Description: "🆕 Создать слот"},
		{Command: "editslot", Description: "✏️ Изменить слот"},
		{Command: "myslots", Description: "🗓 Мои слоты"},
		{Command: "week", Description: "🖼 Моя неделя"},
		{Command: "market", Description: "🏪 Слоты для обмена"},
		{Command: "requests", Description: "🔄 Запросы на обмен"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot")

	go c.cleanupDialogs(ctx)
	c.bot.Start(ctx)
}

// cleanupDialogs периодически удаляет брошенные диалоги и неактивных пользователей limiter
func (c *BotController) cleanupDialogs(ctx context.Context) {
	ticker := time.NewTicker(dialogCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.stateManager.Cleanup(dialogMaxAge); n > 0 {
				c.logger.Debug("Abandoned dialogs removed", zap.Int("count", n))
			}
			c.limiter.Cleanup(max(c.rateWindow, dialogCleanupEvery))
		case <-ctx.Done():
			return
		}
	}
}
