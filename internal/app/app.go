package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/config"
	"github.com/Freeeeeet/slotswap_bot/internal/controller"
	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/notification"
	"github.com/Freeeeeet/slotswap_bot/internal/repository"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// App собранное приложение: бот, служебный HTTP сервер и фоновые задачи
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	pool       *pgxpool.Pool
	controller *controller.BotController
	telegram   *notification.TelegramNotifier
	httpServer *http.Server
	scheduler  *Scheduler
}

// New подключается к БД, применяет миграции и собирает зависимости
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	app, err := build(ctx, cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	migrator, err := NewMigrator(pool, logger)
	if err != nil {
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store := repository.NewPostgresStore(pool)
	userRepo := repository.NewUserRepository(pool)

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	userService := service.NewUserService(userRepo, logger)

	hub := notification.NewHub(0, m, logger)
	telegram := notification.NewTelegramNotifier(b, userService, store, cfg.NotifyTimeout, cfg.Timezone, m, logger)
	notifier := notification.NewFanout(logger, telegram, hub)

	txOpts := service.TxOptions{
		MaxRetries: cfg.TxMaxRetries,
		RetryBase:  cfg.TxRetryBase,
	}
	slotService := service.NewSlotService(store, m, txOpts, logger)
	swapService := service.NewSwapService(store, notifier, m, txOpts, logger)

	botController := controller.NewBotController(
		b, userService, slotService, swapService, cfg.Timezone,
		controller.RateLimit{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow},
		logger,
	)

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		controller: botController,
		telegram:   telegram,
		httpServer: NewHTTPServer(cfg.HTTPAddr, notification.NewWSHandler(hub, logger), reg, pool),
		scheduler:  NewScheduler(swapService, cfg.StalePendingAfter, cfg.StaleCheckInterval, logger),
	}, nil
}

// Run блокируется до отмены ctx, затем корректно всё останавливает
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.controller.RegisterHandlers(ctx); err != nil {
		return fmt.Errorf("register bot handlers: %w", err)
	}

	httpErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.cfg.HTTPAddr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	a.scheduler.Start(ctx)

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		a.controller.Start(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-httpErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	cancel()
	a.shutdown(botDone)
	return runErr
}

func (a *App) shutdown(botDone <-chan struct{}) {
	a.logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	a.scheduler.Stop()

	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		a.logger.Warn("Bot did not stop in time")
	}

	a.telegram.Wait()
	a.pool.Close()

	a.logger.Info("Shutdown complete")
}
