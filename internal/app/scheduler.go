package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StaleCounter считает зависшие PENDING запросы и обновляет метрику
type StaleCounter interface {
	RefreshStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

// Scheduler управляет фоновыми задачами.
// Сейчас одна задача: мониторинг запросов, на которые долго не отвечают.
// Запросы только отслеживаются, состояние не меняется.
type Scheduler struct {
	swaps     StaleCounter
	olderThan time.Duration
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(swaps StaleCounter, olderThan, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		swaps:     swaps,
		olderThan: olderThan,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("stale_after", s.olderThan),
		zap.Duration("interval", s.interval),
	)

	go s.runStaleMonitor(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

func (s *Scheduler) runStaleMonitor(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.checkStale(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkStale(ctx)
		case <-s.stopChan:
			s.logger.Info("Stale monitor stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Stale monitor cancelled")
			return
		}
	}
}

func (s *Scheduler) checkStale(ctx context.Context) {
	count, err := s.swaps.RefreshStalePending(ctx, s.olderThan)
	if err != nil {
		s.logger.Error("Failed to count stale swap requests", zap.Error(err))
		return
	}

	if count > 0 {
		s.logger.Warn("Swap requests pending for too long",
			zap.Int("count", count),
			zap.Duration("older_than", s.olderThan),
		)
	}
}
