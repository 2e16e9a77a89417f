package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/repository"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const defaultTxRetryBase = 20 * time.Millisecond

// TxOptions политика повторов транзакций при конфликте записи
type TxOptions struct {
	MaxRetries uint64 // 0 - одна попытка без повторов
	RetryBase  time.Duration
}

func (o TxOptions) withDefaults() TxOptions {
	if o.RetryBase <= 0 {
		o.RetryBase = defaultTxRetryBase
	}
	return o
}

// txRunner выполняет функцию в транзакции хранилища.
// Конфликт записи (repository.ErrConflict) повторяется ограниченное число раз:
// повтор заново читает данные, поэтому проигравший гонку увидит нарушенное
// предусловие и вернёт доменную ошибку. Остальные ошибки не повторяются.
type txRunner struct {
	store   repository.Store
	opts    TxOptions
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func newTxRunner(store repository.Store, opts TxOptions, m *metrics.Metrics, logger *zap.Logger) *txRunner {
	return &txRunner{
		store:   store,
		opts:    opts.withDefaults(),
		metrics: m,
		logger:  logger,
	}
}

func (r *txRunner) run(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	backoff := retry.WithMaxRetries(r.opts.MaxRetries, retry.NewExponential(r.opts.RetryBase))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			r.metrics.TxRetries.WithLabelValues(op).Inc()
			r.logger.Debug("Retrying transaction",
				zap.String("op", op),
				zap.Int("attempt", attempt),
			)
		}

		err := r.once(ctx, fn)
		if errors.Is(err, repository.ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})

	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
	}
	return err
}

func (r *txRunner) once(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Откат выполняется даже если ctx уже отменён
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
