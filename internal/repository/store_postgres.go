package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore - Store поверх Postgres.
// Строки блокируются SELECT ... FOR UPDATE, записи дополнительно проверяют version,
// ошибки сериализации и дедлоки превращаются в ErrConflict.
type PostgresStore struct {
	*SlotRepository
	*SwapRequestRepository

	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		SlotRepository:        NewSlotRepository(pool),
		SwapRequestRepository: NewSwapRequestRepository(pool),
		pool:                  pool,
	}
}

// Begin начинает транзакцию READ COMMITTED: согласованность обеспечивают блокировки строк
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgStoreTx{tx: tx}, nil
}

type pgStoreTx struct {
	tx pgx.Tx
}

func (t *pgStoreTx) GetSlots(ctx context.Context, ids ...uuid.UUID) ([]*model.Slot, error) {
	slots, err := getSlotsForUpdateTx(ctx, t.tx, ids)
	return slots, mapTxErr(err)
}

func (t *pgStoreTx) GetSwapRequest(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	req, err := getSwapRequestForUpdateTx(ctx, t.tx, id)
	return req, mapTxErr(err)
}

func (t *pgStoreTx) PutSlot(ctx context.Context, slot *model.Slot) error {
	if slot.Version == 0 {
		return mapTxErr(insertSlotTx(ctx, t.tx, slot))
	}
	return mapTxErr(updateSlotTx(ctx, t.tx, slot))
}

func (t *pgStoreTx) DeleteSlot(ctx context.Context, slot *model.Slot) error {
	return mapTxErr(deleteSlotTx(ctx, t.tx, slot))
}

func (t *pgStoreTx) PutSwapRequest(ctx context.Context, req *model.SwapRequest) error {
	if req.Version == 0 {
		return mapTxErr(insertSwapRequestTx(ctx, t.tx, req))
	}
	return mapTxErr(updateSwapRequestTx(ctx, t.tx, req))
}

func (t *pgStoreTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return mapTxErr(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Rollback безопасен после Commit
func (t *pgStoreTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func mapTxErr(err error) error {
	if err == nil {
		return nil
	}
	if base.IsConflict(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
