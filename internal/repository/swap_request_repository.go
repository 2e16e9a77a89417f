package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const swapRequestColumns = `id, initiator_id, counterpart_id, offered_slot_id, requested_slot_id, status, version, created_at, updated_at`

type SwapRequestRepository struct {
	pool *pgxpool.Pool
}

func NewSwapRequestRepository(pool *pgxpool.Pool) *SwapRequestRepository {
	return &SwapRequestRepository{pool: pool}
}

// GetSwapRequestByID получает запрос по ID без блокировки
func (r *SwapRequestRepository) GetSwapRequestByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `SELECT ` + swapRequestColumns + ` FROM swap_requests WHERE id = $1`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get swap request by id: %w", err)
	}

	reqs, err := collectSwapRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, ErrNotFound
	}
	return reqs[0], nil
}

// ListIncomingRequests получает ожидающие ответа запросы, адресованные пользователю
func (r *SwapRequestRepository) ListIncomingRequests(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapRequestColumns + `
		FROM swap_requests
		WHERE counterpart_id = $1 AND status = 'PENDING'
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get incoming swap requests: %w", err)
	}
	return collectSwapRequests(rows)
}

// ListOutgoingRequests получает все запросы, отправленные пользователем
func (r *SwapRequestRepository) ListOutgoingRequests(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapRequestColumns + `
		FROM swap_requests
		WHERE initiator_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get outgoing swap requests: %w", err)
	}
	return collectSwapRequests(rows)
}

// CountPendingCreatedBefore считает PENDING запросы старше указанного момента
func (r *SwapRequestRepository) CountPendingCreatedBefore(ctx context.Context, before time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM swap_requests
		WHERE status = 'PENDING' AND created_at < $1
	`, before).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stale swap requests: %w", err)
	}
	return count, nil
}

func getSwapRequestForUpdateTx(ctx context.Context, db base.Querier, id uuid.UUID) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := db.QueryRow(ctx, `
		SELECT `+swapRequestColumns+`
		FROM swap_requests
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&req.ID,
		&req.InitiatorID,
		&req.CounterpartID,
		&req.OfferedSlotID,
		&req.RequestedSlotID,
		&req.Status,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if base.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock swap request: %w", err)
	}
	return &req, nil
}

func insertSwapRequestTx(ctx context.Context, db base.Querier, req *model.SwapRequest) error {
	err := db.QueryRow(ctx, `
		INSERT INTO swap_requests (
			id, initiator_id, counterpart_id,
			offered_slot_id, requested_slot_id, status, version
		) VALUES ($1, $2, $3, $4, $5, $6, 1)
		RETURNING version, created_at, updated_at
	`,
		req.ID,
		req.InitiatorID,
		req.CounterpartID,
		req.OfferedSlotID,
		req.RequestedSlotID,
		req.Status,
	).Scan(&req.Version, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert swap request: %w", err)
	}
	return nil
}

// updateSwapRequestTx меняет только статус: остальные поля запроса неизменяемы
func updateSwapRequestTx(ctx context.Context, db base.Querier, req *model.SwapRequest) error {
	err := db.QueryRow(ctx, `
		UPDATE swap_requests
		SET status = $2,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND version = $3
		RETURNING version, updated_at
	`, req.ID, req.Status, req.Version).Scan(&req.Version, &req.UpdatedAt)
	if base.IsNotFound(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update swap request: %w", err)
	}
	return nil
}

func collectSwapRequests(rows pgx.Rows) ([]*model.SwapRequest, error) {
	defer rows.Close()

	var reqs []*model.SwapRequest
	for rows.Next() {
		var req model.SwapRequest
		err := rows.Scan(
			&req.ID,
			&req.InitiatorID,
			&req.CounterpartID,
			&req.OfferedSlotID,
			&req.RequestedSlotID,
			&req.Status,
			&req.Version,
			&req.CreatedAt,
			&req.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		reqs = append(reqs, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap requests: %w", err)
	}

	return reqs, nil
}
