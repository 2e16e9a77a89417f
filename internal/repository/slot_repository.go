package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotColumns = `id, owner_id, title, start_time, end_time, status, version, created_at, updated_at`

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// GetSlotsByIDs получает слоты по списку ID, отсутствующие пропускаются
func (r *SlotRepository) GetSlotsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Slot, error) {
	if len(ids) == 0 {
		return []*model.Slot{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE id = ANY($1::uuid[])
		ORDER BY start_time, id
	`

	rows, err := r.pool.Query(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("get slots by ids: %w", err)
	}
	return collectSlots(rows)
}

// ListSlotsByOwner получает все слоты пользователя
func (r *SlotRepository) ListSlotsByOwner(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE owner_id = $1
		ORDER BY start_time, id
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get slots by owner: %w", err)
	}
	return collectSlots(rows)
}

// ListSwappableSlots получает слоты, открытые для обмена, кроме слотов самого пользователя
func (r *SlotRepository) ListSwappableSlots(ctx context.Context, excludeOwnerID int64) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE status = 'SWAPPABLE' AND owner_id <> $1
		ORDER BY start_time, id
	`

	rows, err := r.pool.Query(ctx, query, excludeOwnerID)
	if err != nil {
		return nil, fmt.Errorf("get swappable slots: %w", err)
	}
	return collectSlots(rows)
}

// getSlotsForUpdateTx блокирует слоты в порядке id, чтобы встречные транзакции не дедлочились
func getSlotsForUpdateTx(ctx context.Context, db base.Querier, ids []uuid.UUID) ([]*model.Slot, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	sort.Strings(keys)

	rows, err := db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`, keys)
	if err != nil {
		return nil, fmt.Errorf("lock slots: %w", err)
	}

	locked, err := collectSlots(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.Slot, len(locked))
	for _, s := range locked {
		byID[s.ID] = s
	}

	out := make([]*model.Slot, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, ErrNotFound
		}
		out = append(out, s.Clone())
	}
	return out, nil
}

func insertSlotTx(ctx context.Context, db base.Querier, slot *model.Slot) error {
	err := db.QueryRow(ctx, `
		INSERT INTO slots (id, owner_id, title, start_time, end_time, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		RETURNING version, created_at, updated_at
	`,
		slot.ID,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.Version, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func updateSlotTx(ctx context.Context, db base.Querier, slot *model.Slot) error {
	err := db.QueryRow(ctx, `
		UPDATE slots
		SET owner_id = $2,
		    title = $3,
		    start_time = $4,
		    end_time = $5,
		    status = $6,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND version = $7
		RETURNING version, updated_at
	`,
		slot.ID,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.Version,
	).Scan(&slot.Version, &slot.UpdatedAt)
	if base.IsNotFound(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	return nil
}

func deleteSlotTx(ctx context.Context, db base.Querier, slot *model.Slot) error {
	affected, err := base.NewRepository(db).ExecAffected(ctx,
		`DELETE FROM slots WHERE id = $1 AND version = $2`, slot.ID, slot.Version)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func collectSlots(rows pgx.Rows) ([]*model.Slot, error) {
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		err := rows.Scan(
			&slot.ID,
			&slot.OwnerID,
			&slot.Title,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Status,
			&slot.Version,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}
