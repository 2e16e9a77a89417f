package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/google/uuid"
)

var (
	// ErrNotFound - сущность не существует
	ErrNotFound = errors.New("entity not found")
	// ErrConflict - конкурентная транзакция уже изменила сущность, транзакция откатывается
	ErrConflict = errors.New("concurrent write conflict")
)

// Store - транзакционное хранилище слотов и запросов на обмен.
//
// Гарантии:
//   - чтения внутри Tx согласованы между собой
//   - Commit применяет все записи или ни одной
//   - конкурентная запись в ту же сущность приводит к ErrConflict у проигравшего
//   - после успешного Commit изменения видны всем новым транзакциям
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	// Чтения вне транзакции, без блокировок
	GetSlotsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Slot, error)
	GetSwapRequestByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	ListSlotsByOwner(ctx context.Context, ownerID int64) ([]*model.Slot, error)
	ListSwappableSlots(ctx context.Context, excludeOwnerID int64) ([]*model.Slot, error)
	ListIncomingRequests(ctx context.Context, userID int64) ([]*model.SwapRequest, error)
	ListOutgoingRequests(ctx context.Context, userID int64) ([]*model.SwapRequest, error)
	CountPendingCreatedBefore(ctx context.Context, before time.Time) (int, error)
}

// Tx - одна транзакция хранилища. Rollback после Commit ничего не делает.
type Tx interface {
	// GetSlots возвращает слоты в порядке ids и блокирует их до конца транзакции.
	// Если хотя бы одного нет - ErrNotFound.
	GetSlots(ctx context.Context, ids ...uuid.UUID) ([]*model.Slot, error)
	GetSwapRequest(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)

	// Put* вставляет сущность при Version == 0, иначе обновляет при совпадении версии.
	// Version увеличивается на месте.
	PutSlot(ctx context.Context, slot *model.Slot) error
	PutSwapRequest(ctx context.Context, req *model.SwapRequest) error
	DeleteSlot(ctx context.Context, slot *model.Slot) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
