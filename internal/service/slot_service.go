package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotService управляет слотами владельца. Статус SWAP_PENDING и поле owner
// он никогда не выставляет: это делает только SwapService.
type SlotService struct {
	store  repository.Store
	tx     *txRunner
	logger *zap.Logger
}

func NewSlotService(store repository.Store, m *metrics.Metrics, txOpts TxOptions, logger *zap.Logger) *SlotService {
	return &SlotService{
		store:  store,
		tx:     newTxRunner(store, txOpts, m, logger),
		logger: logger,
	}
}

// SlotUpdate - разрешённые для редактирования поля. nil - оставить как есть.
type SlotUpdate struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *model.SlotStatus // только BUSY или SWAPPABLE
}

// CreateSlot создаёт слот. Пустой статус означает BUSY.
func (s *SlotService) CreateSlot(ctx context.Context, ownerID int64, title string, start, end time.Time, status model.SlotStatus) (*model.Slot, error) {
	if status == "" {
		status = model.SlotStatusBusy
	}

	slot := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	err := s.tx.run(ctx, "create_slot", func(ctx context.Context, tx repository.Tx) error {
		slot.Version = 0
		return tx.PutSlot(ctx, slot)
	})
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot created",
		zap.Stringer("slot_id", slot.ID),
		zap.Int64("owner_id", ownerID),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// UpdateSlot применяет изменения из белого списка полей.
// Слот в SWAP_PENDING редактировать нельзя.
func (s *SlotService) UpdateSlot(ctx context.Context, ownerID int64, slotID uuid.UUID, upd SlotUpdate) (*model.Slot, error) {
	if slotID == uuid.Nil {
		return nil, ErrInvalidID
	}

	var slot *model.Slot
	err := s.tx.run(ctx, "update_slot", func(ctx context.Context, tx repository.Tx) error {
		var err error
		slot, err = s.lockOwned(ctx, tx, ownerID, slotID)
		if err != nil {
			return err
		}

		if upd.Title != nil {
			slot.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.StartTime != nil {
			slot.StartTime = *upd.StartTime
		}
		if upd.EndTime != nil {
			slot.EndTime = *upd.EndTime
		}
		if upd.Status != nil {
			slot.Status = *upd.Status
		}
		if err := validateSlot(slot); err != nil {
			return err
		}

		return tx.PutSlot(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated",
		zap.Stringer("slot_id", slot.ID),
		zap.Int64("owner_id", ownerID),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// SetSwappable выставляет на обмен или снимает с обмена (SWAPPABLE <-> BUSY)
func (s *SlotService) SetSwappable(ctx context.Context, ownerID int64, slotID uuid.UUID, swappable bool) (*model.Slot, error) {
	status := model.SlotStatusBusy
	if swappable {
		status = model.SlotStatusSwappable
	}
	return s.UpdateSlot(ctx, ownerID, slotID, SlotUpdate{Status: &status})
}

// DeleteSlot удаляет слот, если он не участвует в обмене
func (s *SlotService) DeleteSlot(ctx context.Context, ownerID int64, slotID uuid.UUID) error {
	if slotID == uuid.Nil {
		return ErrInvalidID
	}

	err := s.tx.run(ctx, "delete_slot", func(ctx context.Context, tx repository.Tx) error {
		slot, err := s.lockOwned(ctx, tx, ownerID, slotID)
		if err != nil {
			return err
		}
		return tx.DeleteSlot(ctx, slot)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.Stringer("slot_id", slotID),
		zap.Int64("owner_id", ownerID),
	)

	return nil
}

// GetSlot возвращает слот владельцу
func (s *SlotService) GetSlot(ctx context.Context, ownerID int64, slotID uuid.UUID) (*model.Slot, error) {
	slots, err := s.store.GetSlotsByIDs(ctx, []uuid.UUID{slotID})
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if len(slots) == 0 {
		return nil, ErrSlotNotFound
	}
	if slots[0].OwnerID != ownerID {
		return nil, ErrNotSlotOwner
	}
	return slots[0], nil
}

// ListMySlots получает все слоты пользователя
func (s *SlotService) ListMySlots(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	return s.store.ListSlotsByOwner(ctx, ownerID)
}

// ListMarket получает чужие слоты, открытые для обмена
func (s *SlotService) ListMarket(ctx context.Context, viewerID int64) ([]*model.Slot, error) {
	return s.store.ListSwappableSlots(ctx, viewerID)
}

// ListMySwappable получает свои слоты, которые можно предложить в обмен
func (s *SlotService) ListMySwappable(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	slots, err := s.store.ListSlotsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := slots[:0]
	for _, slot := range slots {
		if slot.Status == model.SlotStatusSwappable {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *SlotService) lockOwned(ctx context.Context, tx repository.Tx, ownerID int64, slotID uuid.UUID) (*model.Slot, error) {
	slots, err := tx.GetSlots(ctx, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}

	slot := slots[0]
	if slot.OwnerID != ownerID {
		return nil, ErrNotSlotOwner
	}
	if slot.Status == model.SlotStatusSwapPending {
		return nil, ErrSlotLocked
	}
	return slot, nil
}

func validateSlot(slot *model.Slot) error {
	if slot.Title == "" {
		return ErrEmptyTitle
	}
	if !slot.StartTime.Before(slot.EndTime) {
		return ErrInvalidTimeRange
	}
	if slot.Status != model.SlotStatusBusy && slot.Status != model.SlotStatusSwappable {
		return ErrInvalidStatus
	}
	return nil
}
