package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SwapService - координатор обменов. Единственный компонент, который меняет
// владельца слота и переводит слоты в SWAP_PENDING и обратно.
// Состояния не хранит: все инварианты держатся на транзакциях Store.
type SwapService struct {
	store    repository.Store
	tx       *txRunner
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewSwapService(
	store repository.Store,
	notifier Notifier,
	m *metrics.Metrics,
	txOpts TxOptions,
	logger *zap.Logger,
) *SwapService {
	return &SwapService{
		store:    store,
		tx:       newTxRunner(store, txOpts, m, logger),
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SwapRequests входящие и исходящие запросы пользователя
type SwapRequests struct {
	Incoming []*model.SwapRequest
	Outgoing []*model.SwapRequest
}

// ProposeSwap предлагает обменять свой слот offeredSlotID на чужой requestedSlotID.
// Оба слота переходят в SWAP_PENDING в той же транзакции, что создаёт запрос,
// поэтому второй конкурирующий запрос на любой из слотов получит ErrSlotNotSwappable.
func (s *SwapService) ProposeSwap(ctx context.Context, initiatorID int64, offeredSlotID, requestedSlotID uuid.UUID) (*model.SwapRequest, error) {
	if offeredSlotID == uuid.Nil || requestedSlotID == uuid.Nil {
		return nil, ErrInvalidID
	}
	if offeredSlotID == requestedSlotID {
		return nil, ErrSameSlot
	}

	var req *model.SwapRequest
	err := s.tx.run(ctx, "propose", func(ctx context.Context, tx repository.Tx) error {
		slots, err := tx.GetSlots(ctx, offeredSlotID, requestedSlotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("get slots: %w", err)
		}
		offered, requested := slots[0], slots[1]

		if offered.OwnerID != initiatorID {
			return ErrNotSlotOwner
		}
		if requested.OwnerID == initiatorID {
			return ErrOwnSlotRequested
		}
		if offered.Status != model.SlotStatusSwappable || requested.Status != model.SlotStatusSwappable {
			return ErrSlotNotSwappable
		}

		req = &model.SwapRequest{
			ID:              uuid.New(),
			InitiatorID:     initiatorID,
			CounterpartID:   requested.OwnerID,
			OfferedSlotID:   offered.ID,
			RequestedSlotID: requested.ID,
			Status:          model.SwapStatusPending,
			CreatedAt:       s.now(),
		}
		if err := tx.PutSwapRequest(ctx, req); err != nil {
			return fmt.Errorf("create swap request: %w", err)
		}

		offered.Status = model.SlotStatusSwapPending
		requested.Status = model.SlotStatusSwapPending
		if err := tx.PutSlot(ctx, offered); err != nil {
			return fmt.Errorf("mark offered slot pending: %w", err)
		}
		if err := tx.PutSlot(ctx, requested); err != nil {
			return fmt.Errorf("mark requested slot pending: %w", err)
		}

		req.OfferedSlot = offered
		req.RequestedSlot = requested
		return nil
	})
	if err != nil {
		s.observeFailure("propose", err)
		return nil, err
	}

	s.metrics.SwapsProposed.Inc()
	s.logger.Info("Swap proposed",
		zap.Stringer("request_id", req.ID),
		zap.Int64("initiator_id", req.InitiatorID),
		zap.Int64("counterpart_id", req.CounterpartID),
		zap.Stringer("offered_slot_id", req.OfferedSlotID),
		zap.Stringer("requested_slot_id", req.RequestedSlotID),
	)

	s.publish(ctx, req.CounterpartID, model.NewSwapEvent(model.SwapEventIncoming, req, s.now()))

	return req, nil
}

// RespondSwap принимает или отклоняет запрос. Отвечать может только контрагент,
// и только пока запрос в PENDING: повторный ответ возвращает ErrSwapNotPending.
func (s *SwapService) RespondSwap(ctx context.Context, responderID int64, requestID uuid.UUID, accept bool) (*model.SwapRequest, error) {
	if requestID == uuid.Nil {
		return nil, ErrInvalidID
	}

	var req *model.SwapRequest
	err := s.tx.run(ctx, "respond", func(ctx context.Context, tx repository.Tx) error {
		var err error
		req, err = tx.GetSwapRequest(ctx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSwapRequestNotFound
			}
			return fmt.Errorf("get swap request: %w", err)
		}

		if req.CounterpartID != responderID {
			return ErrNotCounterpart
		}
		if req.Status != model.SwapStatusPending {
			return ErrSwapNotPending
		}

		slots, err := tx.GetSlots(ctx, req.OfferedSlotID, req.RequestedSlotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("get slots: %w", err)
		}
		offered, requested := slots[0], slots[1]

		if offered.Status != model.SlotStatusSwapPending || requested.Status != model.SlotStatusSwapPending {
			return ErrSlotStateChanged
		}

		if accept {
			offered.OwnerID, requested.OwnerID = requested.OwnerID, offered.OwnerID
			offered.Status = model.SlotStatusBusy
			requested.Status = model.SlotStatusBusy
			req.Status = model.SwapStatusAccepted
		} else {
			// Отклонённые слоты возвращаются на рынок, а не в BUSY
			offered.Status = model.SlotStatusSwappable
			requested.Status = model.SlotStatusSwappable
			req.Status = model.SwapStatusRejected
		}

		if err := tx.PutSlot(ctx, offered); err != nil {
			return fmt.Errorf("update offered slot: %w", err)
		}
		if err := tx.PutSlot(ctx, requested); err != nil {
			return fmt.Errorf("update requested slot: %w", err)
		}
		if err := tx.PutSwapRequest(ctx, req); err != nil {
			return fmt.Errorf("update swap request: %w", err)
		}

		req.OfferedSlot = offered
		req.RequestedSlot = requested
		return nil
	})
	if err != nil {
		s.observeFailure("respond", err)
		return nil, err
	}

	s.metrics.SwapsResolved.WithLabelValues(string(req.Status)).Inc()
	s.logger.Info("Swap resolved",
		zap.Stringer("request_id", req.ID),
		zap.Int64("responder_id", responderID),
		zap.String("status", string(req.Status)),
	)

	now := s.now()
	if req.Status == model.SwapStatusAccepted {
		event := model.NewSwapEvent(model.SwapEventAccepted, req, now)
		s.publish(ctx, req.InitiatorID, event)
		s.publish(ctx, req.CounterpartID, event)
	} else {
		s.publish(ctx, req.InitiatorID, model.NewSwapEvent(model.SwapEventRejected, req, now))
	}

	return req, nil
}

// ListRequests возвращает входящие PENDING запросы и все исходящие запросы пользователя
func (s *SwapService) ListRequests(ctx context.Context, userID int64) (*SwapRequests, error) {
	incoming, err := s.store.ListIncomingRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}

	outgoing, err := s.store.ListOutgoingRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}

	all := make([]*model.SwapRequest, 0, len(incoming)+len(outgoing))
	all = append(all, incoming...)
	all = append(all, outgoing...)
	if err := s.attachSlots(ctx, all); err != nil {
		return nil, err
	}

	return &SwapRequests{Incoming: incoming, Outgoing: outgoing}, nil
}

// GetRequest возвращает запрос участнику обмена
func (s *SwapService) GetRequest(ctx context.Context, userID int64, requestID uuid.UUID) (*model.SwapRequest, error) {
	if requestID == uuid.Nil {
		return nil, ErrInvalidID
	}

	req, err := s.store.GetSwapRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSwapRequestNotFound
		}
		return nil, fmt.Errorf("get swap request: %w", err)
	}

	if !req.Involves(userID) {
		return nil, ErrNotParticipant
	}

	if err := s.attachSlots(ctx, []*model.SwapRequest{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// RefreshStalePending считает PENDING запросы старше olderThan и обновляет метрику.
// Автоматического истечения нет: запросы только отслеживаются.
func (s *SwapService) RefreshStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	count, err := s.store.CountPendingCreatedBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("count stale requests: %w", err)
	}

	s.metrics.StalePending.Set(float64(count))
	return count, nil
}

func (s *SwapService) attachSlots(ctx context.Context, reqs []*model.SwapRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(reqs)*2)
	for _, r := range reqs {
		ids = append(ids, r.OfferedSlotID, r.RequestedSlotID)
	}

	slots, err := s.store.GetSlotsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("get request slots: %w", err)
	}

	byID := make(map[uuid.UUID]*model.Slot, len(slots))
	for _, slot := range slots {
		byID[slot.ID] = slot
	}
	for _, r := range reqs {
		r.OfferedSlot = byID[r.OfferedSlotID]
		r.RequestedSlot = byID[r.RequestedSlotID]
	}
	return nil
}

func (s *SwapService) observeFailure(op string, err error) {
	if errors.Is(err, ErrConflict) {
		s.metrics.SwapConflicts.WithLabelValues(op).Inc()
	}

	if errors.Is(err, ErrValidation) || errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		s.logger.Info("Swap operation rejected", zap.String("op", op), zap.Error(err))
		return
	}
	s.logger.Error("Swap operation failed", zap.String("op", op), zap.Error(err))
}

// publish вызывается только после коммита; сбой уведомления не влияет на результат
func (s *SwapService) publish(ctx context.Context, userID int64, event model.SwapEvent) {
	if s.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Notifier panicked",
				zap.Int64("user_id", userID),
				zap.String("kind", string(event.Kind)),
				zap.Any("panic", r),
			)
		}
	}()

	s.notifier.Publish(context.WithoutCancel(ctx), userID, event)
}
