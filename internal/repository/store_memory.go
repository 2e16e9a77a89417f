package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/google/uuid"
)

var errTxDone = errors.New("transaction already finished")

// MemoryStore - реализация Store в памяти с оптимистичными блокировками.
// Используется в тестах и для локальной разработки без БД.
//
// Каждая запись внутри транзакции запоминает версию, которую видела.
// Commit проверяет, что версии не изменились, и применяет всё разом.
type MemoryStore struct {
	mu       sync.RWMutex
	slots    map[uuid.UUID]*model.Slot
	requests map[uuid.UUID]*model.SwapRequest
	now      func() time.Time
}

// NewMemoryStore создаёт пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots:    make(map[uuid.UUID]*model.Slot),
		requests: make(map[uuid.UUID]*model.SwapRequest),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type slotWrite struct {
	slot     *model.Slot
	expected int64
	deleted  bool
}

type requestWrite struct {
	req      *model.SwapRequest
	expected int64
}

type memTx struct {
	store    *MemoryStore
	slots    map[uuid.UUID]slotWrite
	requests map[uuid.UUID]requestWrite
	done     bool
}

// Begin открывает транзакцию
func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{
		store:    s,
		slots:    make(map[uuid.UUID]slotWrite),
		requests: make(map[uuid.UUID]requestWrite),
	}, nil
}

func (t *memTx) GetSlots(ctx context.Context, ids ...uuid.UUID) ([]*model.Slot, error) {
	if t.done {
		return nil, errTxDone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	out := make([]*model.Slot, 0, len(ids))
	for _, id := range ids {
		if w, ok := t.slots[id]; ok {
			if w.deleted {
				return nil, ErrNotFound
			}
			out = append(out, w.slot.Clone())
			continue
		}
		slot, ok := t.store.slots[id]
		if !ok {
			return nil, ErrNotFound
		}
		out = append(out, slot.Clone())
	}
	return out, nil
}

func (t *memTx) GetSwapRequest(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	if t.done {
		return nil, errTxDone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if w, ok := t.requests[id]; ok {
		return w.req.Clone(), nil
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	req, ok := t.store.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return req.Clone(), nil
}

func (t *memTx) PutSlot(ctx context.Context, slot *model.Slot) error {
	if t.done {
		return errTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	expected := slot.Version
	if w, ok := t.slots[slot.ID]; ok {
		if w.deleted || w.slot.Version != slot.Version {
			return ErrConflict
		}
		expected = w.expected
	}

	now := t.store.now()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	slot.Version++

	t.slots[slot.ID] = slotWrite{slot: slot.Clone(), expected: expected}
	return nil
}

func (t *memTx) DeleteSlot(ctx context.Context, slot *model.Slot) error {
	if t.done {
		return errTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if slot.Version == 0 {
		return ErrNotFound
	}

	expected := slot.Version
	if w, ok := t.slots[slot.ID]; ok {
		if w.deleted || w.slot.Version != slot.Version {
			return ErrConflict
		}
		expected = w.expected
	}

	t.slots[slot.ID] = slotWrite{slot: slot.Clone(), expected: expected, deleted: true}
	return nil
}

func (t *memTx) PutSwapRequest(ctx context.Context, req *model.SwapRequest) error {
	if t.done {
		return errTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	expected := req.Version
	if w, ok := t.requests[req.ID]; ok {
		if w.req.Version != req.Version {
			return ErrConflict
		}
		expected = w.expected
	}

	now := t.store.now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	req.Version++

	t.requests[req.ID] = requestWrite{req: req.Clone(), expected: expected}
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true

	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range t.slots {
		var current int64
		cur, ok := s.slots[id]
		if ok {
			current = cur.Version
		}
		if !versionMatches(ok, current, w.expected) {
			return ErrConflict
		}
	}
	for id, w := range t.requests {
		var current int64
		cur, ok := s.requests[id]
		if ok {
			current = cur.Version
		}
		if !versionMatches(ok, current, w.expected) {
			return ErrConflict
		}
	}

	for id, w := range t.slots {
		if w.deleted {
			delete(s.slots, id)
			continue
		}
		s.slots[id] = w.slot
	}
	for id, w := range t.requests {
		s.requests[id] = w.req
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

// versionMatches: вставка требует отсутствия сущности, обновление - той же версии
func versionMatches(exists bool, current, expected int64) bool {
	if expected == 0 {
		return !exists
	}
	return exists && current == expected
}

// GetSlotsByIDs пропускает отсутствующие id
func (s *MemoryStore) GetSlotsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Slot, error) {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.filterSlots(ctx, func(slot *model.Slot) bool {
		_, ok := want[slot.ID]
		return ok
	})
}

func (s *MemoryStore) GetSwapRequestByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return req.Clone(), nil
}

func (s *MemoryStore) ListSlotsByOwner(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	return s.filterSlots(ctx, func(slot *model.Slot) bool {
		return slot.OwnerID == ownerID
	})
}

func (s *MemoryStore) ListSwappableSlots(ctx context.Context, excludeOwnerID int64) ([]*model.Slot, error) {
	return s.filterSlots(ctx, func(slot *model.Slot) bool {
		return slot.Status == model.SlotStatusSwappable && slot.OwnerID != excludeOwnerID
	})
}

func (s *MemoryStore) ListIncomingRequests(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	return s.filterRequests(ctx, func(r *model.SwapRequest) bool {
		return r.CounterpartID == userID && r.Status == model.SwapStatusPending
	})
}

func (s *MemoryStore) ListOutgoingRequests(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	return s.filterRequests(ctx, func(r *model.SwapRequest) bool {
		return r.InitiatorID == userID
	})
}

func (s *MemoryStore) CountPendingCreatedBefore(ctx context.Context, before time.Time) (int, error) {
	reqs, err := s.filterRequests(ctx, func(r *model.SwapRequest) bool {
		return r.Status == model.SwapStatusPending && r.CreatedAt.Before(before)
	})
	if err != nil {
		return 0, err
	}
	return len(reqs), nil
}

func (s *MemoryStore) filterSlots(ctx context.Context, keep func(*model.Slot) bool) ([]*model.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []*model.Slot
	for _, slot := range s.slots {
		if keep(slot) {
			out = append(out, slot.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (s *MemoryStore) filterRequests(ctx context.Context, keep func(*model.SwapRequest) bool) ([]*model.SwapRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []*model.SwapRequest
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()

	// Новые сверху
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
