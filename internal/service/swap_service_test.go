package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/repository"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
)

var testTxOptions = TxOptions{MaxRetries: 3, RetryBase: time.Millisecond}

type published struct {
	userID int64
	event  model.SwapEvent
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *recordingNotifier) Publish(_ context.Context, userID int64, event model.SwapEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{userID: userID, event: event})
}

func (n *recordingNotifier) all() []published {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]published(nil), n.events...)
}

type panicNotifier struct{}

func (panicNotifier) Publish(context.Context, int64, model.SwapEvent) {
	panic("transport exploded")
}

type swapFixture struct {
	store    *repository.MemoryStore
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	svc      *SwapService
}

func newSwapFixture(t *testing.T) *swapFixture {
	t.Helper()

	store := repository.NewMemoryStore()
	n := &recordingNotifier{}
	m := metrics.New(prometheus.NewRegistry())

	return &swapFixture{
		store:    store,
		notifier: n,
		metrics:  m,
		svc:      NewSwapService(store, n, m, testTxOptions, zap.NewNop()),
	}
}

func seedSlot(t *testing.T, store repository.Store, owner int64, status model.SlotStatus) *model.Slot {
	t.Helper()
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC).Add(time.Duration(owner) * time.Hour)
	slot := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     "Слот",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
	}

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.PutSlot(ctx, slot))
	require.NoError(t, tx.Commit(ctx))
	return slot
}

func loadSlot(t *testing.T, store repository.Store, id uuid.UUID) *model.Slot {
	t.Helper()

	slots, err := store.GetSlotsByIDs(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	return slots[0]
}

func TestSwapService_ProposeMarksBothSlotsPending(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	assert.Equal(t, model.SwapStatusPending, req.Status)
	assert.Equal(t, alice, req.InitiatorID)
	assert.Equal(t, bob, req.CounterpartID)
	assert.Equal(t, offered.ID, req.OfferedSlotID)
	assert.Equal(t, requested.ID, req.RequestedSlotID)

	assert.Equal(t, model.SlotStatusSwapPending, loadSlot(t, f.store, offered.ID).Status)
	assert.Equal(t, model.SlotStatusSwapPending, loadSlot(t, f.store, requested.ID).Status)

	stored, err := f.store.GetSwapRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusPending, stored.Status)

	events := f.notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, bob, events[0].userID)
	assert.Equal(t, model.SwapEventIncoming, events[0].event.Kind)
	assert.Equal(t, req.ID, events[0].event.RequestID)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SwapsProposed))
}

func TestSwapService_ProposeRejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, store repository.Store) (initiator int64, offered, requested uuid.UUID)
		wantErr error
		class   error
	}{
		{
			name: "same slot",
			prepare: func(t *testing.T, store repository.Store) (int64, uuid.UUID, uuid.UUID) {
				s := seedSlot(t, store, alice, model.SlotStatusSwappable)
				return alice, s.ID, s.ID
			},
			wantErr: ErrSameSlot,
			class:   ErrValidation,
		},
		{
			name: "nil id",
			prepare: func(t *testing.T, store repository.Store) (int64, uuid.UUID, uuid.UUID) {
				s := seedSlot(t, store, alice, model.SlotStatusSwappable)
				return alice, s.ID, uuid.Nil
			},
			wantErr: ErrInvalidID,
			class:   ErrValidation,
		},
		{
			name: "requested slot is own",
			prepare: func(t *testing.T, store repository.Store) (int64, uuid.UUID, uuid.UUID) {
				a := seedSlot(t, store, alice, model.SlotStatusSwappable)
				b := seedSlot(t, store, alice, model.SlotStatusSwappable)
				return alice, a.ID, b.ID
			},
			wantErr: ErrOwnSlotRequested,
			class:   ErrValidation,
		},
		{
			name: "offered slot not owned",
			prepare: func(t *testing.T, store repository.Store) (int64, uuid.UUID, uuid.UUID) {
				a := seedSlot(t, store, carol, model.SlotStatusSwappable)
				b := seedSlot(t, store, bob, model.SlotStatusSwappable)
				return alice, a.ID, b.ID
			},
			wantErr: ErrNotSlotOwner,
			class:   ErrForbidden,
		},
		{
			name: "missing slot",
			prepare: func(t *testing.T, store repository.Store) (int64, uuid.UUID, uuid.UUID) {
				a := seedSlot(t, store, alice, model.SlotStatusSwappable)
				return alice, a.ID, uuid.New()
			},
			wantErr: ErrSlotNotFound,
			class:   ErrNotFound,
		},
		{
			name: "requested slot busy",
			prepare: func(t *testing.T, store repository.Store) (int64, uuid.UUID, uuid.UUID) {
				a := seedSlot(t, store, alice, model.SlotStatusSwappable)
				b := seedSlot(t, store, bob, model.SlotStatusBusy)
				return alice, a.ID, b.ID
			},
			wantErr: ErrSlotNotSwappable,
			class:   ErrConflict,
		},
		{
			name: "offered slot already pending",
			prepare: func(t *testing.T, store repository.Store) (int64, uuid.UUID, uuid.UUID) {
				a := seedSlot(t, store, alice, model.SlotStatusSwapPending)
				b := seedSlot(t, store, bob, model.SlotStatusSwappable)
				return alice, a.ID, b.ID
			},
			wantErr: ErrSlotNotSwappable,
			class:   ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSwapFixture(t)
			initiator, offered, requested := tt.prepare(t, f.store)

			before, err := f.store.ListSlotsByOwner(context.Background(), initiator)
			require.NoError(t, err)

			req, err := f.svc.ProposeSwap(context.Background(), initiator, offered, requested)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.class)
			assert.Nil(t, req)

			after, err := f.store.ListSlotsByOwner(context.Background(), initiator)
			require.NoError(t, err)
			assert.Equal(t, before, after)

			outgoing, err := f.store.ListOutgoingRequests(context.Background(), initiator)
			require.NoError(t, err)
			assert.Empty(t, outgoing)
			assert.Empty(t, f.notifier.all())
		})
	}
}

func TestSwapService_AcceptSwapsOwners(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	resolved, err := f.svc.RespondSwap(ctx, bob, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusAccepted, resolved.Status)

	gotOffered := loadSlot(t, f.store, offered.ID)
	gotRequested := loadSlot(t, f.store, requested.ID)
	assert.Equal(t, bob, gotOffered.OwnerID)
	assert.Equal(t, alice, gotRequested.OwnerID)
	assert.Equal(t, model.SlotStatusBusy, gotOffered.Status)
	assert.Equal(t, model.SlotStatusBusy, gotRequested.Status)

	events := f.notifier.all()
	require.Len(t, events, 3)
	accepted := map[int64]bool{}
	for _, e := range events[1:] {
		assert.Equal(t, model.SwapEventAccepted, e.event.Kind)
		accepted[e.userID] = true
	}
	assert.True(t, accepted[alice])
	assert.True(t, accepted[bob])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SwapsResolved.WithLabelValues("ACCEPTED")))
}

func TestSwapService_RejectReturnsSlotsToMarket(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	resolved, err := f.svc.RespondSwap(ctx, bob, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusRejected, resolved.Status)

	gotOffered := loadSlot(t, f.store, offered.ID)
	gotRequested := loadSlot(t, f.store, requested.ID)
	assert.Equal(t, alice, gotOffered.OwnerID)
	assert.Equal(t, bob, gotRequested.OwnerID)
	assert.Equal(t, model.SlotStatusSwappable, gotOffered.Status)
	assert.Equal(t, model.SlotStatusSwappable, gotRequested.Status)

	events := f.notifier.all()
	require.Len(t, events, 2)
	assert.Equal(t, alice, events[1].userID)
	assert.Equal(t, model.SwapEventRejected, events[1].event.Kind)

	// Слоты снова можно предлагать
	_, err = f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	assert.NoError(t, err)
}

func TestSwapService_RespondRejections(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	_, err = f.svc.RespondSwap(ctx, bob, uuid.New(), true)
	assert.ErrorIs(t, err, ErrSwapRequestNotFound)

	_, err = f.svc.RespondSwap(ctx, bob, uuid.Nil, true)
	assert.ErrorIs(t, err, ErrInvalidID)

	// Инициатор не может ответить на свой запрос
	_, err = f.svc.RespondSwap(ctx, alice, req.ID, true)
	assert.ErrorIs(t, err, ErrNotCounterpart)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.RespondSwap(ctx, carol, req.ID, false)
	assert.ErrorIs(t, err, ErrNotCounterpart)

	assert.Equal(t, model.SlotStatusSwapPending, loadSlot(t, f.store, offered.ID).Status)
}

func TestSwapService_DuplicateRespondChangesNothing(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)
	_, err = f.svc.RespondSwap(ctx, bob, req.ID, true)
	require.NoError(t, err)

	before := loadSlot(t, f.store, offered.ID)

	_, err = f.svc.RespondSwap(ctx, bob, req.ID, false)
	require.ErrorIs(t, err, ErrSwapNotPending)
	assert.ErrorIs(t, err, ErrConflict)

	after := loadSlot(t, f.store, offered.ID)
	assert.Equal(t, before, after)

	stored, err := f.store.GetSwapRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusAccepted, stored.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SwapConflicts.WithLabelValues("respond")))
}

func TestSwapService_RespondRechecksSlotState(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	// Имитируем рассинхронизацию: слот вышел из SWAP_PENDING в обход координатора
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	slots, err := tx.GetSlots(ctx, requested.ID)
	require.NoError(t, err)
	slots[0].Status = model.SlotStatusBusy
	require.NoError(t, tx.PutSlot(ctx, slots[0]))
	require.NoError(t, tx.Commit(ctx))

	_, err = f.svc.RespondSwap(ctx, bob, req.ID, true)
	require.ErrorIs(t, err, ErrSlotStateChanged)

	assert.Equal(t, alice, loadSlot(t, f.store, offered.ID).OwnerID)
	stored, err := f.store.GetSwapRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusPending, stored.Status)
}

func TestSwapService_ConcurrentProposalsOnlyOneWins(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	const proposers = 16
	offered := make([]*model.Slot, proposers)
	for i := range offered {
		offered[i] = seedSlot(t, f.store, int64(100+i), model.SlotStatusSwappable)
	}

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, proposers)
	)
	for i := range offered {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.ProposeSwap(ctx, int64(100+i), offered[i].ID, requested.ID)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, wins)

	incoming, err := f.store.ListIncomingRequests(ctx, bob)
	require.NoError(t, err)
	require.Len(t, incoming, 1)

	// Только предложенный слот победителя заблокирован
	pending := 0
	for _, s := range offered {
		if loadSlot(t, f.store, s.ID).Status == model.SlotStatusSwapPending {
			pending++
			assert.Equal(t, incoming[0].OfferedSlotID, s.ID)
		}
	}
	assert.Equal(t, 1, pending)
}

func TestSwapService_ConcurrentResponsesResolveOnce(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	const responders = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, responders)
	)
	for i := 0; i < responders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.RespondSwap(ctx, bob, req.ID, i%2 == 0)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, wins)

	stored, err := f.store.GetSwapRequestByID(ctx, req.ID)
	require.NoError(t, err)
	require.True(t, stored.Status.Terminal())

	gotOffered := loadSlot(t, f.store, offered.ID)
	if stored.Status == model.SwapStatusAccepted {
		assert.Equal(t, bob, gotOffered.OwnerID)
		assert.Equal(t, model.SlotStatusBusy, gotOffered.Status)
	} else {
		assert.Equal(t, alice, gotOffered.OwnerID)
		assert.Equal(t, model.SlotStatusSwappable, gotOffered.Status)
	}
}

func TestSwapService_NotifierPanicDoesNotAffectOutcome(t *testing.T) {
	store := repository.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	svc := NewSwapService(store, panicNotifier{}, m, testTxOptions, zap.NewNop())
	ctx := context.Background()

	offered := seedSlot(t, store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, store, bob, model.SlotStatusSwappable)

	req, err := svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	resolved, err := svc.RespondSwap(ctx, bob, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusAccepted, resolved.Status)
	assert.Equal(t, bob, loadSlot(t, store, offered.ID).OwnerID)
}

// faultyStore подменяет результат Commit первых failures транзакций
type faultyStore struct {
	repository.Store

	mu       sync.Mutex
	failures int
	err      error
	commits  int
}

func (s *faultyStore) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, store: s}, nil
}

type faultyTx struct {
	repository.Tx
	store *faultyStore
}

func (t *faultyTx) Commit(ctx context.Context) error {
	s := t.store
	s.mu.Lock()
	s.commits++
	fail := s.failures != 0
	if s.failures > 0 {
		s.failures--
	}
	s.mu.Unlock()

	if fail {
		t.Tx.Rollback(ctx)
		return s.err
	}
	return t.Tx.Commit(ctx)
}

func TestSwapService_CommitFailureLeavesNoPartialEffects(t *testing.T) {
	mem := repository.NewMemoryStore()
	offered := seedSlot(t, mem, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, mem, bob, model.SlotStatusSwappable)

	store := &faultyStore{Store: mem, failures: 1, err: errors.New("connection reset")}
	n := &recordingNotifier{}
	svc := NewSwapService(store, n, metrics.New(prometheus.NewRegistry()), testTxOptions, zap.NewNop())

	_, err := svc.ProposeSwap(context.Background(), alice, offered.ID, requested.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, store.commits)

	assert.Equal(t, model.SlotStatusSwappable, loadSlot(t, mem, offered.ID).Status)
	assert.Equal(t, model.SlotStatusSwappable, loadSlot(t, mem, requested.ID).Status)
	outgoing, err := mem.ListOutgoingRequests(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, outgoing)
	assert.Empty(t, n.all())
}

func TestSwapService_RetriesStoreConflict(t *testing.T) {
	mem := repository.NewMemoryStore()
	offered := seedSlot(t, mem, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, mem, bob, model.SlotStatusSwappable)

	store := &faultyStore{Store: mem, failures: 1, err: repository.ErrConflict}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewSwapService(store, &recordingNotifier{}, m, testTxOptions, zap.NewNop())

	req, err := svc.ProposeSwap(context.Background(), alice, offered.ID, requested.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusPending, req.Status)
	assert.Equal(t, 2, store.commits)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRetries.WithLabelValues("propose")))
}

func TestSwapService_ExhaustedRetriesReportConcurrentUpdate(t *testing.T) {
	mem := repository.NewMemoryStore()
	offered := seedSlot(t, mem, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, mem, bob, model.SlotStatusSwappable)

	store := &faultyStore{Store: mem, failures: -1, err: repository.ErrConflict}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewSwapService(store, &recordingNotifier{}, m, testTxOptions, zap.NewNop())

	_, err := svc.ProposeSwap(context.Background(), alice, offered.ID, requested.ID)
	require.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int(testTxOptions.MaxRetries)+1, store.commits)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SwapConflicts.WithLabelValues("propose")))
	assert.Equal(t, model.SlotStatusSwappable, loadSlot(t, mem, offered.ID).Status)
}

func TestSwapService_ListRequests(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()

	a1 := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	a2 := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	b1 := seedSlot(t, f.store, bob, model.SlotStatusSwappable)
	c1 := seedSlot(t, f.store, carol, model.SlotStatusSwappable)

	toBob, err := f.svc.ProposeSwap(ctx, alice, a1.ID, b1.ID)
	require.NoError(t, err)
	toCarol, err := f.svc.ProposeSwap(ctx, alice, a2.ID, c1.ID)
	require.NoError(t, err)
	_, err = f.svc.RespondSwap(ctx, carol, toCarol.ID, false)
	require.NoError(t, err)

	mine, err := f.svc.ListRequests(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, mine.Incoming)
	require.Len(t, mine.Outgoing, 2)
	for _, r := range mine.Outgoing {
		assert.NotNil(t, r.OfferedSlot)
		assert.NotNil(t, r.RequestedSlot)
	}

	bobs, err := f.svc.ListRequests(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobs.Incoming, 1)
	assert.Equal(t, toBob.ID, bobs.Incoming[0].ID)
	assert.Equal(t, a1.ID, bobs.Incoming[0].OfferedSlot.ID)

	// Отклонённый запрос не входящий
	carols, err := f.svc.ListRequests(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, carols.Incoming)
}

func TestSwapService_GetRequestParticipantsOnly(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	for _, user := range []int64{alice, bob} {
		got, err := f.svc.GetRequest(ctx, user, req.ID)
		require.NoError(t, err)
		assert.Equal(t, req.ID, got.ID)
		assert.Equal(t, requested.ID, got.RequestedSlot.ID)
	}

	_, err = f.svc.GetRequest(ctx, carol, req.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.GetRequest(ctx, alice, uuid.New())
	assert.ErrorIs(t, err, ErrSwapRequestNotFound)
}

func TestSwapService_RefreshStalePending(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return created }
	_, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return created.Add(24 * time.Hour) }
	count, err := f.svc.RefreshStalePending(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	f.svc.now = func() time.Time { return created.Add(96 * time.Hour) }
	count, err = f.svc.RefreshStalePending(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StalePending))

	// Отслеживание ничего не меняет
	assert.Equal(t, model.SlotStatusSwapPending, loadSlot(t, f.store, offered.ID).Status)
}

func TestSwapService_DeletedSlotKeepsHistory(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	slots := NewSlotService(f.store, f.metrics, testTxOptions, zap.NewNop())
	offered := seedSlot(t, f.store, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, f.store, bob, model.SlotStatusSwappable)

	req, err := f.svc.ProposeSwap(ctx, alice, offered.ID, requested.ID)
	require.NoError(t, err)
	_, err = f.svc.RespondSwap(ctx, bob, req.ID, true)
	require.NoError(t, err)

	// После обмена offered принадлежит bob
	require.NoError(t, slots.DeleteSlot(ctx, bob, offered.ID))

	got, err := f.svc.GetRequest(ctx, alice, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusAccepted, got.Status)
	assert.Nil(t, got.OfferedSlot)
	require.NotNil(t, got.RequestedSlot)
	assert.Equal(t, requested.ID, got.RequestedSlot.ID)

	list, err := f.svc.ListRequests(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list.Outgoing, 1)
	assert.Equal(t, req.ID, list.Outgoing[0].ID)
}

func TestSwapService_ZeroMaxRetriesMakesSingleAttempt(t *testing.T) {
	mem := repository.NewMemoryStore()
	offered := seedSlot(t, mem, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, mem, bob, model.SlotStatusSwappable)

	store := &faultyStore{Store: mem, failures: -1, err: repository.ErrConflict}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewSwapService(store, &recordingNotifier{}, m, TxOptions{MaxRetries: 0}, zap.NewNop())

	_, err := svc.ProposeSwap(context.Background(), alice, offered.ID, requested.ID)
	require.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.Equal(t, 1, store.commits)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TxRetries.WithLabelValues("propose")))
}

func TestSwapService_PreconditionConflictIsNotRetried(t *testing.T) {
	mem := repository.NewMemoryStore()
	offered := seedSlot(t, mem, alice, model.SlotStatusSwappable)
	requested := seedSlot(t, mem, bob, model.SlotStatusBusy)

	store := &faultyStore{Store: mem}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewSwapService(store, &recordingNotifier{}, m, testTxOptions, zap.NewNop())

	_, err := svc.ProposeSwap(context.Background(), alice, offered.ID, requested.ID)
	require.ErrorIs(t, err, ErrSlotNotSwappable)
	assert.NotErrorIs(t, err, ErrConcurrentUpdate)
	assert.Equal(t, 0, store.commits)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TxRetries.WithLabelValues("propose")))
}
