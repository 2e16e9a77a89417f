package common

import (
	"testing"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlot(status model.SlotStatus, title string) *model.Slot {
	start := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)
	return &model.Slot{
		ID:        uuid.New(),
		OwnerID:   1,
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
	}
}

func TestBuildMySlotsScreen(t *testing.T) {
	busy := testSlot(model.SlotStatusBusy, "Ретро")
	open := testSlot(model.SlotStatusSwappable, "Ревью <кода>")
	pending := testSlot(model.SlotStatusSwapPending, "Демо")

	text, kb := BuildMySlotsScreen([]*model.Slot{busy, open, pending}, time.UTC)

	assert.Contains(t, text, "3 слота")
	assert.Contains(t, text, "Ревью &lt;кода&gt;")
	assert.Contains(t, text, "16.03.2026 10:00-11:00")

	// Слот в ожидании ответа без кнопок
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, callbackdata.Build(callbackdata.ToggleSwappable, busy.ID), kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, callbackdata.Build(callbackdata.EditSlot, busy.ID), kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, callbackdata.Build(callbackdata.DeleteSlot, open.ID), kb.InlineKeyboard[1][2].CallbackData)
}

func TestBuildEditSlotsScreen(t *testing.T) {
	busy := testSlot(model.SlotStatusBusy, "Ретро")
	pending := testSlot(model.SlotStatusSwapPending, "Демо")

	text, kb := BuildEditSlotsScreen([]*model.Slot{pending, busy}, time.UTC)

	assert.Contains(t, text, "Ретро")
	assert.NotContains(t, text, "Демо")
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, callbackdata.Build(callbackdata.EditSlot, busy.ID), kb.InlineKeyboard[0][0].CallbackData)

	text, kb = BuildEditSlotsScreen([]*model.Slot{pending}, time.UTC)
	assert.Contains(t, text, "/newslot")
	assert.Nil(t, kb)
}

func TestBuildMySlotsScreen_Empty(t *testing.T) {
	text, kb := BuildMySlotsScreen(nil, time.UTC)
	assert.Contains(t, text, "/newslot")
	assert.Nil(t, kb)
}

func TestBuildMarketScreen(t *testing.T) {
	slot := testSlot(model.SlotStatusSwappable, "Стендап")
	slot.OwnerID = 5

	text, kb := BuildMarketScreen([]*model.Slot{slot}, map[int64]string{5: "@alex"}, time.UTC)

	assert.Contains(t, text, "@alex")
	require.NotNil(t, kb)
	assert.Equal(t, callbackdata.Build(callbackdata.PickTarget, slot.ID), kb.InlineKeyboard[0][0].CallbackData)
}

func TestBuildOfferScreen_NoOwnSlots(t *testing.T) {
	text, kb := BuildOfferScreen(testSlot(model.SlotStatusSwappable, "Стендап"), nil, time.UTC)
	assert.Contains(t, text, "/myslots")
	assert.Nil(t, kb)
}

func TestBuildRequestsScreen(t *testing.T) {
	in := &model.SwapRequest{
		ID:              uuid.New(),
		InitiatorID:     2,
		CounterpartID:   1,
		OfferedSlotID:   uuid.New(),
		RequestedSlotID: uuid.New(),
		Status:          model.SwapStatusPending,
	}
	out := &model.SwapRequest{
		ID:              uuid.New(),
		InitiatorID:     1,
		CounterpartID:   3,
		OfferedSlotID:   uuid.New(),
		RequestedSlotID: uuid.New(),
		Status:          model.SwapStatusRejected,
		OfferedSlot:     testSlot(model.SlotStatusSwappable, "Мой"),
	}

	text, kb := BuildRequestsScreen(&service.SwapRequests{
		Incoming: []*model.SwapRequest{in},
		Outgoing: []*model.SwapRequest{out},
	}, map[int64]string{2: "Мария"}, time.UTC)

	assert.Contains(t, text, "Мария предлагает")
	assert.Contains(t, text, "Отклонён")
	assert.Contains(t, text, "#"+in.OfferedSlotID.String()[:8])

	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, callbackdata.Build(callbackdata.SwapAccept, in.ID), kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, callbackdata.Build(callbackdata.SwapReject, in.ID), kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, callbackdata.Build(callbackdata.SwapDetails, in.ID), kb.InlineKeyboard[0][2].CallbackData)
	assert.Equal(t, callbackdata.Build(callbackdata.SwapDetails, out.ID), kb.InlineKeyboard[1][0].CallbackData)
}

func TestBuildRequestsScreen_ButtonLimit(t *testing.T) {
	var reqs service.SwapRequests
	for i := 0; i < 40; i++ {
		reqs.Incoming = append(reqs.Incoming, &model.SwapRequest{
			ID: uuid.New(), InitiatorID: 2, CounterpartID: 1,
			OfferedSlotID: uuid.New(), RequestedSlotID: uuid.New(), Status: model.SwapStatusPending,
		})
		reqs.Outgoing = append(reqs.Outgoing, &model.SwapRequest{
			ID: uuid.New(), InitiatorID: 1, CounterpartID: 3,
			OfferedSlotID: uuid.New(), RequestedSlotID: uuid.New(), Status: model.SwapStatusPending,
		})
	}

	_, kb := BuildRequestsScreen(&reqs, nil, time.UTC)
	require.NotNil(t, kb)

	total := 0
	for _, row := range kb.InlineKeyboard {
		total += len(row)
	}
	assert.LessOrEqual(t, total, maxButtons)
}

func TestBuildRequestDetailsScreen(t *testing.T) {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	req := &model.SwapRequest{
		ID:              uuid.New(),
		InitiatorID:     2,
		CounterpartID:   1,
		OfferedSlotID:   uuid.New(),
		RequestedSlotID: uuid.New(),
		Status:          model.SwapStatusPending,
		CreatedAt:       created,
		UpdatedAt:       created,
		RequestedSlot:   testSlot(model.SlotStatusSwapPending, "Ретро"),
	}
	names := map[int64]string{1: "Иван", 2: "Мария"}

	// Получатель может ответить
	text, kb := BuildRequestDetailsScreen(req, 1, names, time.UTC)
	assert.Contains(t, text, "Ожидает ответа")
	assert.Contains(t, text, "От: Мария")
	assert.Contains(t, text, "Кому: Иван")
	assert.Contains(t, text, "Ретро")
	assert.Contains(t, text, "#"+req.OfferedSlotID.String()[:8])
	assert.Contains(t, text, "10.03.2026 12:00")
	assert.NotContains(t, text, "Завершён")
	require.NotNil(t, kb)
	assert.Equal(t, callbackdata.Build(callbackdata.SwapAccept, req.ID), kb.InlineKeyboard[0][0].CallbackData)

	// Инициатор только смотрит
	_, kb = BuildRequestDetailsScreen(req, 2, names, time.UTC)
	assert.Nil(t, kb)

	req.Status = model.SwapStatusAccepted
	req.UpdatedAt = created.Add(time.Hour)
	text, kb = BuildRequestDetailsScreen(req, 1, names, time.UTC)
	assert.Contains(t, text, "Принят")
	assert.Contains(t, text, "Завершён: 10.03.2026 13:00")
	assert.Nil(t, kb)
}
