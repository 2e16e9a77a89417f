package state

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StateLifecycle(t *testing.T) {
	sm := NewManager()

	assert.Equal(t, StateNone, sm.GetState(1))

	sm.SetState(1, StateNewSlotInput)
	assert.Equal(t, StateNewSlotInput, sm.GetState(1))

	sm.SetData(1, "k", 42)
	v, ok := sm.GetData(1, "k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	sm.SetState(1, StateNone)
	assert.Equal(t, StateNone, sm.GetState(1))
	_, ok = sm.GetData(1, "k")
	assert.False(t, ok)
}

func TestManager_ProposeTarget(t *testing.T) {
	sm := NewManager()
	target := uuid.New()

	_, ok := sm.ProposeTarget(7)
	assert.False(t, ok)

	sm.StartPropose(7, target)
	got, ok := sm.ProposeTarget(7)
	require.True(t, ok)
	assert.Equal(t, target, got)

	// Другой диалог сбрасывает выбор
	sm.SetState(7, StateNewSlotInput)
	_, ok = sm.ProposeTarget(7)
	assert.False(t, ok)

	sm.ClearState(7)
	assert.Equal(t, StateNone, sm.GetState(7))
}

func TestManager_EditTarget(t *testing.T) {
	sm := NewManager()
	slotID := uuid.New()

	sm.StartPropose(7, uuid.New())
	sm.StartEdit(7, slotID)

	got, ok := sm.EditTarget(7)
	require.True(t, ok)
	assert.Equal(t, slotID, got)

	// Выбор на рынке не переживает переход к редактированию
	_, ok = sm.ProposeTarget(7)
	assert.False(t, ok)
	_, ok = sm.GetData(7, KeyTargetSlotID)
	assert.False(t, ok)

	_, ok = sm.EditTarget(8)
	assert.False(t, ok)

	sm.ClearState(7)
	_, ok = sm.EditTarget(7)
	assert.False(t, ok)
}

func TestManager_Cleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sm := NewManager()
	sm.now = func() time.Time { return now }

	sm.SetState(1, StateNewSlotInput)
	now = now.Add(2 * time.Hour)
	sm.SetState(2, StateNewSlotInput)

	removed := sm.Cleanup(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, StateNone, sm.GetState(1))
	assert.Equal(t, StateNewSlotInput, sm.GetState(2))
}
