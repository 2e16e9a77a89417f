package state

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager управляет состояниями диалогов в памяти процесса
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
	now    func() time.Time
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
		now:    time.Now,
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя. StateNone удаляет запись.
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	sm.entry(telegramID).State = state
}

// GetData получает временные данные пользователя
func (sm *Manager) GetData(telegramID int64, key string) (interface{}, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		value, ok := userData.Data[key]
		return value, ok
	}
	return nil, false
}

// SetData устанавливает временные данные пользователя
func (sm *Manager) SetData(telegramID int64, key string, value interface{}) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.entry(telegramID).Data[key] = value
}

// StartPropose запоминает целевой слот и переводит пользователя к выбору своего слота
func (sm *Manager) StartPropose(telegramID int64, targetSlotID uuid.UUID) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	d := sm.entry(telegramID)
	d.State = StateProposeSelectOffer
	d.Data[KeyTargetSlotID] = targetSlotID
}

// ProposeTarget возвращает целевой слот, если пользователь в диалоге обмена
func (sm *Manager) ProposeTarget(telegramID int64) (uuid.UUID, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	d, ok := sm.states[telegramID]
	if !ok || d.State != StateProposeSelectOffer {
		return uuid.Nil, false
	}
	return d.TargetSlotID()
}

// StartEdit запоминает редактируемый слот и ждёт ввода новых значений.
// Предыдущий диалог пользователя сбрасывается.
func (sm *Manager) StartEdit(telegramID int64, slotID uuid.UUID) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
	d := sm.entry(telegramID)
	d.State = StateEditSlotInput
	d.Data[KeyEditSlotID] = slotID
}

// EditTarget возвращает редактируемый слот, если пользователь в диалоге изменения
func (sm *Manager) EditTarget(telegramID int64) (uuid.UUID, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	d, ok := sm.states[telegramID]
	if !ok || d.State != StateEditSlotInput {
		return uuid.Nil, false
	}
	return d.EditSlotID()
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// Cleanup удаляет брошенные диалоги старше maxAge
func (sm *Manager) Cleanup(maxAge time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cutoff := sm.now().Add(-maxAge)
	removed := 0
	for id, d := range sm.states {
		if d.UpdatedAt.Before(cutoff) {
			delete(sm.states, id)
			removed++
		}
	}
	return removed
}

// entry возвращает запись пользователя, создавая её; вызывается под mu.Lock
func (sm *Manager) entry(telegramID int64) *UserData {
	d, exists := sm.states[telegramID]
	if !exists {
		d = &UserData{
			State: StateNone,
			Data:  make(map[string]interface{}),
		}
		sm.states[telegramID] = d
	}
	d.UpdatedAt = sm.now()
	return d
}
