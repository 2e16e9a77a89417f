package state

import (
	"time"

	"github.com/google/uuid"
)

// UserState текущий шаг диалога пользователя
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	// Ввод параметров нового слота после /newslot без аргументов
	StateNewSlotInput UserState = "new_slot_input"

	// Выбран чужой слот на рынке, ждём выбора своего слота для обмена
	StateProposeSelectOffer UserState = "propose_select_offer"

	// Выбран свой слот для изменения, ждём новые время и/или название
	StateEditSlotInput UserState = "edit_slot_input"
)

// Ключи временных данных
const (
	KeyTargetSlotID = "target_slot_id"
	KeyEditSlotID   = "edit_slot_id"
)

// UserData хранит временные данные пользователя во время диалога.
// Это только состояние интерфейса: владельцы и статусы слотов живут в БД.
type UserData struct {
	State     UserState
	Data      map[string]interface{}
	UpdatedAt time.Time
}

// TargetSlotID возвращает выбранный на рынке слот
func (d *UserData) TargetSlotID() (uuid.UUID, bool) {
	return d.slotID(KeyTargetSlotID)
}

// EditSlotID возвращает редактируемый слот
func (d *UserData) EditSlotID() (uuid.UUID, bool) {
	return d.slotID(KeyEditSlotID)
}

func (d *UserData) slotID(key string) (uuid.UUID, bool) {
	v, ok := d.Data[key]
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
