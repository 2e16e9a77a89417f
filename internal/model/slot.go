package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusBusy        SlotStatus = "BUSY"         // Не участвует в обменах
	SlotStatusSwappable   SlotStatus = "SWAPPABLE"    // Открыт для предложений обмена
	SlotStatusSwapPending SlotStatus = "SWAP_PENDING" // Занят ровно одним незавершённым запросом
)

// Valid проверяет что статус известен
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusBusy, SlotStatusSwappable, SlotStatusSwapPending:
		return true
	}
	return false
}

type Slot struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   int64      `json:"owner_id"`
	Title     string     `json:"title"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status"`
	Version   int64      `json:"version"` // 0 - ещё не сохранён
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone возвращает независимую копию слота
func (s *Slot) Clone() *Slot {
	c := *s
	return &c
}
