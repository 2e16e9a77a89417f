package model

import (
	"time"

	"github.com/google/uuid"
)

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// Terminal сообщает что из статуса больше нет переходов
func (s SwapStatus) Terminal() bool {
	return s == SwapStatusAccepted || s == SwapStatusRejected
}

// SwapRequest - предложение обменять OfferedSlotID (слот инициатора)
// на RequestedSlotID (слот контрагента)
type SwapRequest struct {
	ID              uuid.UUID  `json:"id"`
	InitiatorID     int64      `json:"initiator_id"`
	CounterpartID   int64      `json:"counterpart_id"`
	OfferedSlotID   uuid.UUID  `json:"offered_slot_id"`
	RequestedSlotID uuid.UUID  `json:"requested_slot_id"`
	Status          SwapStatus `json:"status"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	OfferedSlot   *Slot `json:"offered_slot,omitempty"`
	RequestedSlot *Slot `json:"requested_slot,omitempty"`
}

// Clone возвращает копию без подгруженных слотов
func (r *SwapRequest) Clone() *SwapRequest {
	c := *r
	c.OfferedSlot = nil
	c.RequestedSlot = nil
	return &c
}

// Involves проверяет что пользователь участвует в обмене
func (r *SwapRequest) Involves(userID int64) bool {
	return r.InitiatorID == userID || r.CounterpartID == userID
}
