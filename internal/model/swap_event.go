package model

import (
	"time"

	"github.com/google/uuid"
)

type SwapEventKind string

const (
	SwapEventIncoming SwapEventKind = "swap:incoming"
	SwapEventAccepted SwapEventKind = "swap:accepted"
	SwapEventRejected SwapEventKind = "swap:rejected"
)

// SwapEvent - уведомление о жизненном цикле обмена
type SwapEvent struct {
	Kind            SwapEventKind `json:"kind"`
	RequestID       uuid.UUID     `json:"request_id"`
	InitiatorID     int64         `json:"initiator_id"`
	CounterpartID   int64         `json:"counterpart_id"`
	OfferedSlotID   uuid.UUID     `json:"offered_slot_id"`
	RequestedSlotID uuid.UUID     `json:"requested_slot_id"`
	Status          SwapStatus    `json:"status"`
	OccurredAt      time.Time     `json:"occurred_at"`
}

// NewSwapEvent собирает событие из запроса
func NewSwapEvent(kind SwapEventKind, r *SwapRequest, at time.Time) SwapEvent {
	return SwapEvent{
		Kind:            kind,
		RequestID:       r.ID,
		InitiatorID:     r.InitiatorID,
		CounterpartID:   r.CounterpartID,
		OfferedSlotID:   r.OfferedSlotID,
		RequestedSlotID: r.RequestedSlotID,
		Status:          r.Status,
		OccurredAt:      at,
	}
}
