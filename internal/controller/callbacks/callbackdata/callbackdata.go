// Package callbackdata описывает формат callback data inline кнопок.
// Telegram ограничивает callback data 64 байтами, поэтому в кнопку
// помещается только один UUID.
package callbackdata

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	Noop = "noop"

	ToggleSwappable = "toggle_swappable:" // toggle_swappable:<slot_id>
	DeleteSlot      = "delete_slot:"      // delete_slot:<slot_id>
	ConfirmDelete   = "confirm_delete:"   // confirm_delete:<slot_id>
	EditSlot        = "edit_slot:"        // edit_slot:<slot_id>, новые значения приходят текстом

	PickTarget = "pick_target:" // pick_target:<slot_id>, целевой слот запоминается в state
	Offer      = "offer:"       // offer:<slot_id>

	SwapAccept  = "swap_accept:"  // swap_accept:<request_id>
	SwapReject  = "swap_reject:"  // swap_reject:<request_id>
	SwapDetails = "swap_details:" // swap_details:<request_id>

	WeekPage = "week:" // week:<offset>, смещение в неделях от текущей
)

var ErrInvalidFormat = errors.New("invalid callback format")

// Build собирает callback data из префикса и id
func Build(prefix string, id uuid.UUID) string {
	return prefix + id.String()
}

// ParseID извлекает UUID после префикса.
// Например: "swap_accept:0b6f..." -> 0b6f...
func ParseID(data, prefix string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(data, prefix)
	if !ok || raw == "" {
		return uuid.Nil, ErrInvalidFormat
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidFormat
	}
	return id, nil
}
