package formatting

import "github.com/Freeeeeet/slotswap_bot/internal/model"

// StatusDisplay emoji и текст статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetSlotStatusDisplay возвращает emoji и текст для статуса слота
func GetSlotStatusDisplay(status model.SlotStatus) StatusDisplay {
	displays := map[model.SlotStatus]StatusDisplay{
		model.SlotStatusBusy:        {"🔒", "Занят"},
		model.SlotStatusSwappable:   {"🔁", "Открыт для обмена"},
		model.SlotStatusSwapPending: {"⏳", "Ожидает ответа"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return StatusDisplay{"❓", "Неизвестно"}
}

// GetSwapStatusDisplay возвращает emoji и текст для статуса запроса
func GetSwapStatusDisplay(status model.SwapStatus) StatusDisplay {
	displays := map[model.SwapStatus]StatusDisplay{
		model.SwapStatusPending:  {"⏳", "Ожидает ответа"},
		model.SwapStatusAccepted: {"✅", "Принят"},
		model.SwapStatusRejected: {"🚫", "Отклонён"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return StatusDisplay{"❓", "Неизвестно"}
}
