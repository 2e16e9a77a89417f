package common

import (
	"errors"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
)

// Ошибки обработчиков
var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoMessage    = errors.New("no message in callback")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки.
// Конкретные ошибки проверяются раньше своих классов.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "❌ Пользователь не найден. Используйте /start"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, callbackdata.ErrInvalidFormat):
		return "❌ Неверный формат данных"

	case errors.Is(err, service.ErrSameSlot):
		return "❌ Нельзя обменять слот сам на себя"
	case errors.Is(err, service.ErrOwnSlotRequested):
		return "❌ Этот слот уже ваш"
	case errors.Is(err, service.ErrEmptyTitle):
		return "❌ Укажите название слота"
	case errors.Is(err, service.ErrInvalidTimeRange):
		return "❌ Начало слота должно быть раньше конца"
	case errors.Is(err, service.ErrValidation):
		return "❌ Некорректные данные"

	case errors.Is(err, service.ErrSlotNotFound):
		return "❌ Слот не найден"
	case errors.Is(err, service.ErrSwapRequestNotFound):
		return "❌ Запрос на обмен не найден"
	case errors.Is(err, service.ErrNotFound):
		return "❌ Не найдено"

	case errors.Is(err, service.ErrNotSlotOwner):
		return "❌ Это не ваш слот"
	case errors.Is(err, service.ErrNotCounterpart):
		return "❌ Ответить на запрос может только владелец запрошенного слота"
	case errors.Is(err, service.ErrForbidden):
		return "❌ Нет доступа"

	case errors.Is(err, service.ErrSlotNotSwappable):
		return "⚠️ Слот уже недоступен для обмена"
	case errors.Is(err, service.ErrSwapNotPending):
		return "⚠️ На этот запрос уже ответили"
	case errors.Is(err, service.ErrSlotStateChanged):
		return "⚠️ Слоты изменились, обмен невозможен"
	case errors.Is(err, service.ErrSlotLocked):
		return "⚠️ Слот участвует в обмене, дождитесь ответа"
	case errors.Is(err, service.ErrConflict):
		return "⚠️ Данные изменились, попробуйте ещё раз"

	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}
