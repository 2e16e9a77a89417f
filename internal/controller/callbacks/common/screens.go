package common

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/service"
	"github.com/go-telegram/bot/models"
)

// Telegram ограничивает сообщение 4096 символами и клавиатуру 100 кнопками
const (
	maxListItems = 30
	maxButtons   = 100
)

// FormatSlotLine строка слота для списков
func FormatSlotLine(slot *model.Slot, loc *time.Location) string {
	status := formatting.GetSlotStatusDisplay(slot.Status)
	return fmt.Sprintf("%s %s <b>%s</b>",
		status.Emoji,
		formatting.FormatSlotTime(slot.StartTime, slot.EndTime, loc),
		html.EscapeString(slot.Title),
	)
}

// BuildMySlotsScreen формирует экран "Мои слоты"
func BuildMySlotsScreen(slots []*model.Slot, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	if len(slots) == 0 {
		return "📭 У вас пока нет слотов.\n\nСоздайте слот: /newslot", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 <b>Мои слоты</b> (%d %s)\n\n", len(slots), formatting.PluralizeSlots(len(slots)))

	kb := keyboard.NewBuilder()
	for i, slot := range capSlots(slots) {
		n := i + 1
		fmt.Fprintf(&sb, "%d. %s\n", n, FormatSlotLine(slot, loc))

		switch slot.Status {
		case model.SlotStatusBusy:
			kb.Row(
				keyboard.IDButton(fmt.Sprintf("%d. 🔁 Открыть для обмена", n), callbackdata.ToggleSwappable, slot.ID),
				keyboard.IDButton("✏️", callbackdata.EditSlot, slot.ID),
				keyboard.IDButton("🗑", callbackdata.DeleteSlot, slot.ID),
			)
		case model.SlotStatusSwappable:
			kb.Row(
				keyboard.IDButton(fmt.Sprintf("%d. 🔒 Снять с обмена", n), callbackdata.ToggleSwappable, slot.ID),
				keyboard.IDButton("✏️", callbackdata.EditSlot, slot.ID),
				keyboard.IDButton("🗑", callbackdata.DeleteSlot, slot.ID),
			)
		}
	}
	writeMore(&sb, len(slots))

	sb.WriteString("\n⏳ Слоты в ожидании ответа нельзя менять до завершения обмена.")
	return sb.String(), kb.Build()
}

// BuildEditSlotsScreen список слотов, которые можно изменить (/editslot)
func BuildEditSlotsScreen(slots []*model.Slot, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	var editable []*model.Slot
	for _, slot := range slots {
		if slot.Status != model.SlotStatusSwapPending {
			editable = append(editable, slot)
		}
	}
	if len(editable) == 0 {
		return "📭 Нет слотов, которые можно изменить.\n\nСоздайте слот: /newslot", nil
	}

	var sb strings.Builder
	sb.WriteString("✏️ <b>Какой слот изменить?</b>\n\n")

	kb := keyboard.NewBuilder()
	for i, slot := range capSlots(editable) {
		n := i + 1
		fmt.Fprintf(&sb, "%d. %s\n", n, FormatSlotLine(slot, loc))
		kb.Row(keyboard.IDButton(fmt.Sprintf("%d. ✏️ Изменить", n), callbackdata.EditSlot, slot.ID))
	}
	writeMore(&sb, len(editable))

	return sb.String(), kb.Build()
}

// BuildEditSlotPrompt просит ввести новые значения слота
func BuildEditSlotPrompt(slot *model.Slot, loc *time.Location) string {
	return "✏️ <b>Изменение слота</b>\n\n" + FormatSlotLine(slot, loc) + "\n\n" +
		"Отправьте новое время и название:\n<code>ДД.ММ.ГГГГ ЧЧ:ММ ЧЧ:ММ Название</code>\n" +
		"Только время: <code>ДД.ММ.ГГГГ ЧЧ:ММ ЧЧ:ММ</code>\n" +
		"Только название: просто текст\n\n/cancel - отмена"
}

// BuildMarketScreen формирует список чужих слотов, открытых для обмена
func BuildMarketScreen(slots []*model.Slot, owners map[int64]string, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	if len(slots) == 0 {
		return "🏪 Сейчас никто не предлагает слоты для обмена.", nil
	}

	var sb strings.Builder
	sb.WriteString("🏪 <b>Слоты для обмена</b>\n\nВыберите слот, который хотите получить:\n\n")

	kb := keyboard.NewBuilder()
	for i, slot := range capSlots(slots) {
		n := i + 1
		fmt.Fprintf(&sb, "%d. %s - %s\n", n, FormatSlotLine(slot, loc), html.EscapeString(ownerName(owners, slot.OwnerID)))
		kb.Row(keyboard.IDButton(fmt.Sprintf("%d. Хочу этот слот", n), callbackdata.PickTarget, slot.ID))
	}
	writeMore(&sb, len(slots))

	return sb.String(), kb.Build()
}

// BuildOfferScreen предлагает выбрать свой слот в обмен на target
func BuildOfferScreen(target *model.Slot, mine []*model.Slot, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("🔄 <b>Обмен</b>\n\nВы хотите получить:\n")
	sb.WriteString(FormatSlotLine(target, loc))
	sb.WriteString("\n\n")

	if len(mine) == 0 {
		sb.WriteString("У вас нет слотов, открытых для обмена. Откройте слот в /myslots и попробуйте снова.")
		return sb.String(), nil
	}

	sb.WriteString("Что предложите взамен?\n\n")
	kb := keyboard.NewBuilder()
	for i, slot := range capSlots(mine) {
		n := i + 1
		fmt.Fprintf(&sb, "%d. %s\n", n, FormatSlotLine(slot, loc))
		kb.Row(keyboard.IDButton(fmt.Sprintf("%d. Предложить этот", n), callbackdata.Offer, slot.ID))
	}
	writeMore(&sb, len(mine))

	return sb.String(), kb.Build()
}

// BuildRequestsScreen формирует экран входящих и исходящих запросов
func BuildRequestsScreen(reqs *service.SwapRequests, names map[int64]string, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	if len(reqs.Incoming) == 0 && len(reqs.Outgoing) == 0 {
		return "📭 Запросов на обмен нет.\n\nНайти слот для обмена: /market", nil
	}

	var sb strings.Builder
	kb := keyboard.NewBuilder()
	buttons := 0

	if len(reqs.Incoming) > 0 {
		fmt.Fprintf(&sb, "📥 <b>Входящие</b> (%d %s)\n\n", len(reqs.Incoming), formatting.PluralizeRequests(len(reqs.Incoming)))
		for i, r := range capRequests(reqs.Incoming) {
			n := i + 1
			fmt.Fprintf(&sb, "%d. %s предлагает\n   %s\n   за ваш %s\n",
				n,
				html.EscapeString(ownerName(names, r.InitiatorID)),
				slotOrID(r.OfferedSlot, r.OfferedSlotID.String(), loc),
				slotOrID(r.RequestedSlot, r.RequestedSlotID.String(), loc),
			)
			kb.Row(
				keyboard.IDButton(fmt.Sprintf("%d. ✅ Принять", n), callbackdata.SwapAccept, r.ID),
				keyboard.IDButton(fmt.Sprintf("%d. ❌ Отклонить", n), callbackdata.SwapReject, r.ID),
				keyboard.IDButton("ℹ️", callbackdata.SwapDetails, r.ID),
			)
			buttons += 3
		}
		sb.WriteString("\n")
	}

	if len(reqs.Outgoing) > 0 {
		sb.WriteString("📤 <b>Исходящие</b>\n\n")
		for i, r := range capRequests(reqs.Outgoing) {
			n := i + 1
			status := formatting.GetSwapStatusDisplay(r.Status)
			fmt.Fprintf(&sb, "%s %d. %s → %s (%s)\n",
				status.Emoji,
				n,
				slotOrID(r.OfferedSlot, r.OfferedSlotID.String(), loc),
				slotOrID(r.RequestedSlot, r.RequestedSlotID.String(), loc),
				status.Text,
			)
			if buttons < maxButtons {
				kb.Row(keyboard.IDButton(fmt.Sprintf("📤 %d. Подробнее", n), callbackdata.SwapDetails, r.ID))
				buttons++
			}
		}
		writeMore(&sb, len(reqs.Outgoing))
	}

	return sb.String(), kb.Build()
}

// BuildRequestDetailsScreen карточка запроса для участника.
// Кнопки ответа видит только владелец запрошенного слота, пока запрос ожидает ответа.
func BuildRequestDetailsScreen(req *model.SwapRequest, viewerID int64, names map[int64]string, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	status := formatting.GetSwapStatusDisplay(req.Status)

	var sb strings.Builder
	sb.WriteString("🔄 <b>Запрос на обмен</b>\n\n")
	fmt.Fprintf(&sb, "Статус: %s %s\n", status.Emoji, status.Text)
	fmt.Fprintf(&sb, "От: %s\n", html.EscapeString(ownerName(names, req.InitiatorID)))
	fmt.Fprintf(&sb, "Кому: %s\n\n", html.EscapeString(ownerName(names, req.CounterpartID)))
	fmt.Fprintf(&sb, "Предлагается: %s\n", slotOrID(req.OfferedSlot, req.OfferedSlotID.String(), loc))
	fmt.Fprintf(&sb, "Взамен: %s\n\n", slotOrID(req.RequestedSlot, req.RequestedSlotID.String(), loc))
	fmt.Fprintf(&sb, "Создан: %s", formatting.FormatDateTime(req.CreatedAt.In(loc)))
	if req.Status != model.SwapStatusPending {
		fmt.Fprintf(&sb, "\nЗавершён: %s", formatting.FormatDateTime(req.UpdatedAt.In(loc)))
	}

	if req.Status != model.SwapStatusPending || viewerID != req.CounterpartID {
		return sb.String(), nil
	}

	kb := keyboard.NewBuilder().Row(
		keyboard.IDButton("✅ Принять", callbackdata.SwapAccept, req.ID),
		keyboard.IDButton("❌ Отклонить", callbackdata.SwapReject, req.ID),
	)
	return sb.String(), kb.Build()
}

// BuildDeleteConfirmScreen подтверждение удаления слота
func BuildDeleteConfirmScreen(slot *model.Slot, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	text := "🗑 Удалить слот?\n\n" + FormatSlotLine(slot, loc)
	kb := keyboard.NewBuilder().Row(
		keyboard.IDButton("✅ Удалить", callbackdata.ConfirmDelete, slot.ID),
		keyboard.Button("❌ Отмена", callbackdata.Noop),
	)
	return text, kb.Build()
}

// BuildSwapResultText итог ответа на запрос для отвечающего
func BuildSwapResultText(req *model.SwapRequest, loc *time.Location) string {
	offered := slotOrID(req.OfferedSlot, req.OfferedSlotID.String(), loc)
	requested := slotOrID(req.RequestedSlot, req.RequestedSlotID.String(), loc)

	if req.Status == model.SwapStatusAccepted {
		return fmt.Sprintf("✅ <b>Обмен выполнен</b>\n\nТеперь ваш: %s\nВы отдали: %s", offered, requested)
	}
	return fmt.Sprintf("🚫 <b>Запрос отклонён</b>\n\nВаш слот %s снова открыт для обмена", requested)
}

func slotOrID(slot *model.Slot, id string, loc *time.Location) string {
	if slot == nil {
		return "#" + id[:8]
	}
	return FormatSlotLine(slot, loc)
}

func ownerName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return "пользователь"
}

func capSlots(slots []*model.Slot) []*model.Slot {
	if len(slots) > maxListItems {
		return slots[:maxListItems]
	}
	return slots
}

func capRequests(reqs []*model.SwapRequest) []*model.SwapRequest {
	if len(reqs) > maxListItems {
		return reqs[:maxListItems]
	}
	return reqs
}

func writeMore(sb *strings.Builder, total int) {
	if total > maxListItems {
		fmt.Fprintf(sb, "… и ещё %d\n", total-maxListItems)
	}
}
