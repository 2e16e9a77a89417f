package keyboard

import (
	"fmt"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/callbackdata"
	"github.com/go-telegram/bot/models"
)

// WeekPagination создаёт ряд навигации по неделям
func WeekPagination(weekOffset int) []models.InlineKeyboardButton {
	current := "📅 Эта неделя"
	if weekOffset != 0 {
		current = fmt.Sprintf("📅 %+d нед.", weekOffset)
	}

	return []models.InlineKeyboardButton{
		Button("◀️", fmt.Sprintf("%s%d", callbackdata.WeekPage, weekOffset-1)),
		Button(current, fmt.Sprintf("%s%d", callbackdata.WeekPage, 0)),
		Button("▶️", fmt.Sprintf("%s%d", callbackdata.WeekPage, weekOffset+1)),
	}
}

// AddWeekPagination добавляет навигацию по неделям к builder
func (b *Builder) AddWeekPagination(weekOffset int) *Builder {
	return b.Row(WeekPagination(weekOffset)...)
}
