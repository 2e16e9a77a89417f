package keyboard

import (
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок; пустой ряд пропускается
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Len количество рядов
func (b *Builder) Len() int {
	return len(b.rows)
}

// Build создаёт финальную клавиатуру, nil если кнопок нет
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	if len(b.rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// IDButton создаёт кнопку с callback data вида prefix<uuid>
func IDButton(text, prefix string, id uuid.UUID) models.InlineKeyboardButton {
	return Button(text, prefix+id.String())
}
