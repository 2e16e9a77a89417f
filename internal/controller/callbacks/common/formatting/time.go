package formatting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "02.01.2006"
	timeLayout = "15:04"
)

var ErrBadSlotInput = errors.New("bad slot input")

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format(dateLayout + " " + timeLayout)
}

// FormatSlotTime форматирует интервал слота: 02.01.2006 10:00-11:00
func FormatSlotTime(start, end time.Time, loc *time.Location) string {
	start, end = start.In(loc), end.In(loc)
	if start.Format(dateLayout) == end.Format(dateLayout) {
		return fmt.Sprintf("%s %s-%s", start.Format(dateLayout), start.Format(timeLayout), end.Format(timeLayout))
	}
	return fmt.Sprintf("%s - %s", FormatDateTime(start), FormatDateTime(end))
}

// SlotInput разобранные параметры нового слота
type SlotInput struct {
	Title string
	Start time.Time
	End   time.Time
}

// ParseSlotInput разбирает строку "DD.MM.YYYY HH:MM HH:MM Название".
// Конец раньше начала означает переход через полночь.
func ParseSlotInput(s string, loc *time.Location) (SlotInput, error) {
	fields := strings.Fields(s)
	if len(fields) < 4 {
		return SlotInput{}, ErrBadSlotInput
	}

	start, end, err := parseInterval(fields[0], fields[1], fields[2], loc)
	if err != nil {
		return SlotInput{}, err
	}
	return SlotInput{
		Title: strings.Join(fields[3:], " "),
		Start: start,
		End:   end,
	}, nil
}

// SlotEdit изменения слота; nil поле остаётся прежним
type SlotEdit struct {
	Title *string
	Start *time.Time
	End   *time.Time
}

// ParseSlotEdit разбирает ввод при изменении слота:
//
//	"DD.MM.YYYY HH:MM HH:MM"          - новое время
//	"DD.MM.YYYY HH:MM HH:MM Название" - время и название
//	"Название"                        - только название
func ParseSlotEdit(s string, loc *time.Location) (SlotEdit, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return SlotEdit{}, ErrBadSlotInput
	}

	if _, err := time.ParseInLocation(dateLayout, fields[0], loc); err != nil {
		title := strings.Join(fields, " ")
		return SlotEdit{Title: &title}, nil
	}

	if len(fields) < 3 {
		return SlotEdit{}, ErrBadSlotInput
	}
	start, end, err := parseInterval(fields[0], fields[1], fields[2], loc)
	if err != nil {
		return SlotEdit{}, err
	}

	edit := SlotEdit{Start: &start, End: &end}
	if len(fields) > 3 {
		title := strings.Join(fields[3:], " ")
		edit.Title = &title
	}
	return edit, nil
}

func parseInterval(date, from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start: %v", ErrBadSlotInput, err)
	}
	end, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end: %v", ErrBadSlotInput, err)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start.UTC(), end.UTC(), nil
}

// GetWeekdayShort короткое название дня недели
func GetWeekdayShort(weekday time.Weekday) string {
	weekdays := map[time.Weekday]string{
		time.Monday:    "Пн",
		time.Tuesday:   "Вт",
		time.Wednesday: "Ср",
		time.Thursday:  "Чт",
		time.Friday:    "Пт",
		time.Saturday:  "Сб",
		time.Sunday:    "Вс",
	}
	return weekdays[weekday]
}
