package common

import (
	"bytes"
	"image/color"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle определяет стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = ""
	FontStyleMedium  FontStyle = "medium"
	FontStyleBold    FontStyle = "bold"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 160
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
	maxTitleRunes    = 18
)

// Константы шрифтов
const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 16.0
	slotTimeFontSize   = 15.0
	legendItemFontSize = 12.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	slotBusyColor      = color.RGBA{158, 170, 190, 220}
	slotSwappableColor = color.RGBA{133, 193, 85, 220}
	slotPendingColor   = color.RGBA{255, 200, 87, 230}
	slotDefaultColor   = color.RGBA{220, 220, 220, 200}
	slotTextColor      = color.RGBA{20, 24, 28, 230}
	slotShadowColor    = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// weekBounds содержит границы недели
type weekBounds struct {
	start time.Time
	end   time.Time
}

// hourRange содержит диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

// loadFont выставляет шрифт Go нужного стиля, basicfont если разбор не удался
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	parsed, err := parsedFont(style)
	if err == nil {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

func parsedFont(style FontStyle) (*opentype.Font, error) {
	fontsMu.Lock()
	defer fontsMu.Unlock()

	if f, ok := cachedFonts[style]; ok {
		return f, nil
	}

	var data []byte
	switch style {
	case FontStyleBold:
		data = gobold.TTF
	case FontStyleMedium:
		data = gomedium.TTF
	default:
		data = goregular.TTF
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	cachedFonts[style] = f
	return f, nil
}

// GenerateWeekImage рисует неделю, содержащую weekStart, со слотами пользователя.
// Время слотов показывается в loc, now нужен для подсветки текущего дня.
func GenerateWeekImage(weekStart time.Time, slots []*model.Slot, loc *time.Location, now time.Time) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	week := normalizeToWeekBounds(weekStart.In(loc))
	now = now.In(loc)
	today := normalizeToDay(now)
	shouldHighlightToday := isTodayInWeek(today, week)

	local := make([]*model.Slot, 0, len(slots))
	for _, s := range slots {
		c := s.Clone()
		c.StartTime = c.StartTime.In(loc)
		c.EndTime = c.EndTime.In(loc)
		local = append(local, c)
	}

	slotsByDay := groupSlotsByDay(local, week)
	hours := calculateHourRange(slotsByDay)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, week)
	drawHourLabels(dc, hours, cellHeight)
	drawDaysAndSlots(dc, week, today, shouldHighlightToday, slotsByDay, hours, dayWidth, dayHeight, cellHeight)
	drawCurrentTimeLine(dc, shouldHighlightToday, now, hours, cellHeight, dayWidth)
	drawLegend(dc, dayWidth)

	return encodeImage(dc)
}

// WeekStart понедельник недели со смещением offset от недели now
func WeekStart(now time.Time, offset int, loc *time.Location) time.Time {
	week := normalizeToWeekBounds(now.In(loc))
	return week.start.AddDate(0, 0, 7*offset)
}

// normalizeToWeekBounds нормализует дату к границам недели (Пн-Вс)
func normalizeToWeekBounds(date time.Time) weekBounds {
	normalized := normalizeToDay(date)

	daysSinceMonday := int(normalized.Weekday()) - 1
	if normalized.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}

	start := normalized.AddDate(0, 0, -daysSinceMonday)
	end := start.AddDate(0, 0, 6)

	return weekBounds{start: start, end: end}
}

func normalizeToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isTodayInWeek(today time.Time, week weekBounds) bool {
	return !today.Before(week.start) && !today.After(week.end)
}

// groupSlotsByDay группирует слоты недели по дню начала
func groupSlotsByDay(slots []*model.Slot, week weekBounds) map[string][]*model.Slot {
	weekEnd := week.end.AddDate(0, 0, 1)

	slotsByDay := make(map[string][]*model.Slot)
	for _, slot := range slots {
		if slot.StartTime.Before(week.start) || !slot.StartTime.Before(weekEnd) {
			continue
		}
		dateKey := slot.StartTime.Format("2006-01-02")
		slotsByDay[dateKey] = append(slotsByDay[dateKey], slot)
	}
	return slotsByDay
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(slotsByDay map[string][]*model.Slot) hourRange {
	minHour := 24
	maxHour := 0

	for _, daySlots := range slotsByDay {
		for _, slot := range daySlots {
			startH := slot.StartTime.Hour()
			endH := slot.EndTime.Hour()
			if slot.EndTime.Minute() > 0 {
				endH++
			}
			// Слот через полночь рисуем до конца дня
			if !sameDay(slot.StartTime, slot.EndTime) {
				endH = 24
			}
			minHour = min(minHour, startH)
			maxHour = max(maxHour, endH)
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := max(minHour-hourPaddingTop, 0)
	endHour := min(maxHour+hourPaddingBot, 24)

	return hourRange{
		start: startHour,
		end:   endHour,
		total: endHour - startHour,
	}
}

func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

// drawHeader рисует заголовок с названием месяца
func drawHeader(dc *gg.Context, week weekBounds) {
	startMonth := week.start.Month()
	endMonth := week.end.Month()

	title := getMonthNameRussian(startMonth)
	if startMonth != endMonth {
		title += " - " + getMonthNameRussian(endMonth)
	}
	title += " " + strconv.Itoa(week.end.Year())

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	_, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, 20, float64(headerHeight)/8+h/2, 0, 0)
}

// drawHourLabels рисует колонку с часами слева
func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleMedium)
	dc.SetColor(hourLabelColor)

	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+hIdx), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDaysAndSlots(dc *gg.Context, week weekBounds, today time.Time, shouldHighlightToday bool,
	slotsByDay map[string][]*model.Slot, hours hourRange, dayWidth, dayHeight int, cellHeight float64) {

	currentDate := week.start

	for dayIndex := 0; dayIndex < totalDaysInWeek; dayIndex++ {
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		isToday := shouldHighlightToday && sameDay(currentDate, today)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex, isToday)
		drawDayHeader(dc, currentDate, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)

		for _, slot := range slotsByDay[currentDate.Format("2006-01-02")] {
			drawSlot(dc, slot, x, y, dayWidth, hours, cellHeight)
		}

		currentDate = currentDate.AddDate(0, 0, 1)
	}
}

func sameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	if isToday {
		dc.SetColor(todayBgColor)
	} else if dayIndex%2 == 0 {
		dc.SetColor(evenDayColor)
	} else {
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(formatting.GetWeekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawSlot рисует один слот: время и название
func drawSlot(dc *gg.Context, slot *model.Slot, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	slotStartHour := float64(slot.StartTime.Hour()) + float64(slot.StartTime.Minute())/60.0
	slotEndHour := float64(slot.EndTime.Hour()) + float64(slot.EndTime.Minute())/60.0
	if !sameDay(slot.StartTime, slot.EndTime) {
		slotEndHour = 24
	}

	slotY := y + (slotStartHour-float64(hours.start))*cellHeight
	slotHeight := max((slotEndHour-slotStartHour)*cellHeight, minSlotHeight)

	fillColor := getSlotColor(slot.Status)
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)

	// Тень
	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fillColor)
	dc.DrawRoundedRectangle(x+float64(dayPaddingX), slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	// Рамка
	dc.SetColor(darkenColor(fillColor, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+float64(dayPaddingX), slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	loadFont(dc, slotTimeFontSize, FontStyleMedium)
	dc.SetColor(slotTextColor)
	txtX := x + float64(dayPaddingX) + 8
	txtY := slotY + 18
	dc.DrawStringAnchored(slot.StartTime.Format("15:04")+"-"+slot.EndTime.Format("15:04"), txtX, txtY, 0, 0)

	if slotHeight > 40 && slot.Title != "" {
		loadFont(dc, slotTimeFontSize-2, FontStyleDefault)
		dc.DrawStringAnchored(truncateRunes(slot.Title, maxTitleRunes), txtX, txtY+18, 0, 0)
	}
}

func getSlotColor(status model.SlotStatus) color.RGBA {
	switch status {
	case model.SlotStatusBusy:
		return slotBusyColor
	case model.SlotStatusSwappable:
		return slotSwappableColor
	case model.SlotStatusSwapPending:
		return slotPendingColor
	default:
		return slotDefaultColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine рисует красную линию текущего времени
func drawCurrentTimeLine(dc *gg.Context, shouldHighlight bool, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	if !shouldHighlight {
		return
	}

	currentHour := float64(now.Hour()) + float64(now.Minute())/60.0
	if currentHour < float64(hours.start) || currentHour > float64(hours.end) {
		return
	}

	currentTimeY := float64(headerHeight) + (currentHour-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), currentTimeY, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), currentTimeY)
	dc.Stroke()
}

// drawLegend рисует легенду справа
func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 120.0

	legendItems := []struct {
		Label string
		Clr   color.Color
	}{
		{"Занят", slotBusyColor},
		{"Открыт для обмена", slotSwappableColor},
		{"Ожидает ответа", slotPendingColor},
	}

	boxW := 20.0
	boxH := 14.0
	liY := legendY + 22

	for _, item := range legendItems {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendItemFontSize, FontStyleDefault)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatHourLabel(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h) + ":00"
	}
	return strconv.Itoa(h) + ":00"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func getMonthNameRussian(month time.Month) string {
	months := map[time.Month]string{
		time.January:   "Январь",
		time.February:  "Февраль",
		time.March:     "Март",
		time.April:     "Апрель",
		time.May:       "Май",
		time.June:      "Июнь",
		time.July:      "Июль",
		time.August:    "Август",
		time.September: "Сентябрь",
		time.October:   "Октябрь",
		time.November:  "Ноябрь",
		time.December:  "Декабрь",
	}
	return months[month]
}
