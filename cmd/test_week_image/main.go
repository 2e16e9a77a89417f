package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/slotswap_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/google/uuid"
)

// Рисует тестовую неделю со слотами во всех статусах, чтобы посмотреть картинку /week
func main() {
	out := flag.String("out", "test_week.png", "output PNG file")
	flag.Parse()

	now := time.Now()
	weekStart := common.WeekStart(now, 0, time.Local)

	at := func(day, hour, minute int) time.Time {
		return weekStart.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}

	slots := []*model.Slot{
		newSlot("Планёрка", at(0, 9, 0), at(0, 9, 30), model.SlotStatusBusy),
		newSlot("Дежурство", at(0, 14, 0), at(0, 18, 0), model.SlotStatusSwappable),
		newSlot("Ревью архитектуры", at(1, 10, 0), at(1, 12, 0), model.SlotStatusSwapPending),
		newSlot("Созвон с клиентом", at(2, 11, 0), at(2, 12, 0), model.SlotStatusBusy),
		newSlot("Поддержка", at(3, 16, 0), at(3, 19, 0), model.SlotStatusSwappable),
		newSlot("Ночной релиз", at(4, 21, 0), at(5, 1, 0), model.SlotStatusBusy),
		newSlot("Субботник", at(5, 12, 0), at(5, 15, 0), model.SlotStatusSwappable),
	}

	imageData, err := common.GenerateWeekImage(weekStart, slots, time.Local, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate image: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, imageData, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Week image saved to %s (%d slots)\n", *out, len(slots))
}

func newSlot(title string, start, end time.Time, status model.SlotStatus) *model.Slot {
	return &model.Slot{
		ID:        uuid.New(),
		OwnerID:   1,
		Title:     title,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}
