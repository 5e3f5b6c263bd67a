package slotgen

import (
	"time"

	"github.com/bhcare/patient-portal/schedule"
	"github.com/bhcare/patient-portal/services/portal-api/internal/model"
)

const clockLayout = "15:04"

// Build walks each schedule window in fixed steps and emits one slot per
// time, marked unavailable once the active bookings at that time reach the
// window's capacity. Windows are half-open: a window ending 12:00 emits
// 11:30 as its last slot. Malformed windows emit nothing.
func Build(windows []model.ScheduleWindow, taken map[string]int, step time.Duration) []schedule.TimeSlot {
	if step <= 0 {
		step = 30 * time.Minute
	}

	slots := []schedule.TimeSlot{}
	for _, win := range windows {
		start, err := time.Parse(clockLayout, win.StartTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(clockLayout, win.EndTime)
		if err != nil || !end.After(start) {
			continue
		}
		for t := start; t.Before(end); t = t.Add(step) {
			key := t.Format(clockLayout)
			slots = append(slots, schedule.TimeSlot{
				Time:      key,
				Display:   t.Format("03:04 PM"),
				Available: win.Capacity <= 0 || taken[key] < win.Capacity,
			})
		}
	}
	return slots
}
