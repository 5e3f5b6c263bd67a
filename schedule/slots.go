package schedule

import (
	"strconv"
	"strings"
)

// TimeSlot is one bookable time-of-day option for a date and service, as
// served by the appointment store. The engine never invents slots; it only
// classifies and filters what the server returned.
type TimeSlot struct {
	Time      string `json:"time"`    // 24-hour "HH:MM"
	Display   string `json:"display"` // human-readable, e.g. "08:30 AM"
	Available bool   `json:"available"`
}

// Bands partitions a day's slots for presentation. Bands with no members are
// empty slices, never nil, so the JSON layer always renders all three groups.
type Bands struct {
	Morning   []TimeSlot `json:"morning"`   // [08:00, 12:00)
	Afternoon []TimeSlot `json:"afternoon"` // [12:00, 17:00)
	Evening   []TimeSlot `json:"evening"`   // [17:00, 24:00)
}

// Classify partitions slots into day bands by the hour parsed from Time.
// Slots before 08:00 or with malformed times fall into no band; relative
// order within each band follows input order.
func Classify(slots []TimeSlot) Bands {
	b := Bands{
		Morning:   []TimeSlot{},
		Afternoon: []TimeSlot{},
		Evening:   []TimeSlot{},
	}
	for _, s := range slots {
		hour, ok := slotHour(s.Time)
		switch {
		case !ok:
		case hour >= 8 && hour < 12:
			b.Morning = append(b.Morning, s)
		case hour >= 12 && hour < 17:
			b.Afternoon = append(b.Afternoon, s)
		case hour >= 17:
			b.Evening = append(b.Evening, s)
		}
	}
	return b
}

// slotHour parses the hour from "HH:MM", rejecting values that are not a
// valid 24-hour clock time (e.g. "23:60").
func slotHour(t string) (int, bool) {
	hh, mm, found := strings.Cut(t, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour, true
}
