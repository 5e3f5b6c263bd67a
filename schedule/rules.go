// Package schedule holds the pure scheduling rules of the patient portal:
// which dates are bookable per service, how time slots group into day bands,
// the derived display state of an appointment, and list ordering.
//
// Everything here is a pure function of its arguments; callers pass the
// current day explicitly so results are reproducible in tests.
package schedule

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates (no timezone component).
const DateLayout = "2006-01-02"

type weekdaySet map[time.Weekday]bool

func onDays(days ...time.Weekday) weekdaySet {
	s := make(weekdaySet, len(days))
	for _, d := range days {
		s[d] = true
	}
	return s
}

// anyWeekday means the service is offered Monday through Friday. The
// unconditional weekend block in Blocked fires before the table is
// consulted, so weekend entries here would be unreachable anyway.
var anyWeekday = onDays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

// serviceRules maps service-name fragments to the weekdays the health center
// offers that service. Matching is case-insensitive substring; first match
// wins. Catalog names are free text, so this is deliberately loose.
var serviceRules = []struct {
	fragment string
	days     weekdaySet
}{
	{"consultation", anyWeekday},
	{"check up", anyWeekday},
	{"nutrition", anyWeekday},
	{"prenatal", onDays(time.Tuesday, time.Thursday)},
	{"vaccination", onDays(time.Wednesday, time.Friday)},
	{"bakuna", onDays(time.Wednesday, time.Friday)},
	{"dental", onDays(time.Monday, time.Wednesday, time.Friday)},
	{"family planning", anyWeekday},
	{"dots", anyWeekday},
	{"cervical", onDays(time.Monday)},
}

// Blocked reports whether the given calendar date is closed for booking the
// named service. Rules apply in order and later rules are unreachable once
// an earlier one fires:
//
//  1. dates before today are blocked;
//  2. Saturday and Sunday are blocked for every service;
//  3. with no service selected, any future weekday is open;
//  4. otherwise the first matching entry in serviceRules decides.
//
// An empty serviceName means no service has been selected yet. The function
// is O(1) and side-effect free; it runs once per cell of a month grid.
func Blocked(year int, month time.Month, day int, serviceName string, today time.Time) bool {
	date := time.Date(year, month, day, 0, 0, 0, 0, today.Location())
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if date.Before(midnight) {
		return true
	}

	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return true
	}

	name := strings.ToLower(strings.TrimSpace(serviceName))
	if name == "" {
		return false
	}
	for _, rule := range serviceRules {
		if strings.Contains(name, rule.fragment) {
			return !rule.days[wd]
		}
	}
	return false
}

// BlockedDate is Blocked for an already-parsed wire date. Unparseable dates
// are reported blocked rather than guessed at.
func BlockedDate(date string, serviceName string, today time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, date, today.Location())
	if err != nil {
		return true
	}
	return Blocked(d.Year(), d.Month(), d.Day(), serviceName, today)
}
