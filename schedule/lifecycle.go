package schedule

import (
	"strings"
	"time"
)

// Appointment statuses as reported by the appointment store. The store is
// authoritative; the client never rewrites Status, it only derives a display
// state from it.
const (
	StatusPending   = "pending"
	StatusWaiting   = "waiting"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"

	// StatusNotComplete is derived, never persisted: a pending or waiting
	// appointment whose date has already passed.
	StatusNotComplete = "not_complete"
)

// Action is something the patient may do to an appointment from the list view.
type Action string

const (
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
)

// DisplayStatus derives the presentation status for an appointment. Pending
// and waiting appointments strictly before today become StatusNotComplete;
// every other combination passes through unchanged. Recomputed on every
// query, never stored.
func DisplayStatus(status, date string, today time.Time) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusPending, StatusWaiting:
		if date < today.Format(DateLayout) {
			return StatusNotComplete
		}
	}
	return status
}

// DisplayColor maps the derived status to the severity tag the UI renders.
// Purely cosmetic, but the mapping is part of the portal's visual contract.
func DisplayColor(status, date string, today time.Time) string {
	switch strings.ToLower(DisplayStatus(status, date, today)) {
	case StatusPending:
		return "teal"
	case StatusConfirmed:
		return "green"
	case StatusCancelled:
		return "red"
	case StatusNotComplete:
		return "orange"
	default:
		return "gray"
	}
}

// AllowedActions reports what the patient may do with an appointment:
// reschedule and cancel when it was left pending/waiting in the past,
// cancel only while it is pending and not yet overdue, nothing otherwise.
func AllowedActions(status, date string, today time.Time) []Action {
	switch strings.ToLower(DisplayStatus(status, date, today)) {
	case StatusNotComplete:
		return []Action{ActionReschedule, ActionCancel}
	case StatusPending:
		return []Action{ActionCancel}
	}
	return nil
}
