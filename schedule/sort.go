package schedule

import (
	"sort"
	"strings"
)

// Appointment is the portal's view of a stored appointment. Date is a plain
// calendar date in DateLayout; ISO dates compare correctly as strings, which
// the sorter relies on.
type Appointment struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id,omitempty"`
	Date        string `json:"appointment_date"`
	Time        string `json:"appointment_time"`
	ServiceType string `json:"service_type"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// IsActive reports whether an appointment still demands the patient's
// attention: pending, waiting, or confirmed, compared case-insensitively.
func IsActive(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusPending, StatusWaiting, StatusConfirmed:
		return true
	}
	return false
}

// Sort orders appointments for the list view: every active appointment
// before every inactive one regardless of date, active ascending by date
// (soonest first), inactive descending (most recent first). Equal dates keep
// their input order.
func Sort(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		ai, aj := IsActive(appts[i].Status), IsActive(appts[j].Status)
		if ai != aj {
			return ai
		}
		if ai {
			return appts[i].Date < appts[j].Date
		}
		return appts[i].Date > appts[j].Date
	})
}
