package schedule

import (
	"reflect"
	"testing"
	"time"
)

var day = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday

func TestDisplayStatus(t *testing.T) {
	tests := []struct {
		status, date, want string
	}{
		{"pending", "2026-03-01", "not_complete"},
		{"waiting", "2026-02-15", "not_complete"},
		{"pending", "2026-03-02", "pending"}, // today is not overdue
		{"pending", "2026-03-10", "pending"},
		{"waiting", "2026-03-10", "waiting"},
		{"completed", "2026-03-01", "completed"}, // terminal states never override
		{"cancelled", "2026-03-01", "cancelled"},
		{"confirmed", "2026-03-01", "confirmed"},
		{"Pending", "2026-03-01", "not_complete"}, // case-insensitive status
	}
	for _, tc := range tests {
		if got := DisplayStatus(tc.status, tc.date, day); got != tc.want {
			t.Errorf("DisplayStatus(%q, %q) = %q, want %q", tc.status, tc.date, got, tc.want)
		}
	}
}

func TestDisplayColor(t *testing.T) {
	tests := []struct {
		status, date, want string
	}{
		{"pending", "2026-03-10", "teal"},
		{"confirmed", "2026-03-10", "green"},
		{"cancelled", "2026-03-10", "red"},
		{"pending", "2026-03-01", "orange"}, // derived not_complete
		{"completed", "2026-03-01", "gray"},
		{"waiting", "2026-03-10", "gray"},
		{"something else", "2026-03-10", "gray"},
	}
	for _, tc := range tests {
		if got := DisplayColor(tc.status, tc.date, day); got != tc.want {
			t.Errorf("DisplayColor(%q, %q) = %q, want %q", tc.status, tc.date, got, tc.want)
		}
	}
}

func TestAllowedActions(t *testing.T) {
	tests := []struct {
		status, date string
		want         []Action
	}{
		{"pending", "2026-03-01", []Action{ActionReschedule, ActionCancel}},
		{"waiting", "2026-03-01", []Action{ActionReschedule, ActionCancel}},
		{"pending", "2026-03-10", []Action{ActionCancel}},
		{"pending", "2026-03-02", []Action{ActionCancel}}, // today counts as future
		{"confirmed", "2026-03-10", nil},
		{"cancelled", "2026-03-01", nil},
		{"completed", "2026-03-01", nil},
		{"waiting", "2026-03-10", nil},
	}
	for _, tc := range tests {
		if got := AllowedActions(tc.status, tc.date, day); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("AllowedActions(%q, %q) = %v, want %v", tc.status, tc.date, got, tc.want)
		}
	}
}
