package notify

import (
	"errors"
	"strings"
	"testing"
)

func TestFromEvent_Booked(t *testing.T) {
	payload := []byte(`{"appointment_id": 7, "user_id": 3, "service_type": "Prenatal Care",
		"appointment_date": "2026-03-05", "appointment_time": "09:30", "status": "pending"}`)
	n, err := FromEvent("portal.appointment.booked.v1", payload)
	if err != nil {
		t.Fatalf("FromEvent failed: %v", err)
	}
	if n.UserID != 3 || n.AppointmentID != 7 {
		t.Fatalf("ids not carried over: %+v", n)
	}
	if n.Title != "Appointment booked" {
		t.Fatalf("title = %q", n.Title)
	}
	if !strings.Contains(n.Body, "Prenatal Care") || !strings.Contains(n.Body, "09:30 AM") {
		t.Fatalf("body = %q", n.Body)
	}
}

func TestFromEvent_WalkInBooked(t *testing.T) {
	payload := []byte(`{"appointment_id": 8, "user_id": 3, "service_type": "General Consultation",
		"appointment_date": "2026-03-05", "appointment_time": "10:12", "status": "waiting"}`)
	n, err := FromEvent("portal.appointment.booked.v1", payload)
	if err != nil {
		t.Fatalf("FromEvent failed: %v", err)
	}
	if n.Title != "Walk-in registered" {
		t.Fatalf("title = %q", n.Title)
	}
}

func TestFromEvent_CancelledWithReason(t *testing.T) {
	payload := []byte(`{"appointment_id": 9, "user_id": 4, "service_type": "Dental Check-up",
		"appointment_date": "2026-03-06", "appointment_time": "14:00", "status": "cancelled",
		"reason": "Rescheduled by patient"}`)
	n, err := FromEvent("portal.appointment.cancelled.v1", payload)
	if err != nil {
		t.Fatalf("FromEvent failed: %v", err)
	}
	if n.Title != "Appointment cancelled" {
		t.Fatalf("title = %q", n.Title)
	}
	if !strings.Contains(n.Body, "02:00 PM") || !strings.Contains(n.Body, "Rescheduled by patient") {
		t.Fatalf("body = %q", n.Body)
	}
}

func TestFromEvent_Rescheduled(t *testing.T) {
	payload := []byte(`{"appointment_id": 10, "user_id": 5, "service_type": "Immunization Vaccination",
		"appointment_date": "2026-03-11", "appointment_time": "08:30", "status": "pending",
		"previous_appointment_date": "2026-03-04", "previous_appointment_time": "08:30"}`)
	n, err := FromEvent("portal.appointment.rescheduled.v1", payload)
	if err != nil {
		t.Fatalf("FromEvent failed: %v", err)
	}
	if !strings.Contains(n.Body, "2026-03-04") || !strings.Contains(n.Body, "2026-03-11") {
		t.Fatalf("body should mention both dates: %q", n.Body)
	}
}

func TestFromEvent_UnknownType(t *testing.T) {
	payload := []byte(`{"appointment_id": 1, "user_id": 1}`)
	if _, err := FromEvent("portal.something.else.v1", payload); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestFromEvent_MissingIDs(t *testing.T) {
	payload := []byte(`{"service_type": "x"}`)
	if _, err := FromEvent("portal.appointment.booked.v1", payload); err == nil {
		t.Fatal("expected error for missing ids")
	}
}
