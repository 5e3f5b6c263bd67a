// Package notify turns appointment events into patient-facing messages.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bhcare/patient-portal/services/notification-service/internal/storage"
)

var ErrUnknownEvent = errors.New("unknown event type")

type appointmentEvent struct {
	AppointmentID int64  `json:"appointment_id"`
	UserID        int64  `json:"user_id"`
	ServiceType   string `json:"service_type"`
	Date          string `json:"appointment_date"`
	Time          string `json:"appointment_time"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
	PreviousDate  string `json:"previous_appointment_date"`
	PreviousTime  string `json:"previous_appointment_time"`
}

// FromEvent builds the in-app notification for an appointment event. The
// returned notification still needs an ID from the store.
func FromEvent(eventType string, payload []byte) (storage.Notification, error) {
	var evt appointmentEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return storage.Notification{}, err
	}
	if evt.UserID <= 0 || evt.AppointmentID <= 0 {
		return storage.Notification{}, errors.New("event missing user_id or appointment_id")
	}

	n := storage.Notification{
		UserID:        evt.UserID,
		AppointmentID: evt.AppointmentID,
		EventType:     eventType,
	}
	when := fmt.Sprintf("%s at %s", evt.Date, displayTime(evt.Time))

	switch eventType {
	case "portal.appointment.booked.v1":
		if evt.Status == "waiting" {
			n.Title = "Walk-in registered"
			n.Body = fmt.Sprintf("You are in today's queue for %s. Please wait to be called.", evt.ServiceType)
			return n, nil
		}
		n.Title = "Appointment booked"
		n.Body = fmt.Sprintf("Your %s appointment on %s has been received.", evt.ServiceType, when)
	case "portal.appointment.cancelled.v1":
		n.Title = "Appointment cancelled"
		n.Body = fmt.Sprintf("Your %s appointment on %s was cancelled.", evt.ServiceType, when)
		if evt.Reason != "" {
			n.Body += " Reason: " + evt.Reason
		}
	case "portal.appointment.rescheduled.v1":
		n.Title = "Appointment rescheduled"
		was := fmt.Sprintf("%s at %s", evt.PreviousDate, displayTime(evt.PreviousTime))
		n.Body = fmt.Sprintf("Your %s appointment moved from %s to %s.", evt.ServiceType, was, when)
	default:
		return storage.Notification{}, ErrUnknownEvent
	}
	return n, nil
}

// displayTime renders "HH:MM" as "03:04 PM"; unparseable input passes
// through as-is rather than corrupting the message.
func displayTime(t string) string {
	parsed, err := time.Parse("15:04", t)
	if err != nil {
		return t
	}
	return parsed.Format("03:04 PM")
}
