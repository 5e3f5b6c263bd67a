package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bhcare/patient-portal/schedule"
	"github.com/bhcare/patient-portal/services/portal-api/internal/outbox"
	"github.com/bhcare/patient-portal/services/portal-api/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validateDateTime checks the requested booking date and time and writes the
// error response itself on failure. The returned time is normalized "HH:MM".
func (h *PortalHandler) validateDateTime(w http.ResponseWriter, dateStr, timeStr, serviceName string) (time.Time, string, bool) {
	day, err := time.ParseInLocation(schedule.DateLayout, dateStr, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment_date must be YYYY-MM-DD")
		return time.Time{}, "", false
	}
	clock, err := time.Parse(clockLayout, timeStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment_time must be HH:MM")
		return time.Time{}, "", false
	}
	if schedule.BlockedDate(dateStr, serviceName, time.Now()) {
		writeError(w, http.StatusBadRequest, "selected date is not available for this service")
		return time.Time{}, "", false
	}
	return day, clock.Format(clockLayout), true
}

// reserveSlot locks the schedule window covering the slot and verifies the
// booking count is still under capacity. Error responses are written here;
// the caller just aborts on false.
func (h *PortalHandler) reserveSlot(w http.ResponseWriter, r *http.Request, tx pgx.Tx, day time.Time, dateStr, timeOfDay string) bool {
	ctx := r.Context()
	dow := (int(day.Weekday()) + 6) % 7

	capacity, found, err := h.appts.LockWindow(ctx, tx, dow, timeOfDay)
	if err != nil {
		h.logger.Error("lock schedule window failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return false
	}
	if !found {
		writeError(w, http.StatusBadRequest, "Invalid time slot")
		return false
	}

	count, err := h.appts.CountActiveAt(ctx, tx, dateStr, timeOfDay)
	if err != nil {
		h.logger.Error("count bookings failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return false
	}
	if capacity > 0 && count >= capacity {
		writeError(w, http.StatusConflict, "This time slot is no longer available")
		return false
	}
	return true
}

func (h *PortalHandler) insertAppointmentEvent(r *http.Request, tx pgx.Tx, eventType string, appt schedule.Appointment, extra map[string]string) error {
	payload := map[string]any{
		"appointment_id":   appt.ID,
		"user_id":          appt.UserID,
		"service_type":     appt.ServiceType,
		"appointment_date": appt.Date,
		"appointment_time": appt.Time,
		"status":           appt.Status,
	}
	if appt.Reason != "" {
		payload["reason"] = appt.Reason
	}
	for k, v := range extra {
		payload["previous_"+k] = v
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := h.outboxRepo.Insert(r.Context(), tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   storage.FormatID(appt.ID),
		EventType:     eventType,
		Payload:       raw,
	}); err != nil {
		h.logger.Error("outbox insert failed", "err", err, "event_type", eventType)
		return err
	}
	return nil
}
