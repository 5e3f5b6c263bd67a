package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bhcare/patient-portal/schedule"
	"github.com/bhcare/patient-portal/services/portal-api/internal/model"
	"github.com/bhcare/patient-portal/services/portal-api/internal/outbox"
	"github.com/bhcare/patient-portal/services/portal-api/internal/slotgen"
	"github.com/bhcare/patient-portal/services/portal-api/internal/storage"
)

const clockLayout = "15:04"

type PortalHandler struct {
	catalog    *storage.CatalogRepository
	appts      *storage.AppointmentRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	slotStep   time.Duration
}

func NewPortalHandler(catalog *storage.CatalogRepository, appts *storage.AppointmentRepository, outboxRepo *outbox.Repository, logger *slog.Logger, slotStep time.Duration) *PortalHandler {
	if slotStep <= 0 {
		slotStep = 30 * time.Minute
	}
	return &PortalHandler{
		catalog:    catalog,
		appts:      appts,
		outboxRepo: outboxRepo,
		logger:     logger,
		slotStep:   slotStep,
	}
}

func (h *PortalHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/services", h.Services)
	mux.HandleFunc("GET /api/available-slots", h.Slots)
	mux.HandleFunc("GET /api/appointments", h.List)
	mux.HandleFunc("GET /api/appointments/{id}", h.Get)
	mux.HandleFunc("GET /api/appointments/user/{userID}", h.ListByUser)
	mux.HandleFunc("POST /api/appointments", h.Create)
	mux.HandleFunc("PUT /api/appointments/{id}/cancel", h.Cancel)
	mux.HandleFunc("PUT /api/appointments/{id}/reschedule", h.Reschedule)
	mux.HandleFunc("POST /api/queue/walk-in", h.WalkIn)
}

func (h *PortalHandler) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		h.logger.Error("list services failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	if services == nil {
		services = []model.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *PortalHandler) Slots(w http.ResponseWriter, r *http.Request) {
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	serviceName := strings.TrimSpace(r.URL.Query().Get("service_type"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	day, err := time.ParseInLocation(schedule.DateLayout, dateStr, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	now := time.Now()
	if schedule.BlockedDate(dateStr, serviceName, now) {
		writeJSON(w, http.StatusOK, []schedule.TimeSlot{})
		return
	}

	windows, err := h.catalog.WindowsFor(r.Context(), day)
	if err != nil {
		h.logger.Error("load schedule windows failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	taken, err := h.appts.ListTakenTimes(r.Context(), dateStr)
	if err != nil {
		h.logger.Error("load taken times failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	slots := slotgen.Build(windows, taken, h.slotStep)

	// Same-day bookings cannot target times that already passed.
	if dateStr == now.Format(schedule.DateLayout) {
		cutoff := now.Format(clockLayout)
		for i := range slots {
			if slots[i].Time <= cutoff {
				slots[i].Available = false
			}
		}
	}

	writeJSON(w, http.StatusOK, slots)
}

// List serves the staff dashboard: every appointment, optionally filtered
// by date and status.
func (h *PortalHandler) List(w http.ResponseWriter, r *http.Request) {
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	if dateStr != "" {
		if _, err := time.Parse(schedule.DateLayout, dateStr); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	appts, err := h.appts.List(r.Context(), dateStr, status)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []schedule.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *PortalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	appt, err := h.appts.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("get appointment failed", "err", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *PortalHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	appts, err := h.appts.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []schedule.Appointment{}
	}
	schedule.Sort(appts)
	writeJSON(w, http.StatusOK, appts)
}

type createAppointmentRequest struct {
	UserID      int64  `json:"user_id"`
	Date        string `json:"appointment_date"`
	Time        string `json:"appointment_time"`
	ServiceType string `json:"service_type"`
	Reason      string `json:"reason"`
}

func (h *PortalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.ServiceType = strings.TrimSpace(req.ServiceType)
	if req.UserID <= 0 || req.Date == "" || req.Time == "" || req.ServiceType == "" {
		writeError(w, http.StatusBadRequest, "user_id, appointment_date, appointment_time and service_type are required")
		return
	}

	day, timeOfDay, ok := h.validateDateTime(w, req.Date, req.Time, req.ServiceType)
	if !ok {
		return
	}

	appt := schedule.Appointment{
		UserID:      req.UserID,
		Date:        req.Date,
		Time:        timeOfDay,
		ServiceType: req.ServiceType,
		Status:      schedule.StatusPending,
		Reason:      strings.TrimSpace(req.Reason),
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if !h.reserveSlot(w, r, tx, day, req.Date, timeOfDay) {
		return
	}

	id, err := h.appts.Create(ctx, tx, &appt)
	if err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "This time slot is no longer available")
			return
		}
		h.logger.Error("create appointment failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	appt.ID = id

	if err := h.insertAppointmentEvent(r, tx, outbox.EventAppointmentBooked, appt, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

func (h *PortalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	var req cancelAppointmentRequest
	// An empty body is fine; reason is optional.
	_ = json.NewDecoder(r.Body).Decode(&req)
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Cancelled by patient"
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appts.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}

	if appt.Status == schedule.StatusCancelled {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled successfully"})
		return
	}
	if appt.Status == schedule.StatusCompleted {
		writeError(w, http.StatusConflict, "appointment can no longer be cancelled")
		return
	}

	if err := h.appts.Cancel(ctx, tx, id, reason); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to cancel appointment")
		return
	}
	appt.Status = schedule.StatusCancelled
	appt.Reason = reason

	if err := h.insertAppointmentEvent(r, tx, outbox.EventAppointmentCancelled, appt, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled successfully"})
}

type rescheduleAppointmentRequest struct {
	Date string `json:"appointment_date"`
	Time string `json:"appointment_time"`
}

func (h *PortalHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	var req rescheduleAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "appointment_date and appointment_time are required")
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appts.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if appt.Status == schedule.StatusCancelled || appt.Status == schedule.StatusCompleted {
		writeError(w, http.StatusConflict, "appointment can no longer be rescheduled")
		return
	}

	day, timeOfDay, ok := h.validateDateTime(w, req.Date, req.Time, appt.ServiceType)
	if !ok {
		return
	}
	if !h.reserveSlot(w, r, tx, day, req.Date, timeOfDay) {
		return
	}

	if err := h.appts.Reschedule(ctx, tx, id, req.Date, timeOfDay); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reschedule appointment")
		return
	}

	previous := map[string]string{
		"appointment_date": appt.Date,
		"appointment_time": appt.Time,
	}
	appt.Date = req.Date
	appt.Time = timeOfDay
	appt.Status = schedule.StatusPending

	if err := h.insertAppointmentEvent(r, tx, outbox.EventAppointmentRescheduled, appt, previous); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type walkInRequest struct {
	UserID      int64  `json:"user_id"`
	ServiceType string `json:"service_type"`
	Reason      string `json:"reason"`
}

type walkInResponse struct {
	QueueNumber int                  `json:"queue_number"`
	Appointment schedule.Appointment `json:"appointment"`
}

// WalkIn registers a patient who shows up at the health center without a
// booking. The visit is stored as a waiting appointment for today at the
// current time and the patient gets a position in today's queue.
func (h *PortalHandler) WalkIn(w http.ResponseWriter, r *http.Request) {
	var req walkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ServiceType = strings.TrimSpace(req.ServiceType)
	if req.UserID <= 0 || req.ServiceType == "" {
		writeError(w, http.StatusBadRequest, "user_id and service_type are required")
		return
	}

	now := time.Now()
	appt := schedule.Appointment{
		UserID:      req.UserID,
		Date:        now.Format(schedule.DateLayout),
		Time:        now.Format(clockLayout),
		ServiceType: req.ServiceType,
		Status:      schedule.StatusWaiting,
		Reason:      strings.TrimSpace(req.Reason),
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	waiting, err := h.appts.CountWaitingOn(ctx, tx, appt.Date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read queue")
		return
	}

	id, err := h.appts.Create(ctx, tx, &appt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register walk-in")
		return
	}
	appt.ID = id

	if err := h.insertAppointmentEvent(r, tx, outbox.EventAppointmentBooked, appt, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusOK, walkInResponse{QueueNumber: waiting + 1, Appointment: appt})
}
