package portalclient

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bhcare/patient-portal/schedule"
)

// Draft is the booking form being filled in. Nothing is sent until Submit.
type Draft struct {
	UserID      int64
	Date        string
	Time        string
	ServiceType string
	Reason      string

	// RescheduleOf is the appointment being replaced; zero for a new booking.
	RescheduleOf int64
}

// Orchestrator drives the booking flow: accumulate a draft, validate it,
// then submit, cancelling the old appointment first when rescheduling. At
// most one submission runs at a time; concurrent Submit calls fail fast
// with ErrRequestInFlight instead of double-booking.
type Orchestrator struct {
	client *Client

	mu    sync.Mutex
	draft Draft

	busy atomic.Bool

	onSuccess func(schedule.Appointment)
}

func NewOrchestrator(client *Client) *Orchestrator {
	return &Orchestrator{client: client}
}

// OnSuccess registers a callback fired after a booking lands, before Submit
// returns. Set it before the first Submit.
func (o *Orchestrator) OnSuccess(fn func(schedule.Appointment)) {
	o.onSuccess = fn
}

func (o *Orchestrator) Draft() Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

func (o *Orchestrator) SetDraft(d Draft) {
	o.mu.Lock()
	o.draft = d
	o.mu.Unlock()
}

// Update applies a partial edit to the draft.
func (o *Orchestrator) Update(fn func(*Draft)) {
	o.mu.Lock()
	fn(&o.draft)
	o.mu.Unlock()
}

// Validate checks the draft without touching the network.
func (d Draft) Validate(today time.Time) error {
	if d.UserID <= 0 {
		return &ValidationError{Field: "user_id", Msg: "must be set"}
	}
	if strings.TrimSpace(d.ServiceType) == "" {
		return &ValidationError{Field: "service_type", Msg: "a service must be selected"}
	}
	if strings.TrimSpace(d.Date) == "" {
		return &ValidationError{Field: "appointment_date", Msg: "a date must be selected"}
	}
	if strings.TrimSpace(d.Time) == "" {
		return &ValidationError{Field: "appointment_time", Msg: "a time slot must be selected"}
	}
	if schedule.BlockedDate(d.Date, d.ServiceType, today) {
		return &ValidationError{Field: "appointment_date", Msg: "date is not available for this service"}
	}
	return nil
}

// Submit validates and sends the draft. For a reschedule the old
// appointment is cancelled first and the replacement created after; when
// the cancel succeeds but the create fails the error is a *PartialFailure,
// because at that point the patient holds no booking at all. The draft is
// cleared only on full success.
func (o *Orchestrator) Submit(ctx context.Context) (schedule.Appointment, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return schedule.Appointment{}, ErrRequestInFlight
	}
	defer o.busy.Store(false)

	draft := o.Draft()
	if err := draft.Validate(time.Now()); err != nil {
		return schedule.Appointment{}, err
	}

	if draft.RescheduleOf > 0 {
		if err := o.client.CancelAppointment(ctx, draft.RescheduleOf, "Rescheduled by patient"); err != nil {
			// Nothing changed server-side worth keeping: the old booking
			// still stands.
			return schedule.Appointment{}, err
		}
	}

	appt, err := o.client.CreateAppointment(ctx, draft)
	if err != nil {
		if draft.RescheduleOf > 0 {
			return schedule.Appointment{}, &PartialFailure{CancelledID: draft.RescheduleOf, Err: err}
		}
		return schedule.Appointment{}, err
	}

	o.SetDraft(Draft{})
	if o.onSuccess != nil {
		o.onSuccess(appt)
	}
	return appt, nil
}

// Cancel cancels an existing appointment under the same single-flight guard
// as Submit, so a cancel cannot race a pending booking. Confirming with the
// patient first is the caller's job.
func (o *Orchestrator) Cancel(ctx context.Context, id int64, reason string) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrRequestInFlight
	}
	defer o.busy.Store(false)

	if id <= 0 {
		return &ValidationError{Field: "appointment_id", Msg: "must be set"}
	}
	return o.client.CancelAppointment(ctx, id, reason)
}
