package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by portal-api.
const (
	EventAppointmentBooked      = "portal.appointment.booked.v1"
	EventAppointmentCancelled   = "portal.appointment.cancelled.v1"
	EventAppointmentRescheduled = "portal.appointment.rescheduled.v1"
)
