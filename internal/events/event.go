package events

import "github.com/google/uuid"

// Event names for subscription.
const (
	EventNameJobStatusChanged     = "job.status_changed"
	EventNamePaymentSettled       = "job.payment_settled"
	EventNameAppointmentScheduled = "job.appointment_scheduled"
	EventNameJobDistanceResolved  = "job.distance_resolved"
	EventNameVisitReminder        = "job.visit_reminder"
)

// JobStatusChanged fires after the engine commits a transition and adopts
// the server's canonical status.
type JobStatusChanged struct {
	BaseEvent
	TechnicianID  uuid.UUID `json:"technicianId"`
	OfferID       string    `json:"offerId"`
	RequestID     string    `json:"requestId"`
	AppointmentID string    `json:"appointmentId,omitempty"`
	Status        string    `json:"status"`
}

// EventName returns the unique event identifier.
func (e JobStatusChanged) EventName() string { return EventNameJobStatusChanged }

// PaymentSettled is delivered by the payment webhook. Amount is in the
// smallest currency unit.
type PaymentSettled struct {
	BaseEvent
	AppointmentID string `json:"appointmentId"`
	Amount        int64  `json:"amount"`
}

// EventName returns the unique event identifier.
func (e PaymentSettled) EventName() string { return EventNamePaymentSettled }

// AppointmentScheduled fires when a job enters Scheduled and an appointment
// record now exists. The scheduler module uses it to enqueue visit reminders.
type AppointmentScheduled struct {
	BaseEvent
	TechnicianID  uuid.UUID `json:"technicianId"`
	OfferID       string    `json:"offerId"`
	AppointmentID string    `json:"appointmentId"`
	ScheduledDate string    `json:"scheduledDate"`
}

// EventName returns the unique event identifier.
func (e AppointmentScheduled) EventName() string { return EventNameAppointmentScheduled }

// JobDistanceResolved fires when the background geocoding stream resolves
// a job's distance to the technician.
type JobDistanceResolved struct {
	BaseEvent
	TechnicianID uuid.UUID `json:"technicianId"`
	OfferID      string    `json:"offerId"`
	Distance     string    `json:"distance"`
}

// EventName returns the unique event identifier.
func (e JobDistanceResolved) EventName() string { return EventNameJobDistanceResolved }

// VisitReminder fires when a scheduled visit's reminder task comes due.
type VisitReminder struct {
	BaseEvent
	TechnicianID  uuid.UUID `json:"technicianId"`
	OfferID       string    `json:"offerId"`
	AppointmentID string    `json:"appointmentId"`
	ScheduledDate string    `json:"scheduledDate"`
}

// EventName returns the unique event identifier.
func (e VisitReminder) EventName() string { return EventNameVisitReminder }
