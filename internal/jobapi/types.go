// Package jobapi is the HTTP client for the upstream job backend: the
// system of record for offers, appointments and job listings. It exposes
// narrow contracts only; status strings come back raw and are normalized
// at the jobstatus boundary by callers.
package jobapi

import (
	"time"

	"fieldtech_backend/internal/geo"
)

// Offer is the commercial quote record for a job.
type Offer struct {
	ID            string   `json:"id"`
	RequestID     string   `json:"requestId"`
	Status        string   `json:"status"`
	EstimatedCost *int64   `json:"estimatedCost"`
	FinalCost     *int64   `json:"finalCost"`
	AppointmentID *string  `json:"appointmentId"`
	ServiceID     string   `json:"serviceId"`
	CustomerName  string   `json:"customerName"`
	CustomerPhone string   `json:"customerPhone"`
	Address       string   `json:"address"`
	AddressNote   string   `json:"addressNote"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
}

// HasPriceReview reports whether the offer still requires the price-review
// branch: an estimated cost exists but no final cost has been locked.
func (o Offer) HasPriceReview() bool {
	return o.EstimatedCost != nil && o.FinalCost == nil
}

// Appointment is the field-execution record for a job once scheduled.
type Appointment struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"requestId"`
	Status        string    `json:"status"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Note          string    `json:"note"`
}

// StatusUpdate carries the data for an appointment status mutation.
type StatusUpdate struct {
	Status   string          `json:"status"`
	Note     *string         `json:"note,omitempty"`
	MediaIDs []string        `json:"mediaIds,omitempty"`
	Location *geo.Coordinate `json:"location,omitempty"`
}
