// Package transport defines the lifecycle module's request and response
// shapes. Status strings on the wire always use the canonical vocabulary.
package transport

import (
	"time"

	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/jobstatus"
	"fieldtech_backend/internal/lifecycle/service"
)

// transitionTargets maps wire names to canonical statuses. Only explicit
// canonical names are accepted as targets; normalization of backend strings
// happens elsewhere and is deliberately not applied to client input.
var transitionTargets = map[string]jobstatus.Status{
	"scheduled":    jobstatus.StatusScheduled,
	"en_route":     jobstatus.StatusEnRoute,
	"arrived":      jobstatus.StatusArrived,
	"checking":     jobstatus.StatusChecking,
	"price_review": jobstatus.StatusPriceReview,
	"repairing":    jobstatus.StatusRepairing,
	"repaired":     jobstatus.StatusRepaired,
	"completed":    jobstatus.StatusCompleted,
}

// ParseTarget resolves a requested target status. Unknown names are a
// client error, never silently defaulted.
func ParseTarget(raw string) (jobstatus.Status, bool) {
	status, ok := transitionTargets[raw]
	return status, ok
}

// LocationRequest is a live GPS fix supplied with a transition.
type LocationRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// TransitionRequest is the body for POST /jobs/:offerId/transition.
type TransitionRequest struct {
	Target    string           `json:"target" validate:"required"`
	Note      string           `json:"note,omitempty" validate:"max=2000"`
	FinalCost *int64           `json:"finalCost,omitempty" validate:"omitempty,gt=0"`
	Location  *LocationRequest `json:"location,omitempty"`
}

// AppointmentResponse is the field-execution record in responses.
type AppointmentResponse struct {
	ID            string    `json:"id"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Note          string    `json:"note,omitempty"`
}

// JobResponse is the reconciled job view returned by loads and transitions.
type JobResponse struct {
	OfferID       string               `json:"offerId"`
	RequestID     string               `json:"requestId"`
	Status        string               `json:"status"`
	PriceReview   bool                 `json:"priceReview"`
	CustomerName  string               `json:"customerName"`
	CustomerPhone string               `json:"customerPhone"`
	Address       string               `json:"address"`
	AddressNote   string               `json:"addressNote,omitempty"`
	EstimatedCost *int64               `json:"estimatedCost,omitempty"`
	FinalCost     *int64               `json:"finalCost,omitempty"`
	Appointment   *AppointmentResponse `json:"appointment,omitempty"`
	DistanceKm    *float64             `json:"distanceKm,omitempty"`
}

// TransitionResponse reports the outcome of a transition request. Denials
// come back with HTTP 422 and Allowed=false; the refreshed job view is
// included either way so the app can re-render.
type TransitionResponse struct {
	Allowed bool        `json:"allowed"`
	Denial  string      `json:"denial,omitempty"`
	Message string      `json:"message,omitempty"`
	Job     JobResponse `json:"job"`
}

// FromView maps the engine's view to the wire shape.
func FromView(view service.JobView) JobResponse {
	resp := JobResponse{
		OfferID:       view.Offer.ID,
		RequestID:     view.Offer.RequestID,
		Status:        view.Status.String(),
		PriceReview:   view.PriceReview,
		CustomerName:  view.Offer.CustomerName,
		CustomerPhone: view.Offer.CustomerPhone,
		Address:       view.Offer.Address,
		AddressNote:   view.Offer.AddressNote,
		EstimatedCost: view.Offer.EstimatedCost,
		FinalCost:     view.Offer.FinalCost,
		DistanceKm:    view.DistanceKm,
	}
	if view.Appointment != nil {
		resp.Appointment = appointmentResponse(*view.Appointment)
	}
	return resp
}

func appointmentResponse(appt jobapi.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:            appt.ID,
		ScheduledDate: appt.ScheduledDate,
		Note:          appt.Note,
	}
}
