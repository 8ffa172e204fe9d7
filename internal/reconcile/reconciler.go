// Package reconcile resolves a job's canonical state from its two
// independently-versioned backend records: the commercial offer and the
// field-execution appointment. Precedence is documented here once rather
// than merged ad hoc at call sites.
package reconcile

import (
	"context"

	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/jobstatus"
	"fieldtech_backend/platform/apperr"
	"fieldtech_backend/platform/logger"

	"github.com/google/uuid"
)

// RecordSource fetches the two backend records.
type RecordSource interface {
	GetOffer(ctx context.Context, offerID string) (jobapi.Offer, error)
	GetAppointment(ctx context.Context, appointmentID string) (jobapi.Appointment, error)
}

// PointerStore is the persisted (offerID, technicianID) -> appointmentID
// fallback pointer.
type PointerStore interface {
	Get(ctx context.Context, technicianID uuid.UUID, offerID string) (string, error)
	Set(ctx context.Context, technicianID uuid.UUID, offerID, appointmentID string) error
	Delete(ctx context.Context, technicianID uuid.UUID, offerID string) error
}

// Result is the reconciled view of one job.
type Result struct {
	Offer       jobapi.Offer
	Appointment *jobapi.Appointment
	Status      jobstatus.Status
}

// Reconciler applies the offer/appointment precedence rules.
type Reconciler struct {
	source   RecordSource
	pointers PointerStore
	log      *logger.Logger
}

// New creates a reconciler.
func New(source RecordSource, pointers PointerStore, log *logger.Logger) *Reconciler {
	return &Reconciler{source: source, pointers: pointers, log: log}
}

// Resolve determines canonical job state for an offer:
//
//  1. If the offer carries an appointment id, or a cached pointer exists for
//     (offerID, technicianID), the appointment's status is authoritative.
//  2. If that fetch fails because the id is dead (not found / authorization),
//     the cached pointer is purged and the offer's own status is used. The
//     error is swallowed: a stale pointer must never escalate into a session
//     logout.
//  3. Any other fetch failure falls back identically but is logged as a
//     backend error for diagnostics.
//  4. With no appointment id at all, status derives from the offer alone.
func (r *Reconciler) Resolve(ctx context.Context, technicianID uuid.UUID, offerID string) (Result, error) {
	offer, err := r.source.GetOffer(ctx, offerID)
	if err != nil {
		return Result{}, err
	}

	appointmentID, fromOffer := r.appointmentID(ctx, technicianID, offer)
	if appointmentID == "" {
		return Result{Offer: offer, Status: r.offerStatus(offer)}, nil
	}

	appt, err := r.source.GetAppointment(ctx, appointmentID)
	if err != nil {
		if isDeadPointer(err) {
			r.log.StalePointer(offerID, appointmentID)
			if delErr := r.pointers.Delete(ctx, technicianID, offerID); delErr != nil {
				r.log.BackendError("purge appointment pointer", delErr)
			}
		} else {
			r.log.BackendError("get appointment", err)
		}
		return Result{Offer: offer, Status: r.offerStatus(offer)}, nil
	}

	if fromOffer {
		// Refresh the fallback pointer so a later offer-record lag still
		// finds the appointment.
		if setErr := r.pointers.Set(ctx, technicianID, offerID, appointmentID); setErr != nil {
			r.log.BackendError("cache appointment pointer", setErr)
		}
	}

	return Result{
		Offer:       offer,
		Appointment: &appt,
		Status:      jobstatus.Normalize(appt.Status, r.log.UnknownStatus),
	}, nil
}

func (r *Reconciler) appointmentID(ctx context.Context, technicianID uuid.UUID, offer jobapi.Offer) (id string, fromOffer bool) {
	if offer.AppointmentID != nil && *offer.AppointmentID != "" {
		return *offer.AppointmentID, true
	}

	cached, err := r.pointers.Get(ctx, technicianID, offer.ID)
	if err != nil {
		r.log.BackendError("read appointment pointer", err)
		return "", false
	}
	return cached, false
}

func (r *Reconciler) offerStatus(offer jobapi.Offer) jobstatus.Status {
	return jobstatus.Normalize(offer.Status, r.log.UnknownStatus)
}

// isDeadPointer reports whether the appointment fetch failed because the id
// no longer resolves for this technician. Only the pointer is invalid, not
// the session.
func isDeadPointer(err error) bool {
	switch apperr.GetKind(err) {
	case apperr.KindNotFound, apperr.KindUnauthorized, apperr.KindForbidden:
		return true
	default:
		return false
	}
}
