// Package service implements the job lifecycle engine: loading a job's
// reconciled state, guarding transition requests and committing them against
// the job backend. The server remains the source of truth; after every
// commit the engine re-reconciles and adopts whatever status the backend
// reports.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fieldtech_backend/internal/events"
	"fieldtech_backend/internal/geo"
	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/jobstatus"
	"fieldtech_backend/internal/media"
	"fieldtech_backend/internal/reconcile"
	"fieldtech_backend/platform/apperr"
	"fieldtech_backend/platform/logger"

	"github.com/google/uuid"
)

// Backend is the slice of the job backend the engine mutates through.
type Backend interface {
	CreateAppointment(ctx context.Context, requestID string, technicianID uuid.UUID) (string, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID string, update jobapi.StatusUpdate) (jobapi.Appointment, error)
	UpdateOfferFinalCost(ctx context.Context, offerID, requestID string, amount int64, note string) error
}

// StateResolver produces the reconciled view of one job.
type StateResolver interface {
	Resolve(ctx context.Context, technicianID uuid.UUID, offerID string) (reconcile.Result, error)
}

// PointerWriter persists the offer -> appointment fallback pointer.
type PointerWriter interface {
	Set(ctx context.Context, technicianID uuid.UUID, offerID, appointmentID string) error
}

// MediaReader exposes the capture-photo state the guard needs.
type MediaReader interface {
	ListByRequest(ctx context.Context, requestID, appointmentID string) ([]media.Attachment, error)
	InFlight(requestID string, purpose media.Purpose) int
}

// JobView is the engine's answer to both loads and transition requests.
type JobView struct {
	Offer       jobapi.Offer
	Appointment *jobapi.Appointment
	Status      jobstatus.Status
	PriceReview bool
	// DistanceKm is set when a live location was part of the request.
	DistanceKm *float64
}

// Engine drives the job lifecycle for loaded jobs.
type Engine struct {
	backend  Backend
	resolver StateResolver
	pointers PointerWriter
	media    MediaReader
	bus      events.Bus
	log      *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// session is the engine's per-(technician, offer) state. busy enforces
// non-reentrancy: a second transition while one is in flight is rejected,
// never queued.
type session struct {
	busy   bool
	result reconcile.Result
}

// NewEngine creates the lifecycle engine.
func NewEngine(backend Backend, resolver StateResolver, pointers PointerWriter, mediaReader MediaReader, bus events.Bus, log *logger.Logger) *Engine {
	return &Engine{
		backend:  backend,
		resolver: resolver,
		pointers: pointers,
		media:    mediaReader,
		bus:      bus,
		log:      log,
		sessions: make(map[string]*session),
	}
}

func sessionKey(technicianID uuid.UUID, offerID string) string {
	return technicianID.String() + ":" + offerID
}

// Load reconciles a job's state and tracks it as an active session.
func (e *Engine) Load(ctx context.Context, technicianID uuid.UUID, offerID string) (JobView, error) {
	result, err := e.resolver.Resolve(ctx, technicianID, offerID)
	if err != nil {
		return JobView{}, err
	}

	e.mu.Lock()
	key := sessionKey(technicianID, offerID)
	s := e.sessions[key]
	if s == nil {
		s = &session{}
		e.sessions[key] = s
	}
	s.result = result
	e.mu.Unlock()

	return newView(result), nil
}

// Unload drops the session when the technician navigates away from the job.
func (e *Engine) Unload(technicianID uuid.UUID, offerID string) {
	e.mu.Lock()
	delete(e.sessions, sessionKey(technicianID, offerID))
	e.mu.Unlock()
}

// RequestTransition attempts to advance the job to target. Guard denials are
// returned as a CheckResult alongside the refreshed view, not as errors;
// error is reserved for backend and infrastructure failures.
func (e *Engine) RequestTransition(ctx context.Context, technicianID uuid.UUID, offerID string, target jobstatus.Status, payload TransitionPayload) (JobView, CheckResult, error) {
	s, err := e.acquire(technicianID, offerID)
	if err != nil {
		return JobView{}, CheckResult{}, err
	}
	defer e.release(s)

	// Always guard against fresh server state, never the last snapshot.
	result, err := e.resolver.Resolve(ctx, technicianID, offerID)
	if err != nil {
		return JobView{}, CheckResult{}, err
	}
	s.result = result
	view := newView(result)

	mediaState, err := e.mediaState(ctx, result, target)
	if err != nil {
		return view, CheckResult{}, err
	}

	check := CheckTransition(result.Status, target, result.Offer, payload, mediaState)
	if !check.Allowed {
		e.log.TransitionRejected(offerID, target.String(), string(check.Denial))
		return view, check, nil
	}

	if target == jobstatus.StatusArrived {
		denied, distance := e.checkGeofence(result.Offer, payload)
		if distance != nil {
			view.DistanceKm = distance
		}
		if denied.Denial != DenialNone {
			e.log.TransitionRejected(offerID, target.String(), string(denied.Denial))
			return view, denied, nil
		}
	}

	if err := e.commit(ctx, technicianID, result, target, payload); err != nil {
		return view, CheckResult{}, err
	}

	// Adopt the server's verdict: re-reconcile instead of assuming the
	// transition landed as requested.
	after, err := e.resolver.Resolve(ctx, technicianID, offerID)
	if err != nil {
		return view, CheckResult{}, err
	}
	s.result = after
	view = newView(after)
	if payload.Location != nil {
		view.DistanceKm = distanceToJob(after.Offer, *payload.Location)
	}

	e.publishStatusChanged(ctx, technicianID, after)
	if target == jobstatus.StatusScheduled && after.Appointment != nil {
		e.bus.Publish(ctx, events.AppointmentScheduled{
			BaseEvent:     events.NewBaseEvent(),
			TechnicianID:  technicianID,
			OfferID:       offerID,
			AppointmentID: after.Appointment.ID,
			ScheduledDate: after.Appointment.ScheduledDate.Format(time.RFC3339),
		})
	}

	return view, allow(), nil
}

// OnPaymentSettled is the bus handler for payment webhooks. Completion is
// never set locally; the affected session is re-reconciled so the server's
// completed status flows in through the normal path.
func (e *Engine) OnPaymentSettled(ctx context.Context, event events.Event) error {
	settled, ok := event.(events.PaymentSettled)
	if !ok {
		return nil
	}

	type target struct {
		technicianID uuid.UUID
		offerID      string
	}
	var matches []target

	e.mu.Lock()
	for key, s := range e.sessions {
		if s.result.Appointment != nil && s.result.Appointment.ID == settled.AppointmentID {
			techStr, offerID, found := cutKey(key)
			if !found {
				continue
			}
			techID, err := uuid.Parse(techStr)
			if err != nil {
				continue
			}
			matches = append(matches, target{technicianID: techID, offerID: offerID})
		}
	}
	e.mu.Unlock()

	for _, m := range matches {
		result, err := e.resolver.Resolve(ctx, m.technicianID, m.offerID)
		if err != nil {
			e.log.BackendError("reconcile after payment", err)
			continue
		}
		e.mu.Lock()
		if s := e.sessions[sessionKey(m.technicianID, m.offerID)]; s != nil {
			s.result = result
		}
		e.mu.Unlock()
		e.publishStatusChanged(ctx, m.technicianID, result)
	}
	return nil
}

func (e *Engine) acquire(technicianID uuid.UUID, offerID string) (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := sessionKey(technicianID, offerID)
	s := e.sessions[key]
	if s == nil {
		s = &session{}
		e.sessions[key] = s
	}
	if s.busy {
		return nil, apperr.Conflict("a transition for this job is already in progress")
	}
	s.busy = true
	return s, nil
}

func (e *Engine) release(s *session) {
	e.mu.Lock()
	s.busy = false
	e.mu.Unlock()
}

// mediaState gathers photo counts only for targets whose guard consults
// them, so a plain swipe does not touch the media backend.
func (e *Engine) mediaState(ctx context.Context, result reconcile.Result, target jobstatus.Status) (MediaState, error) {
	switch target {
	case jobstatus.StatusPriceReview, jobstatus.StatusRepairing, jobstatus.StatusRepaired:
	default:
		return MediaState{}, nil
	}

	requestID := result.Offer.RequestID
	appointmentID := ""
	if result.Appointment != nil {
		appointmentID = result.Appointment.ID
	}

	attachments, err := e.media.ListByRequest(ctx, requestID, appointmentID)
	if err != nil {
		return MediaState{}, err
	}

	state := MediaState{
		InitialInFlight: e.media.InFlight(requestID, media.PurposeInitial),
		FinalInFlight:   e.media.InFlight(requestID, media.PurposeFinal),
	}
	for _, att := range attachments {
		switch att.Purpose {
		case media.PurposeInitial:
			state.InitialCount++
		case media.PurposeFinal:
			state.FinalCount++
		}
	}
	return state, nil
}

func (e *Engine) checkGeofence(offer jobapi.Offer, payload TransitionPayload) (CheckResult, *float64) {
	if payload.Location == nil {
		return deny(DenialGeofenceOnly, "arrival is confirmed by the geofence check"), nil
	}
	distance := distanceToJob(offer, *payload.Location)
	if distance == nil {
		return deny(DenialJobLocationUnknown, "the job site has no coordinates to verify arrival against"), nil
	}
	if !CanConfirmArrival(*distance) {
		msg := fmt.Sprintf("you are %s from the job site; arrival unlocks within %s",
			geo.FormatDistance(*distance), geo.FormatDistance(ArrivalRadiusKm))
		return deny(DenialOutsideGeofence, msg), distance
	}
	return allow(), distance
}

// commit issues the backend mutations for an approved transition.
func (e *Engine) commit(ctx context.Context, technicianID uuid.UUID, result reconcile.Result, target jobstatus.Status, payload TransitionPayload) error {
	offer := result.Offer

	if target == jobstatus.StatusScheduled {
		appointmentID, err := e.backend.CreateAppointment(ctx, offer.RequestID, technicianID)
		if err != nil {
			return err
		}
		if err := e.pointers.Set(ctx, technicianID, offer.ID, appointmentID); err != nil {
			// The offer record will carry the id shortly; losing the
			// pointer only narrows the fallback window.
			e.log.BackendError("cache appointment pointer", err)
		}
		return nil
	}

	if result.Appointment == nil {
		return apperr.Conflict("job has no appointment record yet")
	}

	if target == jobstatus.StatusPriceReview {
		// Lock the final cost on the offer before moving the appointment;
		// the customer's review needs the number in place.
		if err := e.backend.UpdateOfferFinalCost(ctx, offer.ID, offer.RequestID, *payload.FinalCost, payload.Note); err != nil {
			return err
		}
	}

	update := jobapi.StatusUpdate{Status: target.String()}
	if payload.Note != "" {
		update.Note = &payload.Note
	}
	if payload.Location != nil {
		update.Location = payload.Location
	}
	if ids := e.mediaIDs(ctx, result, target); len(ids) > 0 {
		update.MediaIDs = ids
	}

	if _, err := e.backend.UpdateAppointmentStatus(ctx, result.Appointment.ID, update); err != nil {
		return err
	}
	return nil
}

// mediaIDs attaches the relevant capture photos to the status update so the
// backend records them against the transition.
func (e *Engine) mediaIDs(ctx context.Context, result reconcile.Result, target jobstatus.Status) []string {
	var purpose media.Purpose
	switch target {
	case jobstatus.StatusPriceReview, jobstatus.StatusRepairing:
		purpose = media.PurposeInitial
	case jobstatus.StatusRepaired:
		purpose = media.PurposeFinal
	default:
		return nil
	}

	appointmentID := ""
	if result.Appointment != nil {
		appointmentID = result.Appointment.ID
	}
	attachments, err := e.media.ListByRequest(ctx, result.Offer.RequestID, appointmentID)
	if err != nil {
		e.log.BackendError("list media for transition", err)
		return nil
	}

	var ids []string
	for _, att := range attachments {
		if att.Purpose == purpose {
			ids = append(ids, att.ID)
		}
	}
	return ids
}

func (e *Engine) publishStatusChanged(ctx context.Context, technicianID uuid.UUID, result reconcile.Result) {
	event := events.JobStatusChanged{
		BaseEvent:    events.NewBaseEvent(),
		TechnicianID: technicianID,
		OfferID:      result.Offer.ID,
		RequestID:    result.Offer.RequestID,
		Status:       result.Status.String(),
	}
	if result.Appointment != nil {
		event.AppointmentID = result.Appointment.ID
	}
	e.bus.Publish(ctx, event)
}

func newView(result reconcile.Result) JobView {
	return JobView{
		Offer:       result.Offer,
		Appointment: result.Appointment,
		Status:      result.Status,
		PriceReview: result.Offer.HasPriceReview(),
	}
}

func distanceToJob(offer jobapi.Offer, from geo.Coordinate) *float64 {
	if offer.Lat == nil || offer.Lng == nil {
		return nil
	}
	d := geo.DistanceKm(from.Lat, from.Lng, *offer.Lat, *offer.Lng)
	return &d
}

func cutKey(key string) (technicianID, offerID string, ok bool) {
	return strings.Cut(key, ":")
}
