package service

import (
	"fieldtech_backend/internal/geo"
	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/jobstatus"
)

// Denial identifies why a transition request was refused. Denials are
// expected business outcomes, surfaced as structured data for the app to
// render a blocking hint; they are never raised as errors.
type Denial string

const (
	// DenialNone means the transition may proceed.
	DenialNone Denial = ""
	// DenialNotSuccessor: the target is not the immediate successor of the
	// current canonical status.
	DenialNotSuccessor Denial = "not_successor"
	// DenialTerminal: the job has already completed.
	DenialTerminal Denial = "terminal"
	// DenialGeofenceOnly: arrival cannot be requested directly; it fires
	// only through the GPS-backed geofence check.
	DenialGeofenceOnly Denial = "geofence_only"
	// DenialOutsideGeofence: the live position is not within the
	// activation radius of the job site.
	DenialOutsideGeofence Denial = "outside_geofence"
	// DenialLocationRequired: the transition needs a live GPS fix.
	DenialLocationRequired Denial = "location_required"
	// DenialJobLocationUnknown: the job site has no resolved coordinates
	// to measure arrival against.
	DenialJobLocationUnknown Denial = "job_location_unknown"
	// DenialMissingPhoto: the required capture photo has not been taken.
	DenialMissingPhoto Denial = "missing_photo"
	// DenialMissingNote: the required note is empty.
	DenialMissingNote Denial = "missing_note"
	// DenialUploadsInFlight: a photo upload has not settled yet. Distinct
	// from missing data: the app should show "wait", not "add a photo".
	DenialUploadsInFlight Denial = "uploads_in_flight"
	// DenialMissingFinalCost: price review requires a positive final cost.
	DenialMissingFinalCost Denial = "missing_final_cost"
	// DenialExternalOnly: completion is driven by the payment event, never
	// by a local transition request.
	DenialExternalOnly Denial = "external_only"
)

// CheckResult is the guard's verdict on one transition request.
type CheckResult struct {
	Allowed bool
	Denial  Denial
	Message string
}

func allow() CheckResult {
	return CheckResult{Allowed: true}
}

func deny(denial Denial, message string) CheckResult {
	return CheckResult{Denial: denial, Message: message}
}

// TransitionPayload carries the technician-supplied data for a transition.
type TransitionPayload struct {
	Note          string
	FinalCost     *int64
	Location      *geo.Coordinate
	ScheduledDate string
}

// MediaState summarizes the job's capture artifacts for guard evaluation.
type MediaState struct {
	InitialCount    int
	FinalCount      int
	InitialInFlight int
	FinalInFlight   int
}

// CheckTransition validates that the data required for the requested
// transition is present. It issues no backend mutations; callers act only
// on an allowed result.
func CheckTransition(current, target jobstatus.Status, offer jobapi.Offer, payload TransitionPayload, mediaState MediaState) CheckResult {
	if current.IsTerminal() {
		return deny(DenialTerminal, "job is already completed")
	}
	if target == jobstatus.StatusCompleted {
		return deny(DenialExternalOnly, "completion follows the payment event")
	}
	if !current.CanTransition(target, offer.HasPriceReview()) {
		return deny(DenialNotSuccessor, "transition skips or reverses the job's status order")
	}

	switch target {
	case jobstatus.StatusScheduled:
		return allow()

	case jobstatus.StatusEnRoute:
		if payload.Location == nil {
			return deny(DenialLocationRequired, "live location is required to start the trip")
		}
		return allow()

	case jobstatus.StatusArrived:
		// Handled by the engine's geofence path; a direct request without
		// a location is the forbidden swipe.
		if payload.Location == nil {
			return deny(DenialGeofenceOnly, "arrival is confirmed by the geofence check")
		}
		return allow()

	case jobstatus.StatusChecking:
		return allow()

	case jobstatus.StatusPriceReview:
		if result := checkCapture(mediaState.InitialInFlight, mediaState.InitialCount, payload.Note, "initial"); !result.Allowed {
			return result
		}
		if payload.FinalCost == nil || *payload.FinalCost <= 0 {
			return deny(DenialMissingFinalCost, "a final cost above zero is required for price review")
		}
		return allow()

	case jobstatus.StatusRepairing:
		if current == jobstatus.StatusPriceReview {
			// Customer accepted the price externally; nothing to capture.
			return allow()
		}
		return checkCapture(mediaState.InitialInFlight, mediaState.InitialCount, payload.Note, "initial")

	case jobstatus.StatusRepaired:
		return checkCapture(mediaState.FinalInFlight, mediaState.FinalCount, payload.Note, "final")
	}

	return deny(DenialNotSuccessor, "unknown transition target")
}

func checkCapture(inFlight, count int, note, purpose string) CheckResult {
	if inFlight > 0 {
		return deny(DenialUploadsInFlight, "wait for the "+purpose+" photo upload to finish")
	}
	if count < 1 {
		return deny(DenialMissingPhoto, "at least one "+purpose+" photo is required")
	}
	if note == "" {
		return deny(DenialMissingNote, "a note describing the work is required")
	}
	return allow()
}
