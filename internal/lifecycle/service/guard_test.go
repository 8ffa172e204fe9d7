package service

import (
	"testing"

	"fieldtech_backend/internal/geo"
	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/jobstatus"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCheckTransitionTable(t *testing.T) {
	location := &geo.Coordinate{Lat: 10.77, Lng: 106.70}
	priceReviewOffer := jobapi.Offer{EstimatedCost: int64Ptr(400000)}
	captured := MediaState{InitialCount: 1, FinalCount: 1}

	tests := []struct {
		name    string
		current jobstatus.Status
		target  jobstatus.Status
		offer   jobapi.Offer
		payload TransitionPayload
		media   MediaState
		want    Denial
	}{
		{
			name:    "completed job is terminal",
			current: jobstatus.StatusCompleted,
			target:  jobstatus.StatusRepairing,
			want:    DenialTerminal,
		},
		{
			name:    "completion is never requestable",
			current: jobstatus.StatusRepaired,
			target:  jobstatus.StatusCompleted,
			want:    DenialExternalOnly,
		},
		{
			name:    "skipping a step is rejected",
			current: jobstatus.StatusScheduled,
			target:  jobstatus.StatusArrived,
			payload: TransitionPayload{Location: location},
			want:    DenialNotSuccessor,
		},
		{
			name:    "backward transition is rejected",
			current: jobstatus.StatusRepairing,
			target:  jobstatus.StatusChecking,
			want:    DenialNotSuccessor,
		},
		{
			name:    "en route requires a live location",
			current: jobstatus.StatusScheduled,
			target:  jobstatus.StatusEnRoute,
			want:    DenialLocationRequired,
		},
		{
			name:    "en route with location is allowed",
			current: jobstatus.StatusScheduled,
			target:  jobstatus.StatusEnRoute,
			payload: TransitionPayload{Location: location},
			want:    DenialNone,
		},
		{
			name:    "arrival without location is the forbidden swipe",
			current: jobstatus.StatusEnRoute,
			target:  jobstatus.StatusArrived,
			want:    DenialGeofenceOnly,
		},
		{
			name:    "checking to repairing is blocked on a price-review offer",
			current: jobstatus.StatusChecking,
			target:  jobstatus.StatusRepairing,
			offer:   priceReviewOffer,
			payload: TransitionPayload{Note: "fan motor worn"},
			media:   captured,
			want:    DenialNotSuccessor,
		},
		{
			name:    "price review needs a positive final cost",
			current: jobstatus.StatusChecking,
			target:  jobstatus.StatusPriceReview,
			offer:   priceReviewOffer,
			payload: TransitionPayload{Note: "fan motor worn", FinalCost: int64Ptr(0)},
			media:   captured,
			want:    DenialMissingFinalCost,
		},
		{
			name:    "price review with photo, note and cost is allowed",
			current: jobstatus.StatusChecking,
			target:  jobstatus.StatusPriceReview,
			offer:   priceReviewOffer,
			payload: TransitionPayload{Note: "fan motor worn", FinalCost: int64Ptr(550000)},
			media:   captured,
			want:    DenialNone,
		},
		{
			name:    "repairing needs an initial photo",
			current: jobstatus.StatusChecking,
			target:  jobstatus.StatusRepairing,
			payload: TransitionPayload{Note: "fan motor worn"},
			want:    DenialMissingPhoto,
		},
		{
			name:    "repairing needs a note",
			current: jobstatus.StatusChecking,
			target:  jobstatus.StatusRepairing,
			media:   MediaState{InitialCount: 1},
			want:    DenialMissingNote,
		},
		{
			name:    "in-flight upload asks to wait, not to re-add",
			current: jobstatus.StatusChecking,
			target:  jobstatus.StatusRepairing,
			payload: TransitionPayload{Note: "fan motor worn"},
			media:   MediaState{InitialInFlight: 1},
			want:    DenialUploadsInFlight,
		},
		{
			name:    "leaving price review needs no new capture",
			current: jobstatus.StatusPriceReview,
			target:  jobstatus.StatusRepairing,
			want:    DenialNone,
		},
		{
			name:    "repaired needs the final photo",
			current: jobstatus.StatusRepairing,
			target:  jobstatus.StatusRepaired,
			payload: TransitionPayload{Note: "replaced motor"},
			media:   MediaState{InitialCount: 1},
			want:    DenialMissingPhoto,
		},
		{
			name:    "repaired with final capture is allowed",
			current: jobstatus.StatusRepairing,
			target:  jobstatus.StatusRepaired,
			payload: TransitionPayload{Note: "replaced motor"},
			media:   captured,
			want:    DenialNone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckTransition(tc.current, tc.target, tc.offer, tc.payload, tc.media)
			if got.Denial != tc.want {
				t.Errorf("denial = %q, want %q (message: %s)", got.Denial, tc.want, got.Message)
			}
			if tc.want == DenialNone && !got.Allowed {
				t.Errorf("expected allowed, got denial %q", got.Denial)
			}
		})
	}
}

func TestCanConfirmArrival(t *testing.T) {
	tests := []struct {
		distanceKm float64
		want       bool
	}{
		{0, true},
		{0.4, true},
		{1.49, true},
		{1.5, false},
		{12, false},
	}
	for _, tc := range tests {
		if got := CanConfirmArrival(tc.distanceKm); got != tc.want {
			t.Errorf("CanConfirmArrival(%v) = %v, want %v", tc.distanceKm, got, tc.want)
		}
	}
}
