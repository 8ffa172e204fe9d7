package reconcile

import (
	"context"
	"testing"

	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/jobstatus"
	"fieldtech_backend/platform/apperr"
	"fieldtech_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSource struct {
	offers       map[string]jobapi.Offer
	appointments map[string]jobapi.Appointment
	apptErr      map[string]error
	apptCalls    []string
}

func (f *fakeSource) GetOffer(ctx context.Context, offerID string) (jobapi.Offer, error) {
	offer, ok := f.offers[offerID]
	if !ok {
		return jobapi.Offer{}, apperr.NotFound("offer not found")
	}
	return offer, nil
}

func (f *fakeSource) GetAppointment(ctx context.Context, appointmentID string) (jobapi.Appointment, error) {
	f.apptCalls = append(f.apptCalls, appointmentID)
	if err, ok := f.apptErr[appointmentID]; ok {
		return jobapi.Appointment{}, err
	}
	appt, ok := f.appointments[appointmentID]
	if !ok {
		return jobapi.Appointment{}, apperr.NotFound("appointment not found")
	}
	return appt, nil
}

type memPointers struct {
	data map[string]string
}

func newMemPointers() *memPointers {
	return &memPointers{data: map[string]string{}}
}

func (m *memPointers) key(tech uuid.UUID, offerID string) string {
	return tech.String() + ":" + offerID
}

func (m *memPointers) Get(ctx context.Context, tech uuid.UUID, offerID string) (string, error) {
	return m.data[m.key(tech, offerID)], nil
}

func (m *memPointers) Set(ctx context.Context, tech uuid.UUID, offerID, appointmentID string) error {
	m.data[m.key(tech, offerID)] = appointmentID
	return nil
}

func (m *memPointers) Delete(ctx context.Context, tech uuid.UUID, offerID string) error {
	delete(m.data, m.key(tech, offerID))
	return nil
}

func newTestReconciler(source *fakeSource, pointers *memPointers) *Reconciler {
	return New(source, pointers, logger.New("development"))
}

func strPtr(s string) *string { return &s }

func TestAppointmentStatusIsAuthoritative(t *testing.T) {
	source := &fakeSource{
		offers: map[string]jobapi.Offer{
			"ofr-1": {ID: "ofr-1", Status: "ACCEPTED", AppointmentID: strPtr("apt-1")},
		},
		appointments: map[string]jobapi.Appointment{
			"apt-1": {ID: "apt-1", Status: "checking"},
		},
	}
	pointers := newMemPointers()
	rec := newTestReconciler(source, pointers)
	tech := uuid.New()

	result, err := rec.Resolve(context.Background(), tech, "ofr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != jobstatus.StatusChecking {
		t.Errorf("appointment status should win, got %v", result.Status)
	}
	if result.Appointment == nil || result.Appointment.ID != "apt-1" {
		t.Errorf("appointment record missing from result")
	}
	if got, _ := pointers.Get(context.Background(), tech, "ofr-1"); got != "apt-1" {
		t.Errorf("pointer should be refreshed from offer record, got %q", got)
	}
}

func TestCachedPointerIsUsedWhenOfferLags(t *testing.T) {
	source := &fakeSource{
		offers: map[string]jobapi.Offer{
			"ofr-1": {ID: "ofr-1", Status: "ACCEPTED"}, // backend has not linked the appointment yet
		},
		appointments: map[string]jobapi.Appointment{
			"apt-1": {ID: "apt-1", Status: "en_route"},
		},
	}
	pointers := newMemPointers()
	tech := uuid.New()
	_ = pointers.Set(context.Background(), tech, "ofr-1", "apt-1")
	rec := newTestReconciler(source, pointers)

	result, err := rec.Resolve(context.Background(), tech, "ofr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != jobstatus.StatusEnRoute {
		t.Errorf("cached pointer should drive status, got %v", result.Status)
	}
}

func TestDeadPointerFallsBackAndPurges(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found", apperr.NotFound("gone")},
		{"unauthorized", apperr.Unauthorized("token not valid for appointment")},
		{"forbidden", apperr.Forbidden("not yours")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			source := &fakeSource{
				offers: map[string]jobapi.Offer{
					"ofr-1": {ID: "ofr-1", Status: "ACCEPTED"},
				},
				apptErr: map[string]error{"apt-dead": tc.err},
			}
			pointers := newMemPointers()
			tech := uuid.New()
			_ = pointers.Set(context.Background(), tech, "ofr-1", "apt-dead")
			rec := newTestReconciler(source, pointers)

			result, err := rec.Resolve(context.Background(), tech, "ofr-1")
			if err != nil {
				t.Fatalf("dead pointer must not propagate an error: %v", err)
			}
			if result.Status != jobstatus.StatusAccepted {
				t.Errorf("expected offer-derived status, got %v", result.Status)
			}
			if got, _ := pointers.Get(context.Background(), tech, "ofr-1"); got != "" {
				t.Errorf("stale pointer should be purged, still %q", got)
			}

			// A subsequent load must not retry the dead id.
			source.apptCalls = nil
			if _, err := rec.Resolve(context.Background(), tech, "ofr-1"); err != nil {
				t.Fatalf("second resolve: %v", err)
			}
			for _, id := range source.apptCalls {
				if id == "apt-dead" {
					t.Error("dead appointment id was retried after purge")
				}
			}
		})
	}
}

func TestTransientAppointmentFailureFallsBackWithoutPurge(t *testing.T) {
	source := &fakeSource{
		offers: map[string]jobapi.Offer{
			"ofr-1": {ID: "ofr-1", Status: "ACCEPTED"},
		},
		apptErr: map[string]error{"apt-1": apperr.Internal("backend 500")},
	}
	pointers := newMemPointers()
	tech := uuid.New()
	_ = pointers.Set(context.Background(), tech, "ofr-1", "apt-1")
	rec := newTestReconciler(source, pointers)

	result, err := rec.Resolve(context.Background(), tech, "ofr-1")
	if err != nil {
		t.Fatalf("transient failure must not propagate: %v", err)
	}
	if result.Status != jobstatus.StatusAccepted {
		t.Errorf("expected fallback to offer status, got %v", result.Status)
	}
	if got, _ := pointers.Get(context.Background(), tech, "ofr-1"); got != "apt-1" {
		t.Errorf("transient failure must not purge the pointer, got %q", got)
	}
}

func TestOfferOnlyDerivation(t *testing.T) {
	tests := []struct {
		offerStatus string
		want        jobstatus.Status
	}{
		{"ACCEPTED", jobstatus.StatusAccepted},
		{"quoted", jobstatus.StatusPending},
		{"completed", jobstatus.StatusCompleted},
		{"no-such-status", jobstatus.StatusPending},
	}

	for _, tc := range tests {
		source := &fakeSource{
			offers: map[string]jobapi.Offer{
				"ofr-1": {ID: "ofr-1", Status: tc.offerStatus},
			},
		}
		rec := newTestReconciler(source, newMemPointers())

		result, err := rec.Resolve(context.Background(), uuid.New(), "ofr-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != tc.want {
			t.Errorf("offer status %q => %v, want %v", tc.offerStatus, result.Status, tc.want)
		}
		if result.Appointment != nil {
			t.Error("no appointment expected")
		}
		if len(source.apptCalls) != 0 {
			t.Error("no appointment fetch expected without a pointer")
		}
	}
}

func TestOfferFetchErrorPropagates(t *testing.T) {
	rec := newTestReconciler(&fakeSource{offers: map[string]jobapi.Offer{}}, newMemPointers())

	_, err := rec.Resolve(context.Background(), uuid.New(), "ofr-missing")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("offer fetch failures must propagate, got %v", err)
	}
}
