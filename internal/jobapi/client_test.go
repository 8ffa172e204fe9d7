package jobapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldtech_backend/platform/apperr"
	"fieldtech_backend/platform/logger"
)

type testBackendConfig struct {
	baseURL string
}

func (c testBackendConfig) GetJobBackendBaseURL() string        { return c.baseURL }
func (c testBackendConfig) GetJobBackendAPIKey() string         { return "test-key" }
func (c testBackendConfig) GetJobBackendTimeout() time.Duration { return 2 * time.Second }

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testBackendConfig{baseURL: srv.URL}, logger.New("development")), srv
}

func TestGetOffer(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/offers/ofr-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Error("api key header missing")
		}
		estimated := int64(500000)
		_ = json.NewEncoder(w).Encode(Offer{
			ID:            "ofr-1",
			RequestID:     "req-1",
			Status:        "QUOTE_ACCEPTED",
			EstimatedCost: &estimated,
		})
	}))

	offer, err := client.GetOffer(context.Background(), "ofr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.RequestID != "req-1" || !offer.HasPriceReview() {
		t.Errorf("offer not decoded as expected: %+v", offer)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		status int
		want   apperr.Kind
	}{
		{http.StatusInternalServerError, apperr.KindInternal},
		{http.StatusBadGateway, apperr.KindInternal},
		{http.StatusNotFound, apperr.KindNotFound},
		{http.StatusUnauthorized, apperr.KindUnauthorized},
		{http.StatusForbidden, apperr.KindForbidden},
		{http.StatusConflict, apperr.KindConflict},
		{http.StatusUnprocessableEntity, apperr.KindBadRequest},
	}

	for _, tc := range tests {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := client.GetOffer(context.Background(), "ofr-x")
		if !apperr.Is(err, tc.want) {
			t.Errorf("status %d mapped to %v, want kind %v", tc.status, apperr.GetKind(err), tc.want)
		}
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	client := NewClient(testBackendConfig{baseURL: srv.URL}, logger.New("development"))
	_, err := client.GetOffer(context.Background(), "ofr-1")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable classification, got %v", err)
	}
}

func TestUpdateAppointmentStatusReturnsServerRecord(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		var update StatusUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			t.Fatalf("decode update: %v", err)
		}
		if update.Status != "checking" {
			t.Errorf("unexpected status %q", update.Status)
		}
		// Server normalizes to its own spelling; the client must pass
		// whatever comes back to the reconciler untouched.
		_ = json.NewEncoder(w).Encode(Appointment{ID: "apt-1", Status: "CHECKING"})
	}))

	appt, err := client.UpdateAppointmentStatus(context.Background(), "apt-1", StatusUpdate{Status: "checking"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != "CHECKING" {
		t.Errorf("server status not preserved: %+v", appt)
	}
}

func TestListAvailableSendsGeoParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") != "10.77" || q.Get("lng") != "106.7" || q.Get("radiusKm") != "10" {
			t.Errorf("unexpected query %v", q)
		}
		_ = json.NewEncoder(w).Encode([]Offer{{ID: "ofr-1"}, {ID: "ofr-2"}})
	}))

	offers, err := client.ListAvailable(context.Background(), 10.77, 106.7, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 2 {
		t.Errorf("expected 2 offers, got %d", len(offers))
	}
}
