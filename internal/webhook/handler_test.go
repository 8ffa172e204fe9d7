package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fieldtech_backend/internal/events"
	"fieldtech_backend/platform/logger"
	"fieldtech_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type recordBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
}

func (b *recordBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordBus) Subscribe(eventName string, handler events.Handler) {}

func newTestRouter(secret string, bus events.Bus) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(secret, bus, validator.New(), logger.New("development"))

	r := gin.New()
	group := r.Group("/api/v1/webhook")
	group.Use(h.SecretAuthMiddleware())
	group.POST("/payment-settled", h.HandlePaymentSettled)
	return r
}

func postSettlement(r *gin.Engine, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/payment-settled", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(secretHeader, secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPaymentSettledRelaysEvent(t *testing.T) {
	bus := &recordBus{}
	r := newTestRouter("s3cret", bus)

	w := postSettlement(r, "s3cret", `{"appointmentId":"apt-1","amount":550000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	settled, ok := bus.events[0].(events.PaymentSettled)
	if !ok {
		t.Fatalf("expected PaymentSettled, got %T", bus.events[0])
	}
	if settled.AppointmentID != "apt-1" || settled.Amount != 550000 {
		t.Errorf("unexpected event: %+v", settled)
	}
}

func TestPaymentSettledRejectsBadSecret(t *testing.T) {
	bus := &recordBus{}
	r := newTestRouter("s3cret", bus)

	if w := postSettlement(r, "wrong", `{"appointmentId":"apt-1","amount":1}`); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: status = %d", w.Code)
	}
	if w := postSettlement(r, "", `{"appointmentId":"apt-1","amount":1}`); w.Code != http.StatusUnauthorized {
		t.Errorf("missing secret: status = %d", w.Code)
	}
	if len(bus.events) != 0 {
		t.Errorf("no events expected, got %d", len(bus.events))
	}
}

func TestPaymentSettledValidatesPayload(t *testing.T) {
	bus := &recordBus{}
	r := newTestRouter("s3cret", bus)

	if w := postSettlement(r, "s3cret", `{"amount":100}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing appointmentId: status = %d", w.Code)
	}
	if w := postSettlement(r, "s3cret", `{"appointmentId":"apt-1","amount":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("zero amount: status = %d", w.Code)
	}
}
