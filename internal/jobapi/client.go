package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"fieldtech_backend/platform/apperr"
	"fieldtech_backend/platform/config"
	"fieldtech_backend/platform/logger"

	"github.com/google/uuid"
)

// Client talks to the job backend over HTTP/JSON.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logger.Logger
}

// NewClient creates a job backend client from configuration.
func NewClient(cfg config.JobBackendConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.GetJobBackendBaseURL(),
		apiKey:  cfg.GetJobBackendAPIKey(),
		client:  &http.Client{Timeout: cfg.GetJobBackendTimeout()},
		log:     log,
	}
}

// GetOffer fetches the commercial offer record.
func (c *Client) GetOffer(ctx context.Context, offerID string) (Offer, error) {
	var offer Offer
	err := c.do(ctx, http.MethodGet, "/offers/"+url.PathEscape(offerID), nil, &offer)
	return offer, err
}

// GetAppointment fetches the field-execution record.
func (c *Client) GetAppointment(ctx context.Context, appointmentID string) (Appointment, error) {
	var appt Appointment
	err := c.do(ctx, http.MethodGet, "/appointments/"+url.PathEscape(appointmentID), nil, &appt)
	return appt, err
}

// CreateAppointment creates the field-execution record for a request and
// returns its id.
func (c *Client) CreateAppointment(ctx context.Context, requestID string, technicianID uuid.UUID) (string, error) {
	body := map[string]string{
		"requestId":    requestID,
		"technicianId": technicianID.String(),
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/appointments", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateAppointmentStatus commits a status transition. The server's returned
// appointment is authoritative; callers must adopt its status rather than
// assume the requested one was recorded.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, appointmentID string, update StatusUpdate) (Appointment, error) {
	var appt Appointment
	err := c.do(ctx, http.MethodPatch, "/appointments/"+url.PathEscape(appointmentID)+"/status", update, &appt)
	return appt, err
}

// UpdateOfferFinalCost locks the final price on the offer.
func (c *Client) UpdateOfferFinalCost(ctx context.Context, offerID, requestID string, amount int64, note string) error {
	body := map[string]interface{}{
		"requestId": requestID,
		"amount":    amount,
		"note":      note,
	}
	return c.do(ctx, http.MethodPut, "/offers/"+url.PathEscape(offerID)+"/final-cost", body, nil)
}

// ListAvailable returns raw offers open for acceptance around a location.
func (c *Client) ListAvailable(ctx context.Context, lat, lng, radiusKm float64) ([]Offer, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("radiusKm", strconv.FormatFloat(radiusKm, 'f', -1, 64))

	var offers []Offer
	err := c.do(ctx, http.MethodGet, "/offers/available?"+params.Encode(), nil, &offers)
	return offers, err
}

// ListMine returns raw offers the authenticated technician holds.
func (c *Client) ListMine(ctx context.Context) ([]Offer, error) {
	var offers []Offer
	err := c.do(ctx, http.MethodGet, "/offers/mine", nil, &offers)
	return offers, err
}

// GetServiceName resolves a service identifier to its display name.
func (c *Client) GetServiceName(ctx context.Context, serviceID string) (string, error) {
	var svc struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "/services/"+url.PathEscape(serviceID), nil, &svc); err != nil {
		return "", err
	}
	return svc.Name, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Transport failure: the caller needs to distinguish "offline,
		// try again" from an authoritative rejection.
		return apperr.Wrap(apperr.KindUnavailable, "job backend unreachable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return c.statusError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindInternal, "decode job backend payload", err)
	}
	return nil
}

func (c *Client) statusError(method, path string, resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	message := payload.Error
	if message == "" {
		message = fmt.Sprintf("job backend returned %d", resp.StatusCode)
	}

	kind := kindForStatus(resp.StatusCode)
	if kind == apperr.KindInternal {
		c.log.BackendError(method+" "+path, fmt.Errorf("%s", message))
	}
	return apperr.New(kind, message)
}

func kindForStatus(status int) apperr.Kind {
	switch {
	case status >= 500:
		return apperr.KindInternal
	case status == http.StatusNotFound:
		return apperr.KindNotFound
	case status == http.StatusUnauthorized:
		return apperr.KindUnauthorized
	case status == http.StatusForbidden:
		return apperr.KindForbidden
	case status == http.StatusConflict:
		return apperr.KindConflict
	default:
		return apperr.KindBadRequest
	}
}
