// Package notification fans domain events out to connected devices over
// SSE. It subscribes on the bus and inverts the dependency: the lifecycle
// and discovery modules never talk to connections directly.
package notification

import (
	"context"

	"fieldtech_backend/internal/events"
	apphttp "fieldtech_backend/internal/http"
	"fieldtech_backend/internal/notification/sse"
	"fieldtech_backend/platform/httpkit"
	"fieldtech_backend/platform/logger"
)

// Module represents the notification module.
type Module struct {
	SSE *sse.Service
}

// NewModule creates the notification module and subscribes its relays.
func NewModule(bus events.Bus, log *logger.Logger) *Module {
	m := &Module{SSE: sse.New(log)}

	bus.Subscribe(events.EventNameJobDistanceResolved, events.HandlerFunc(m.onDistanceResolved))
	bus.Subscribe(events.EventNameJobStatusChanged, events.HandlerFunc(m.onStatusChanged))
	bus.Subscribe(events.EventNameVisitReminder, events.HandlerFunc(m.onVisitReminder))

	return m
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes registers the SSE endpoint under /api/v1/events.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/events", m.SSE.Handler(httpkit.TechnicianID))
}

func (m *Module) onDistanceResolved(ctx context.Context, event events.Event) error {
	resolved, ok := event.(events.JobDistanceResolved)
	if !ok {
		return nil
	}
	m.SSE.Publish(resolved.TechnicianID, sse.Event{
		Type:    sse.EventDistanceResolved,
		OfferID: resolved.OfferID,
		Data:    map[string]string{"distance": resolved.Distance},
	})
	return nil
}

func (m *Module) onStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.JobStatusChanged)
	if !ok {
		return nil
	}
	m.SSE.Publish(changed.TechnicianID, sse.Event{
		Type:    sse.EventJobStatusChanged,
		OfferID: changed.OfferID,
		Data: map[string]string{
			"status":        changed.Status,
			"appointmentId": changed.AppointmentID,
		},
	})
	return nil
}

func (m *Module) onVisitReminder(ctx context.Context, event events.Event) error {
	reminder, ok := event.(events.VisitReminder)
	if !ok {
		return nil
	}
	m.SSE.Publish(reminder.TechnicianID, sse.Event{
		Type:    sse.EventVisitReminder,
		OfferID: reminder.OfferID,
		Message: "upcoming visit",
		Data: map[string]string{
			"appointmentId": reminder.AppointmentID,
			"scheduledDate": reminder.ScheduledDate,
		},
	})
	return nil
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
