package scheduler

import (
	"context"
	"time"

	"fieldtech_backend/internal/events"
	"fieldtech_backend/platform/logger"
)

// Listener turns appointment-scheduled events into delayed reminder tasks.
type Listener struct {
	scheduler ReminderScheduler
	lead      time.Duration
	now       func() time.Time
	log       *logger.Logger
}

// NewListener creates the listener and subscribes it on the bus. lead is
// how long before the scheduled date the reminder fires.
func NewListener(scheduler ReminderScheduler, bus events.Bus, lead time.Duration, log *logger.Logger) *Listener {
	l := &Listener{
		scheduler: scheduler,
		lead:      lead,
		now:       time.Now,
		log:       log,
	}
	bus.Subscribe(events.EventNameAppointmentScheduled, events.HandlerFunc(l.OnAppointmentScheduled))
	return l
}

// OnAppointmentScheduled enqueues the reminder at scheduledDate minus the
// lead. Appointments already inside the lead window get no reminder.
func (l *Listener) OnAppointmentScheduled(ctx context.Context, event events.Event) error {
	scheduled, ok := event.(events.AppointmentScheduled)
	if !ok {
		return nil
	}

	date, err := time.Parse(time.RFC3339, scheduled.ScheduledDate)
	if err != nil {
		l.log.Warn("unparseable scheduled date", "appointment_id", scheduled.AppointmentID, "value", scheduled.ScheduledDate)
		return nil
	}

	runAt := date.Add(-l.lead)
	if !runAt.After(l.now()) {
		return nil
	}

	return l.scheduler.ScheduleVisitReminder(ctx, VisitReminderPayload{
		TechnicianID:  scheduled.TechnicianID.String(),
		OfferID:       scheduled.OfferID,
		AppointmentID: scheduled.AppointmentID,
		ScheduledDate: scheduled.ScheduledDate,
	}, runAt)
}
