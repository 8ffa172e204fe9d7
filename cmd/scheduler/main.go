package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fieldtech_backend/internal/events"
	"fieldtech_backend/internal/scheduler"
	"fieldtech_backend/platform/config"
	"fieldtech_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewInMemoryBus(log)

	// Reminders delivered in this process are only logged; SSE delivery
	// happens in the API process, which runs its own worker when the
	// queue is shared. Keeping a subscriber here surfaces due tasks in
	// the scheduler's own logs.
	eventBus.Subscribe(events.EventNameVisitReminder, events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			reminder, ok := event.(events.VisitReminder)
			if !ok {
				return nil
			}
			log.Info("visit reminder due",
				"technician_id", reminder.TechnicianID.String(),
				"appointment_id", reminder.AppointmentID,
				"scheduled_date", reminder.ScheduledDate,
			)
			return nil
		}))

	worker, err := scheduler.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	log.Info("scheduler worker running", "queue", cfg.AsynqQueueName)
	worker.Run(ctx)
	log.Info("scheduler stopped")
}
