// Package scheduler provides delayed task scheduling over asynq: visit
// reminders are enqueued when an appointment is created and delivered
// shortly before the scheduled date.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskVisitReminder = "appointments.visit_reminder"

type VisitReminderPayload struct {
	TechnicianID  string `json:"technicianId"`
	OfferID       string `json:"offerId"`
	AppointmentID string `json:"appointmentId"`
	ScheduledDate string `json:"scheduledDate"`
}

func NewVisitReminderTask(payload VisitReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVisitReminder, data), nil
}

func ParseVisitReminderPayload(task *asynq.Task) (VisitReminderPayload, error) {
	var payload VisitReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return VisitReminderPayload{}, err
	}
	return payload, nil
}
