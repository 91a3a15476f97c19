package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskLifecycleSweep is the task type for one inactive-account sweep.
	TaskLifecycleSweep = "accounts:lifecycle:sweep"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// LifecycleSweepPayload selects the account class a sweep covers. An
// empty class means all classes.
type LifecycleSweepPayload struct {
	Class string `json:"class"`
}

// NewLifecycleSweepTask constructs a sweep task for the given class.
func NewLifecycleSweepTask(class string) (*asynq.Task, error) {
	data, err := json.Marshal(LifecycleSweepPayload{Class: class})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode lifecycle payload: %w", err)
	}
	return asynq.NewTask(TaskLifecycleSweep, data), nil
}

// HandleSendEmailTask is the fallback email handler used when no Mailer
// is configured. It drops the message, loudly: a worker running without
// a mailer is a wiring mistake that must show up in the logs.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	slog.Warn("no mailer configured, dropping email",
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject))
	return nil
}
