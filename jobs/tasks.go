package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/numen-ops/easytime/internal/mailer"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeSLAScan is the nightly sweep for SLA breaches.
	TaskTypeSLAScan = "sla:scan"
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

// NewSLAScanTask constructs the periodic SLA scan task.
func NewSLAScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSLAScan, nil)
}

// MailSender is the delivery port for the send-email handler.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// SendEmailHandler delivers mail:send tasks over SMTP.
type SendEmailHandler struct {
	Mailer  MailSender
	Logger  *slog.Logger
	Metrics *Metrics
}

// ProcessTask processes TaskTypeSendEmail tasks.
func (h *SendEmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) (err error) {
	defer func(tracker *Tracker) {
		err = tracker.End(err)
	}(h.Metrics.Track(TaskTypeSendEmail))

	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := h.Mailer.Send(ctx, mailer.Message{
		To:      payload.To,
		Subject: payload.Subject,
		Body:    payload.Body,
	}); err != nil {
		h.Logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	h.Logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
