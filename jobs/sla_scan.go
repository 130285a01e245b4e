package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SLAScanJob sweeps open tickets against the SLA rule table and
// reports breaches to the support inbox.
type SLAScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Mailer  MailSender
	Inbox   string
	Metrics *Metrics
	clock   func() time.Time
}

// NewSLAScanJob initialises the SLA scan handler.
func NewSLAScanJob(pool *pgxpool.Pool, logger *slog.Logger, sender MailSender, inbox string) *SLAScanJob {
	return &SLAScanJob{
		Pool:   pool,
		Logger: logger,
		Mailer: sender,
		Inbox:  inbox,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type slaBreach struct {
	TicketID     int64
	Subject      string
	Priority     string
	AgeMinutes   int
	LimitMinutes int
}

// Handle executes one scan pass.
func (j *SLAScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Pool == nil {
		return errors.New("sla scan: handler not configured")
	}
	defer func(tracker *Tracker) {
		err = tracker.End(err)
	}(j.Metrics.Track(TaskTypeSLAScan))

	logger := j.logger()
	start := j.now()
	logger.Info("starting sla scan")

	breaches, err := j.scan(ctx, start)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, b := range breaches {
		j.Metrics.AddBreaches(b.Priority, 1)
		logger.Warn("sla breach",
			slog.Int64("ticket_id", b.TicketID),
			slog.String("priority", b.Priority),
			slog.Int("age_minutes", b.AgeMinutes),
			slog.Int("limit_minutes", b.LimitMinutes),
		)
	}
	if len(breaches) > 0 && j.Mailer != nil {
		if err := j.notify(ctx, breaches); err != nil {
			logger.Error("breach notification failed", slog.Any("error", err))
			return err
		}
	}

	logger.Info("completed sla scan",
		slog.Int("breaches", len(breaches)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *SLAScanJob) scan(ctx context.Context, now time.Time) ([]slaBreach, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT t.id, t.subject, t.priority,
		       EXTRACT(EPOCH FROM ($1 - t.created_at))::int / 60 AS age_minutes,
		       r.resolution_minutes
		FROM tickets t
		JOIN sla_rules r ON r.priority = t.priority
		WHERE t.status IN ('open', 'in_progress')
		  AND t.created_at + make_interval(mins => r.resolution_minutes) < $1
		ORDER BY t.id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breaches []slaBreach
	for rows.Next() {
		var b slaBreach
		if err := rows.Scan(&b.TicketID, &b.Subject, &b.Priority, &b.AgeMinutes, &b.LimitMinutes); err != nil {
			return nil, err
		}
		breaches = append(breaches, b)
	}
	return breaches, rows.Err()
}

func (j *SLAScanJob) notify(ctx context.Context, breaches []slaBreach) error {
	body := fmt.Sprintf("Foram encontrados %d chamados fora do prazo de SLA:\n\n", len(breaches))
	for _, b := range breaches {
		body += fmt.Sprintf("#%d [%s] %s: %d min em aberto (limite %d min)\n",
			b.TicketID, b.Priority, b.Subject, b.AgeMinutes, b.LimitMinutes)
	}
	handler := &SendEmailHandler{Mailer: j.Mailer, Logger: j.logger()}
	task, err := NewSendEmailTask(SendEmailPayload{
		To:      j.Inbox,
		Subject: fmt.Sprintf("Alerta de SLA: %d chamados em atraso", len(breaches)),
		Body:    body,
	})
	if err != nil {
		return err
	}
	return handler.ProcessTask(ctx, task)
}

func (j *SLAScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSLAScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeSLAScan))
}

func (j *SLAScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
