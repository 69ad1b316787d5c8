package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ontime/backend/internal/mailer"
	"github.com/ontime/backend/pkg/queue"
)

// EmailProcessor consumes email jobs from the queue, delivers them over SMTP
// and records the outcome in email_logs.
type EmailProcessor struct {
	jobs   *queue.Queue
	mail   *mailer.Mailer
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewEmailProcessor creates the email worker.
func NewEmailProcessor(jobs *queue.Queue, mail *mailer.Mailer, pool *pgxpool.Pool, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{jobs: jobs, mail: mail, pool: pool, logger: logger}
}

// Run blocks processing jobs until ctx is canceled.
func (p *EmailProcessor) Run(ctx context.Context) error {
	p.logger.Info("email worker started")
	for {
		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("email worker stopping")
				return nil
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		p.process(ctx, job)
	}
}

func (p *EmailProcessor) process(ctx context.Context, job *queue.Job) {
	if job.Type != queue.JobTypeEmail {
		p.logger.Warn("skipping unknown job type", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return
	}

	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("invalid email payload", zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	err := p.mail.Send(mailer.Message{
		ToAddress: payload.RecipientEmail,
		ToName:    payload.RecipientName,
		Subject:   payload.Subject,
		BodyText:  payload.BodyText,
		BodyHTML:  payload.BodyHTML,
	})
	if err != nil {
		p.logger.Error("email delivery failed",
			zap.String("job_id", job.ID),
			zap.String("recipient", payload.RecipientEmail),
			zap.Int("attempt", job.Attempt),
			zap.Error(err))
		if job.Attempt+1 >= queue.MaxRetries {
			p.markFailed(ctx, payload.EmailLogID, err)
		}
		if rerr := p.jobs.Retry(ctx, job); rerr != nil {
			p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(rerr))
		} else if job.Attempt < queue.MaxRetries {
			time.Sleep(queue.RetryBackoff)
		}
		return
	}

	p.markSent(ctx, payload.EmailLogID)
	p.logger.Info("email delivered",
		zap.String("job_id", job.ID),
		zap.String("recipient", payload.RecipientEmail))
}

func (p *EmailProcessor) markSent(ctx context.Context, logID uuid.UUID) {
	if logID == uuid.Nil {
		return
	}
	_, err := p.pool.Exec(ctx,
		`UPDATE email_logs SET status = 'sent', sent_at = now() WHERE id = $1`,
		logID,
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("email log update failed", zap.String("email_log_id", logID.String()), zap.Error(err))
	}
}

func (p *EmailProcessor) markFailed(ctx context.Context, logID uuid.UUID, cause error) {
	if logID == uuid.Nil {
		return
	}
	_, err := p.pool.Exec(ctx,
		`UPDATE email_logs SET status = 'failed', error_message = $2 WHERE id = $1`,
		logID, cause.Error(),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("email log update failed", zap.String("email_log_id", logID.String()), zap.Error(err))
	}
}
