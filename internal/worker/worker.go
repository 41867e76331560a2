package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/shieldmate/backend/config"
	"github.com/shieldmate/backend/pkg/queue"
)

// EmailSender delivers a single email. Implemented by SMTPSender; faked in tests.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail over plain SMTP with optional auth.
type SMTPSender struct {
	cfg config.EmailConfig
}

// NewSMTPSender creates an SMTP sender from email config.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers one message. A missing SMTP host is an error so the job
// lands in the DLQ instead of being silently dropped.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host not configured")
	}
	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}
	msg := []byte("From: " + s.cfg.FromName + " <" + s.cfg.FromAddress + ">\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n" +
		body + "\r\n")
	return smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{to}, msg)
}

// EmailProcessor processes notification email jobs: send via SMTP and
// record the attempt in email_logs.
type EmailProcessor struct {
	sender EmailSender
	logs   *EmailLogRepository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewEmailProcessor creates a notification email processor.
func NewEmailProcessor(sender EmailSender, logs *EmailLogRepository, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{sender: sender, logs: logs, queue: q, logger: logger}
}

// Process executes one notification email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotificationEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logID, err := p.logs.Create(ctx, payload)
	if err != nil {
		p.logger.Warn("email log insert failed", zap.Error(err))
	}

	if err := p.sender.Send(ctx, payload.RecipientEmail, payload.Subject, payload.Body); err != nil {
		if logID != nil {
			_ = p.logs.MarkFailed(ctx, *logID, err.Error())
		}
		return fmt.Errorf("send email: %w", err)
	}
	if logID != nil {
		_ = p.logs.MarkSent(ctx, *logID, time.Now())
	}
	p.logger.Info("notification email sent", zap.String("job_id", job.ID), zap.String("recipient", payload.RecipientEmail))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
