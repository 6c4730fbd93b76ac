package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeDocumentGenerate is the task type for rendering entity PDFs.
	TaskTypeDocumentGenerate = "document:generate"
	// TaskTypeOverdueScan is the task type for the daily overdue bill scan.
	TaskTypeOverdueScan = "billing:overdue_scan"
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

// NewSendEmailHandler returns the handler for TaskTypeSendEmail.
// SMTP delivery is stubbed to structured logging until a mail relay lands.
func NewSendEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("send email",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject))
		return nil
	}
}

// DocumentGeneratePayload names the entity a PDF should be rendered for.
type DocumentGeneratePayload struct {
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
}

// NewDocumentGenerateTask constructs an Asynq task.
func NewDocumentGenerateTask(payload DocumentGeneratePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDocumentGenerate, data), nil
}

// DocumentGenerator renders a PDF and returns the stored document ID.
type DocumentGenerator interface {
	Generate(ctx context.Context, entityType string, entityID int64) (int64, error)
}

// NewDocumentGenerateHandler returns the handler for TaskTypeDocumentGenerate.
func NewDocumentGenerateHandler(generator DocumentGenerator, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload DocumentGeneratePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		docID, err := generator.Generate(ctx, payload.EntityType, payload.EntityID)
		if err != nil {
			logger.Error("document generation failed",
				slog.String("entity_type", payload.EntityType),
				slog.Int64("entity_id", payload.EntityID),
				slog.Any("error", err))
			return err
		}
		logger.Info("document generated",
			slog.String("entity_type", payload.EntityType),
			slog.Int64("entity_id", payload.EntityID),
			slog.Int64("document_id", docID))
		return nil
	}
}

// NewOverdueScanTask constructs the task triggered by the daily cron.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueScan, nil)
}

// OverdueScanner moves unpaid bills past their due date into OVERDUE.
type OverdueScanner interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// NewOverdueScanHandler returns the handler for TaskTypeOverdueScan.
func NewOverdueScanHandler(scanner OverdueScanner, metrics *Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		count, err := scanner.MarkOverdue(ctx, time.Now())
		if err != nil {
			logger.Error("overdue scan failed", slog.Any("error", err))
			return err
		}
		metrics.AddOverdueMarked(count)
		logger.Info("overdue scan completed", slog.Int("marked", count))
		return nil
	}
}
