package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/securedocs/document-service/internal/ports"
)

// OutboxWorker pulls unpublished outbox records and publishes them.
// This separates transactional writes from broker delivery for reliability.
type OutboxWorker struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	claimTTL   time.Duration
	maxRetries int
}

// NewOutboxWorker constructs the outbox publisher loop with sane defaults.
func NewOutboxWorker(
	logger *slog.Logger,
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	interval time.Duration,
	batchSize int,
	claimTTL time.Duration,
	maxRetries int,
) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if claimTTL <= 0 {
		claimTTL = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &OutboxWorker{
		logger:     logger,
		outbox:     outbox,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		claimTTL:   claimTTL,
		maxRetries: maxRetries,
	}
}

// Run executes the periodic outbox publish loop until context cancellation.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "outbox_process_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *OutboxWorker) processOnce(ctx context.Context) error {
	claimToken := uuid.NewString()
	records, err := w.outbox.ClaimUnpublished(ctx, w.batchSize, claimToken, time.Now().UTC().Add(w.claimTTL))
	if err != nil {
		return err
	}

	for _, record := range records {
		now := time.Now().UTC()
		if err := w.publisher.Publish(ctx, record.EventType, record.Payload, record.PartitionKey); err != nil {
			if record.RetryCount+1 >= w.maxRetries {
				_ = w.outbox.MarkDeadLettered(ctx, record.OutboxID, claimToken, err.Error(), now)
				w.logger.ErrorContext(ctx, "outbox record dead-lettered",
					"module", "events.outbox_worker",
					"layer", "adapter",
					"operation", "outbox_publish",
					"outcome", "dead_lettered",
					"outbox_id", record.OutboxID,
					"event_type", record.EventType,
					"retry_count", record.RetryCount+1,
				)
				continue
			}
			_ = w.outbox.MarkFailed(ctx, record.OutboxID, claimToken, err.Error(), now)
			continue
		}
		if err := w.outbox.MarkPublished(ctx, record.OutboxID, claimToken, now); err != nil {
			w.logger.WarnContext(ctx, "mark published failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "outbox_mark_published",
				"outcome", "failure",
				"outbox_id", record.OutboxID,
				"error", err,
			)
		}
	}
	return nil
}
