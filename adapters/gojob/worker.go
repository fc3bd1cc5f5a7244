package gojob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/outbound"
)

// HandlerFunc consumes one dequeued message. Returning nil acks the
// job; returning *outbound.RetryableError nacks it with the embedded
// delay; any other error dead-letters it.
type HandlerFunc func(ctx context.Context, msg *core.JobExecutionMessage) error

// Worker drains a queue and routes messages to handlers by job id.
type Worker struct {
	dequeuer core.JobDequeuer
	handlers map[string]HandlerFunc
	logger   core.Logger
}

func NewWorker(dequeuer core.JobDequeuer, logger core.Logger) (*Worker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	return &Worker{
		dequeuer: dequeuer,
		handlers: map[string]HandlerFunc{},
		logger:   logger,
	}, nil
}

func (w *Worker) Register(jobID string, handler HandlerFunc) error {
	if w == nil {
		return fmt.Errorf("gojob: worker is nil")
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return fmt.Errorf("gojob: job id is required")
	}
	if handler == nil {
		return fmt.Errorf("gojob: handler is required for job %s", jobID)
	}
	if _, exists := w.handlers[jobID]; exists {
		return fmt.Errorf("gojob: handler already registered for job %s", jobID)
	}
	w.handlers[jobID] = handler
	return nil
}

// Run blocks until the context is cancelled, processing one delivery at
// a time. Concurrency comes from running multiple workers.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.dequeuer == nil {
		return fmt.Errorf("gojob: worker is not configured")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		delivery, err := w.dequeuer.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.logWarn(ctx, "dequeue failed", "error", err.Error())
			continue
		}
		w.ProcessDelivery(ctx, delivery)
	}
}

// ProcessDelivery runs one message through its handler and settles the
// delivery. Exposed so callers embedding the worker in another runtime
// can drive it directly.
func (w *Worker) ProcessDelivery(ctx context.Context, delivery core.JobDelivery) {
	if w == nil || delivery == nil {
		return
	}
	message := delivery.Message()
	if message == nil {
		w.settleDeadLetter(ctx, delivery, "empty message")
		return
	}

	handler, ok := w.handlers[strings.TrimSpace(message.JobID)]
	if !ok {
		w.settleDeadLetter(ctx, delivery, fmt.Sprintf("no handler for job %s", message.JobID))
		return
	}

	err := handler(ctx, message)
	if err == nil {
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			w.logWarn(ctx, "ack failed", "job_id", message.JobID, "error", ackErr.Error())
		}
		return
	}

	var retryable *outbound.RetryableError
	if errors.As(err, &retryable) {
		nackErr := delivery.Nack(ctx, core.JobNackOptions{
			Delay:   retryable.After,
			Requeue: true,
			Reason:  retryable.Error(),
		})
		if nackErr != nil {
			w.logWarn(ctx, "nack failed", "job_id", message.JobID, "error", nackErr.Error())
		}
		return
	}

	w.logWarn(ctx, "job handler failed", "job_id", message.JobID, "error", err.Error())
	w.settleDeadLetter(ctx, delivery, err.Error())
}

func (w *Worker) settleDeadLetter(ctx context.Context, delivery core.JobDelivery, reason string) {
	err := delivery.Nack(ctx, core.JobNackOptions{
		DeadLetter: true,
		Reason:     reason,
	})
	if err != nil {
		w.logWarn(ctx, "dead-letter nack failed", "error", err.Error())
	}
}

func (w *Worker) logWarn(ctx context.Context, message string, args ...any) {
	if w == nil || w.logger == nil {
		return
	}
	logger := w.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Warn(message, args...)
}
