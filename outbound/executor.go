package outbound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RustMunkey/quickdash-sub005/core"
)

// Executor performs one delivery attempt. It is the queue-side consumer
// of DeliveryTask: success and terminal failure both return nil so the
// job is acked, while a retryable failure returns *RetryableError so
// the queue redelivers after the embedded delay.
type Executor struct {
	config     core.Config
	endpoints  core.EndpointStore
	deliveries core.DeliveryStore
	client     *http.Client
	policy     RetryPolicy
	logger     core.Logger
	metrics    core.MetricsRecorder

	Now func() time.Time
}

func NewExecutor(cfg core.Config, deps core.ServiceDependencies) (*Executor, error) {
	if deps.EndpointStore == nil {
		return nil, fmt.Errorf("outbound: endpoint store is required")
	}
	if deps.DeliveryStore == nil {
		return nil, fmt.Errorf("outbound: delivery store is required")
	}
	metrics := deps.MetricsRecorder
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &Executor{
		config:     cfg,
		endpoints:  deps.EndpointStore,
		deliveries: deps.DeliveryStore,
		client:     &http.Client{Timeout: cfg.RequestTimeout()},
		policy: ExponentialRetryPolicy{
			Initial: cfg.InitialBackoff(),
			Max:     cfg.MaxBackoff(),
		},
		logger:  deps.Logger,
		metrics: metrics,
		Now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Deliver signs the task payload, posts it, and records the outcome.
// The payload bytes travel with the task and are signed verbatim; the
// receiver recomputes the same HMAC over the raw body.
func (e *Executor) Deliver(ctx context.Context, task DeliveryTask) error {
	if e == nil {
		return fmt.Errorf("outbound: executor is nil")
	}
	signature := core.SignPayload(task.Secret, task.Payload)
	headers := core.DeliveryHeaders(core.Envelope{
		Event:     task.EventType,
		Timestamp: task.Timestamp,
	}, signature, task.CustomHeaders)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, task.URL, bytes.NewReader(task.Payload))
	if err != nil {
		return e.recordFailure(ctx, task, 0, "", fmt.Errorf("build request: %w", err))
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := e.client.Do(request)
	if err != nil {
		return e.recordFailure(ctx, task, 0, "", err)
	}
	defer response.Body.Close()

	body := e.readResponseBody(response.Body)
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return e.recordFailure(ctx, task, response.StatusCode, body, fmt.Errorf("endpoint returned %d", response.StatusCode))
	}
	return e.recordSuccess(ctx, task, response.StatusCode, body)
}

func (e *Executor) recordSuccess(ctx context.Context, task DeliveryTask, code int, body string) error {
	now := e.clock()
	if err := e.deliveries.RecordSuccess(ctx, task.DeliveryID, code, body, now); err != nil {
		if errors.Is(err, core.ErrInvalidDeliveryStatusTransition) {
			e.logWarn(ctx, "ignoring duplicate attempt for delivered webhook", map[string]any{
				"delivery_id": task.DeliveryID,
				"endpoint_id": task.EndpointID,
			})
			return nil
		}
		return fmt.Errorf("outbound: record success for delivery %s: %w", task.DeliveryID, err)
	}
	if err := e.endpoints.RecordHealth(ctx, task.EndpointID, core.DeliveryStatusSuccess, now); err != nil {
		e.logWarn(ctx, "delivery succeeded but endpoint health update failed", map[string]any{
			"endpoint_id": task.EndpointID,
			"error":       err.Error(),
		})
	}
	e.count(ctx, "webhooks.deliver.succeeded", task)
	return nil
}

// recordFailure persists the failed attempt and decides whether the
// queue should retry. At the attempt ceiling the delivery is terminal
// and the error is swallowed so the job is not redelivered.
func (e *Executor) recordFailure(ctx context.Context, task DeliveryTask, code int, body string, cause error) error {
	now := e.clock()
	attempt := 1
	if stored, err := e.deliveries.Get(ctx, task.DeliveryID); err == nil {
		if stored.Status == core.DeliveryStatusSuccess {
			e.logWarn(ctx, "ignoring duplicate attempt for delivered webhook", map[string]any{
				"delivery_id": task.DeliveryID,
				"endpoint_id": task.EndpointID,
			})
			return nil
		}
		attempt = stored.Attempts + 1
	}

	maxAttempts := e.config.Outbound.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = core.DefaultConfig().Outbound.MaxAttempts
	}
	if attempt >= maxAttempts {
		if err := e.deliveries.RecordFailure(ctx, task.DeliveryID, code, body, cause.Error(), nil); err != nil {
			return fmt.Errorf("outbound: record terminal failure for delivery %s: %w", task.DeliveryID, err)
		}
		if err := e.endpoints.RecordHealth(ctx, task.EndpointID, core.DeliveryStatusFailed, now); err != nil {
			e.logWarn(ctx, "endpoint health update failed", map[string]any{
				"endpoint_id": task.EndpointID,
				"error":       err.Error(),
			})
		}
		e.logWarn(ctx, "delivery exhausted retry attempts", map[string]any{
			"delivery_id": task.DeliveryID,
			"endpoint_id": task.EndpointID,
			"attempts":    attempt,
			"error":       cause.Error(),
		})
		e.count(ctx, "webhooks.deliver.exhausted", task)
		return nil
	}

	delay := e.policy.NextDelay(attempt)
	next := now.Add(delay)
	if err := e.deliveries.RecordFailure(ctx, task.DeliveryID, code, body, cause.Error(), &next); err != nil {
		return fmt.Errorf("outbound: record failure for delivery %s: %w", task.DeliveryID, err)
	}
	e.count(ctx, "webhooks.deliver.failed", task)
	return &RetryableError{After: delay, Cause: cause}
}

func (e *Executor) readResponseBody(reader io.Reader) string {
	limit := e.config.Outbound.ResponseBodyLimit
	if limit <= 0 {
		limit = core.DefaultConfig().Outbound.ResponseBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(reader, int64(limit)))
	if err != nil {
		return ""
	}
	return string(body)
}

func (e *Executor) count(ctx context.Context, name string, task DeliveryTask) {
	e.metrics.IncCounter(ctx, name, 1, map[string]string{
		"endpoint_id": task.EndpointID,
		"event_type":  task.EventType,
	})
}

func (e *Executor) logWarn(ctx context.Context, message string, fields map[string]any) {
	if e == nil || e.logger == nil {
		return
	}
	logger := e.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	logger.Warn(message, args...)
}

func (e *Executor) clock() time.Time {
	if e == nil || e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}
