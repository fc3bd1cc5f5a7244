package outbound

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RustMunkey/quickdash-sub005/core"
)

// Dispatcher fans a domain event out to every matching endpoint of one
// tenant. Fire creates exactly one delivery row per matching endpoint
// and hands the queue a self-contained task: the executor never has to
// look the endpoint up again, so an endpoint edited mid-flight does not
// change an in-flight delivery.
type Dispatcher struct {
	endpoints  core.EndpointStore
	deliveries core.DeliveryStore
	enqueuer   core.JobEnqueuer
	logger     core.Logger
	metrics    core.MetricsRecorder

	Now func() time.Time
}

type FireStats struct {
	Matched  int
	Enqueued int
	Failed   int
}

func NewDispatcher(deps core.ServiceDependencies) (*Dispatcher, error) {
	if deps.EndpointStore == nil {
		return nil, fmt.Errorf("outbound: endpoint store is required")
	}
	if deps.DeliveryStore == nil {
		return nil, fmt.Errorf("outbound: delivery store is required")
	}
	if deps.JobEnqueuer == nil {
		return nil, fmt.Errorf("outbound: job enqueuer is required")
	}
	metrics := deps.MetricsRecorder
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &Dispatcher{
		endpoints:  deps.EndpointStore,
		deliveries: deps.DeliveryStore,
		enqueuer:   deps.JobEnqueuer,
		logger:     deps.Logger,
		metrics:    metrics,
		Now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (d *Dispatcher) Fire(ctx context.Context, eventType string, data map[string]any, tenantID string) (FireStats, error) {
	if d == nil {
		return FireStats{}, fmt.Errorf("outbound: dispatcher is nil")
	}
	// System-internal events fire regardless of tenant; an empty tenant
	// means nobody can be subscribed, so bail before touching storage.
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return FireStats{}, nil
	}
	eventType = strings.TrimSpace(eventType)
	if !core.IsKnownEventType(eventType) {
		return FireStats{}, fmt.Errorf("%w: %q", core.ErrUnknownEventType, eventType)
	}

	endpoints, err := d.endpoints.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return FireStats{}, fmt.Errorf("outbound: list endpoints: %w", err)
	}

	now := d.clock()
	envelope := core.NewEnvelope(eventType, data, now)
	payload, err := envelope.Marshal()
	if err != nil {
		return FireStats{}, err
	}

	stats := FireStats{}
	var fireErr error
	for _, endpoint := range endpoints {
		if !endpoint.Subscribed(eventType) {
			continue
		}
		stats.Matched++

		delivery := core.Delivery{
			ID:         uuid.NewString(),
			EndpointID: endpoint.ID,
			TenantID:   tenantID,
			EventType:  eventType,
			Payload:    payload,
			Status:     core.DeliveryStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		stored, createErr := d.deliveries.Create(ctx, delivery)
		if createErr != nil {
			stats.Failed++
			fireErr = joinErrors(fireErr, fmt.Errorf("outbound: create delivery for endpoint %s: %w", endpoint.ID, createErr))
			continue
		}

		task := DeliveryTask{
			DeliveryID:    stored.ID,
			EndpointID:    endpoint.ID,
			URL:           endpoint.URL,
			Secret:        endpoint.SigningSecret,
			CustomHeaders: endpoint.CustomHeaders,
			EventType:     eventType,
			Timestamp:     envelope.Timestamp,
			Payload:       payload,
		}
		if enqueueErr := d.enqueuer.Enqueue(ctx, task.Message()); enqueueErr != nil {
			stats.Failed++
			reason := "enqueue failed: " + enqueueErr.Error()
			if failErr := d.deliveries.RecordFailure(ctx, stored.ID, 0, "", reason, nil); failErr != nil {
				fireErr = joinErrors(fireErr, failErr)
			}
			fireErr = joinErrors(fireErr, fmt.Errorf("outbound: enqueue delivery %s: %w", stored.ID, enqueueErr))
			continue
		}
		stats.Enqueued++
	}

	d.metrics.IncCounter(ctx, "webhooks.fire.total", 1, map[string]string{
		"tenant_id":  tenantID,
		"event_type": eventType,
	})
	d.metrics.IncCounter(ctx, "webhooks.fire.deliveries", int64(stats.Enqueued), map[string]string{
		"tenant_id":  tenantID,
		"event_type": eventType,
	})
	return stats, fireErr
}

func (d *Dispatcher) clock() time.Time {
	if d == nil || d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

func joinErrors(existing error, next error) error {
	if existing == nil {
		return next
	}
	if next == nil {
		return existing
	}
	return fmt.Errorf("%w; %v", existing, next)
}
