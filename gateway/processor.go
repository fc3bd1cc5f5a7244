package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/RustMunkey/quickdash-sub005/core"
)

// Processor is the async half of ingestion: it loads a persisted event
// by id and applies business processing. It tolerates repeat delivery
// of the same job and accepts rows still in pending when the gateway
// crashed before flipping them to processing.
type Processor struct {
	events  core.EventStore
	handler core.InboundProcessor
	logger  core.Logger
	metrics core.MetricsRecorder

	Now func() time.Time
}

func NewProcessor(deps core.ServiceDependencies, handler core.InboundProcessor) (*Processor, error) {
	if deps.EventStore == nil {
		return nil, fmt.Errorf("gateway: event store is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("gateway: inbound processor is required")
	}
	metrics := deps.MetricsRecorder
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &Processor{
		events:  deps.EventStore,
		handler: handler,
		logger:  deps.Logger,
		metrics: metrics,
		Now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *Processor) Process(ctx context.Context, eventID string) error {
	if p == nil {
		return gatewayInternal("gateway: processor is nil", nil)
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return gatewayBadInput("gateway: event id is required", nil)
	}

	event, err := p.events.Get(ctx, eventID)
	if err != nil {
		return gatewayWrapError(
			err,
			goerrors.CategoryNotFound,
			"gateway: load inbound event",
			404,
			core.WebhookErrorNotFound,
			map[string]any{"event_id": eventID},
		)
	}

	switch event.Status {
	case core.EventStatusProcessed, core.EventStatusSkipped:
		// Redelivered job for a finished event.
		return nil
	case core.EventStatusPending:
		if err := p.events.UpdateStatus(ctx, event.ID, core.EventStatusProcessing, ""); err != nil {
			return gatewayWrapError(
				err,
				goerrors.CategoryOperation,
				"gateway: flip event to processing",
				500,
				core.WebhookErrorOperationFailed,
				map[string]any{"event_id": event.ID},
			)
		}
		event.Status = core.EventStatusProcessing
	case core.EventStatusFailed:
		// Manual reprocess path.
		if err := p.events.UpdateStatus(ctx, event.ID, core.EventStatusProcessing, ""); err != nil {
			return gatewayWrapError(
				err,
				goerrors.CategoryOperation,
				"gateway: flip failed event to processing",
				500,
				core.WebhookErrorOperationFailed,
				map[string]any{"event_id": event.ID},
			)
		}
		event.Status = core.EventStatusProcessing
	}

	tags := map[string]string{
		"tenant_id":   event.TenantID,
		"provider_id": event.ProviderID,
	}
	if err := p.handler.ProcessEvent(ctx, event); err != nil {
		if statusErr := p.events.UpdateStatus(ctx, event.ID, core.EventStatusFailed, err.Error()); statusErr != nil {
			p.metrics.IncCounter(ctx, "webhooks.process.status_update_failed", 1, tags)
		}
		p.metrics.IncCounter(ctx, "webhooks.process.failed", 1, tags)
		return gatewayWrapError(
			err,
			goerrors.CategoryOperation,
			"gateway: inbound event processing failed",
			500,
			core.WebhookErrorOperationFailed,
			map[string]any{"event_id": event.ID},
		)
	}

	if err := p.events.UpdateStatus(ctx, event.ID, core.EventStatusProcessed, ""); err != nil {
		return gatewayWrapError(
			err,
			goerrors.CategoryOperation,
			"gateway: mark event processed",
			500,
			core.WebhookErrorOperationFailed,
			map[string]any{"event_id": event.ID},
		)
	}
	p.metrics.IncCounter(ctx, "webhooks.process.succeeded", 1, tags)
	return nil
}
