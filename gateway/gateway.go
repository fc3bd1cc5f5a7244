package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/RustMunkey/quickdash-sub005/core"
)

// Gateway is the single entry point for provider webhooks. Ingest runs
// the synchronous leg: resolve the provider and credential, verify the
// raw bytes, parse, persist exactly once, and hand the event to the
// queue. Business processing happens later in the Processor.
type Gateway struct {
	config      core.Config
	logger      core.Logger
	metrics     core.MetricsRecorder
	registry    core.Registry
	credentials core.CredentialResolver
	events      core.EventStore
	enqueuer    core.JobEnqueuer

	Now func() time.Time
}

func New(cfg core.Config, deps core.ServiceDependencies) (*Gateway, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("gateway: provider registry is required")
	}
	if deps.CredentialResolver == nil {
		return nil, fmt.Errorf("gateway: credential resolver is required")
	}
	if deps.EventStore == nil {
		return nil, fmt.Errorf("gateway: event store is required")
	}
	metrics := deps.MetricsRecorder
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &Gateway{
		config:      cfg,
		logger:      deps.Logger,
		metrics:     metrics,
		registry:    deps.Registry,
		credentials: deps.CredentialResolver,
		events:      deps.EventStore,
		enqueuer:    deps.JobEnqueuer,
		Now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (g *Gateway) Ingest(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if g == nil {
		return core.InboundResult{}, gatewayInternal("gateway: gateway is nil", nil)
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	if req.TenantID == "" {
		return core.InboundResult{}, gatewayBadInput("gateway: tenant id is required", nil)
	}
	if req.ProviderID == "" {
		return core.InboundResult{}, gatewayBadInput("gateway: provider id is required", map[string]any{
			"tenant_id": req.TenantID,
		})
	}
	fields := map[string]any{
		"tenant_id":   req.TenantID,
		"provider_id": req.ProviderID,
	}

	provider, ok := g.registry.Get(req.ProviderID)
	if !ok {
		return core.InboundResult{}, gatewayError(
			fmt.Sprintf("gateway: provider %q is not registered", req.ProviderID),
			goerrors.CategoryNotFound,
			http.StatusNotFound,
			core.WebhookErrorProviderNotFound,
			fields,
		)
	}

	unverified := false
	cred, err := g.credentials.Resolve(ctx, req.TenantID, req.ProviderID)
	switch {
	case err == nil:
		if verifyErr := g.verify(ctx, provider, req, cred); verifyErr != nil {
			g.count(ctx, "webhooks.ingest.rejected", req, "unauthorized")
			return core.InboundResult{
					Accepted:   false,
					StatusCode: http.StatusUnauthorized,
				}, gatewayWrapError(
					verifyErr,
					goerrors.CategoryAuth,
					"gateway: signature verification failed",
					http.StatusUnauthorized,
					core.WebhookErrorUnauthorized,
					fields,
				)
		}
	case errors.Is(err, core.ErrCredentialNotFound):
		if !g.config.Inbound.AllowUnverified {
			g.count(ctx, "webhooks.ingest.rejected", req, "unconfigured")
			return core.InboundResult{}, gatewayWrapError(
				err,
				goerrors.CategoryNotFound,
				fmt.Sprintf("gateway: tenant %q has no %q credential", req.TenantID, req.ProviderID),
				http.StatusNotFound,
				core.WebhookErrorUnconfiguredTenant,
				fields,
			)
		}
		// Explicitly opted in: admit the event but flag it so
		// downstream consumers can treat it accordingly.
		unverified = true
	default:
		return core.InboundResult{}, gatewayWrapError(
			err,
			goerrors.CategoryOperation,
			"gateway: resolve credential",
			http.StatusInternalServerError,
			core.WebhookErrorOperationFailed,
			fields,
		)
	}

	parsed, err := provider.ParseEvent(req)
	if err != nil {
		g.count(ctx, "webhooks.ingest.rejected", req, "malformed")
		return core.InboundResult{}, gatewayWrapError(
			err,
			goerrors.CategoryBadInput,
			"gateway: parse provider event",
			http.StatusBadRequest,
			core.WebhookErrorBadInput,
			fields,
		)
	}
	if strings.TrimSpace(parsed.ExternalEventID) == "" {
		return core.InboundResult{}, gatewayBadInput("gateway: external event id is required for dedupe", fields)
	}

	now := g.clock()
	event := core.InboundEvent{
		ID:              uuid.NewString(),
		TenantID:        req.TenantID,
		ProviderID:      req.ProviderID,
		ExternalEventID: strings.TrimSpace(parsed.ExternalEventID),
		EventType:       strings.TrimSpace(parsed.EventType),
		Payload:         req.Body,
		Headers:         recordedHeaders(provider, req.Headers),
		Status:          core.EventStatusPending,
		Unverified:      unverified,
		ReceivedAt:      now,
	}

	stored, deduped, err := g.events.InsertIfAbsent(ctx, event)
	if err != nil {
		return core.InboundResult{}, gatewayWrapError(
			err,
			goerrors.CategoryOperation,
			"gateway: persist inbound event",
			http.StatusInternalServerError,
			core.WebhookErrorOperationFailed,
			fields,
		)
	}
	if deduped {
		g.count(ctx, "webhooks.ingest.deduped", req, "")
		return core.InboundResult{
			Accepted:   true,
			StatusCode: http.StatusOK,
			EventID:    stored.ID,
			Deduped:    true,
			Unverified: unverified,
		}, nil
	}

	if g.enqueuer != nil {
		enqueueErr := g.enqueuer.Enqueue(ctx, &core.JobExecutionMessage{
			JobID: core.JobIDInboundProcess,
			Parameters: map[string]any{
				"event_id": stored.ID,
			},
			IdempotencyKey: req.TenantID + ":" + req.ProviderID + ":" + stored.ExternalEventID,
			DedupPolicy:    "ignore",
		})
		if enqueueErr != nil {
			// The row survives as failed so a later reprocess can pick
			// it up; the provider gets a retryable status.
			if statusErr := g.events.UpdateStatus(ctx, stored.ID, core.EventStatusFailed, "enqueue failed: "+enqueueErr.Error()); statusErr != nil {
				enqueueErr = errors.Join(enqueueErr, statusErr)
			}
			g.count(ctx, "webhooks.ingest.enqueue_failed", req, "")
			return core.InboundResult{}, gatewayWrapError(
				enqueueErr,
				goerrors.CategoryOperation,
				"gateway: enqueue inbound processing job",
				http.StatusInternalServerError,
				core.WebhookErrorOperationFailed,
				fields,
			)
		}
		if statusErr := g.events.UpdateStatus(ctx, stored.ID, core.EventStatusProcessing, ""); statusErr != nil {
			// The job is already queued; the processor accepts pending
			// rows, so this is log-only.
			g.logWarn(ctx, "gateway: flip event to processing failed", map[string]any{
				"event_id": stored.ID,
				"error":    statusErr.Error(),
			})
		}
	}

	g.count(ctx, "webhooks.ingest.accepted", req, "")
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusAccepted,
		EventID:    stored.ID,
		Unverified: unverified,
	}, nil
}

// recordedHeaders keeps only the headers the provider declared plus the
// content type. Inbound requests carry transport noise (auth material,
// proxy headers) that must not land in the event row.
func recordedHeaders(provider core.Provider, headers map[string]string) map[string]string {
	keep := []string{"Content-Type"}
	if recorder, ok := provider.(core.HeaderRecorder); ok {
		keep = append(keep, recorder.RecordedHeaders()...)
	}
	out := make(map[string]string, len(keep))
	for _, want := range keep {
		for key, value := range headers {
			if strings.EqualFold(strings.TrimSpace(key), want) {
				out[want] = value
				break
			}
		}
	}
	return out
}

func (g *Gateway) verify(ctx context.Context, provider core.Provider, req core.InboundRequest, cred core.Credential) error {
	scheme := provider.Scheme()
	if scheme == nil {
		return fmt.Errorf("gateway: provider %q has no signature scheme", provider.ID())
	}
	return scheme.Verify(ctx, req, cred)
}

func (g *Gateway) count(ctx context.Context, name string, req core.InboundRequest, reason string) {
	if g == nil || g.metrics == nil {
		return
	}
	tags := map[string]string{
		"tenant_id":   req.TenantID,
		"provider_id": req.ProviderID,
	}
	if reason != "" {
		tags["reason"] = reason
	}
	g.metrics.IncCounter(ctx, name, 1, tags)
}

func (g *Gateway) logWarn(ctx context.Context, message string, fields map[string]any) {
	if g == nil || g.logger == nil {
		return
	}
	logger := g.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	logger.Warn(message, args...)
}

func (g *Gateway) clock() time.Time {
	if g == nil || g.Now == nil {
		return time.Now().UTC()
	}
	return g.Now().UTC()
}
