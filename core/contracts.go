package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// InboundRequest carries one provider webhook request through
// verification and ingestion. Body holds the exact raw request bytes:
// every signature scheme signs the bytes as sent, so re-serializing
// parsed JSON before verifying breaks verification.
type InboundRequest struct {
	TenantID   string
	ProviderID string
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	EventID    string
	Deduped    bool
	Unverified bool
	Metadata   map[string]any
}

// ProviderEvent is the canonical shape every provider payload is parsed
// into before persistence.
type ProviderEvent struct {
	EventType       string
	ExternalEventID string
	Data            map[string]any
}

// SignatureScheme verifies one provider's signing style against the raw
// request bytes. Implementations are stateless with respect to tenants:
// the credential is supplied per call.
type SignatureScheme interface {
	Verify(ctx context.Context, req InboundRequest, cred Credential) error
}

// Provider binds a provider identity to its signature scheme and payload
// parser. Adding a provider means adding an implementation, not widening
// a switch in the gateway.
type Provider interface {
	ID() string
	Scheme() SignatureScheme
	ParseEvent(req InboundRequest) (ProviderEvent, error)
}

// HeaderRecorder is implemented by providers that want specific request
// headers persisted with the stored event, typically the signing
// material needed to audit or re-verify it later. Headers outside the
// declared set are dropped before persistence.
type HeaderRecorder interface {
	RecordedHeaders() []string
}

type Registry interface {
	Register(provider Provider) error
	Get(providerID string) (Provider, bool)
	List() []Provider
}

// CredentialResolver is the read-only lookup of per-tenant, per-provider
// signing material. A miss returns ErrCredentialNotFound.
type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string, providerID string) (Credential, error)
}

// EventStore persists inbound events. InsertIfAbsent is the authoritative
// concurrency guard: a uniqueness violation on the idempotency triple is
// reported as deduped=true, never as an error.
type EventStore interface {
	InsertIfAbsent(ctx context.Context, event InboundEvent) (InboundEvent, bool, error)
	Get(ctx context.Context, id string) (InboundEvent, error)
	GetByKey(ctx context.Context, tenantID, providerID, externalEventID string) (InboundEvent, error)
	UpdateStatus(ctx context.Context, id string, status InboundEventStatus, reason string) error
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]InboundEvent, error)
}

type EndpointStore interface {
	Create(ctx context.Context, endpoint Endpoint) (Endpoint, error)
	Update(ctx context.Context, endpoint Endpoint) (Endpoint, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Endpoint, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Endpoint, error)
	ListActiveByTenant(ctx context.Context, tenantID string) ([]Endpoint, error)
	RotateSecret(ctx context.Context, id string, secret string) error
	RecordHealth(ctx context.Context, id string, status DeliveryStatus, at time.Time) error
}

type DeliveryStore interface {
	Create(ctx context.Context, delivery Delivery) (Delivery, error)
	Get(ctx context.Context, id string) (Delivery, error)
	RecordSuccess(ctx context.Context, id string, responseCode int, responseBody string, at time.Time) error
	RecordFailure(ctx context.Context, id string, responseCode int, responseBody string, reason string, nextAttempt *time.Time) error
	ListRecentByEndpoint(ctx context.Context, endpointID string, limit int) ([]Delivery, error)
}

// InboundProcessor is the external collaborator that applies business
// logic to a verified inbound event. It must tolerate repeat invocation
// for the same event id.
type InboundProcessor interface {
	ProcessEvent(ctx context.Context, event InboundEvent) error
}

// Job identifiers the queue adapters route on.
const (
	JobIDInboundProcess = "webhooks.inbound.process"
	JobIDDeliverySend   = "webhooks.delivery.send"
)

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type StoreProvider interface {
	EventStore() EventStore
	EndpointStore() EndpointStore
	DeliveryStore() DeliveryStore
	CredentialResolver() CredentialResolver
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}
