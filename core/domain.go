package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidEventStatusTransition    = errors.New("core: invalid inbound event status transition")
	ErrInvalidDeliveryStatusTransition = errors.New("core: invalid delivery status transition")
	ErrInvalidEndpointURL              = errors.New("core: endpoint url must use https")
	ErrUnknownEventType                = errors.New("core: unknown event type")
	ErrCredentialNotFound              = errors.New("core: credential not found")
	ErrEventNotFound                   = errors.New("core: inbound event not found")
	ErrEndpointNotFound                = errors.New("core: endpoint not found")
	ErrDeliveryNotFound                = errors.New("core: delivery not found")
)

type CredentialMode string

const (
	CredentialModeLive    CredentialMode = "live"
	CredentialModeSandbox CredentialMode = "sandbox"
)

// Credential is the per-(tenant, provider) signing material. It is owned
// and rotated by the integrations module; this subsystem only reads it.
type Credential struct {
	TenantID   string
	ProviderID string
	Secret     string
	Token      string
	Mode       CredentialMode
	Metadata   map[string]string
}

func (c Credential) Sandbox() bool {
	return c.Mode == CredentialModeSandbox
}

type InboundEventStatus string

const (
	EventStatusPending    InboundEventStatus = "pending"
	EventStatusProcessing InboundEventStatus = "processing"
	EventStatusProcessed  InboundEventStatus = "processed"
	EventStatusFailed     InboundEventStatus = "failed"
	EventStatusSkipped    InboundEventStatus = "skipped"
)

// InboundEvent is one externally received, distinct event. The triple
// (TenantID, ProviderID, ExternalEventID) is the idempotency key; the
// storage layer enforces its uniqueness.
type InboundEvent struct {
	ID              string
	TenantID        string
	ProviderID      string
	ExternalEventID string
	EventType       string
	Payload         []byte
	Headers         map[string]string
	Status          InboundEventStatus
	Unverified      bool
	Error           string
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
}

func (e *InboundEvent) TransitionTo(status InboundEventStatus, reason string, now time.Time) error {
	if e == nil {
		return nil
	}
	if e.Status == status {
		if strings.TrimSpace(reason) != "" {
			e.Error = strings.TrimSpace(reason)
		}
		return nil
	}
	if !eventTransitionAllowed(e.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidEventStatusTransition, e.Status, status)
	}
	e.Status = status
	if strings.TrimSpace(reason) != "" {
		e.Error = strings.TrimSpace(reason)
	}
	if status == EventStatusProcessed || status == EventStatusSkipped {
		at := now.UTC()
		e.ProcessedAt = &at
		e.Error = ""
	}
	return nil
}

// Both pending and processing are valid entry states for the async
// processor: a crash between enqueue and the processing flip leaves a
// pending row with a job already in flight.
func eventTransitionAllowed(current, next InboundEventStatus) bool {
	allowed := map[InboundEventStatus]map[InboundEventStatus]struct{}{
		EventStatusPending: {
			EventStatusProcessing: {},
			EventStatusProcessed:  {},
			EventStatusFailed:     {},
			EventStatusSkipped:    {},
		},
		EventStatusProcessing: {
			EventStatusProcessed: {},
			EventStatusFailed:    {},
			EventStatusSkipped:   {},
		},
		EventStatusFailed: {
			EventStatusProcessing: {},
		},
		EventStatusProcessed: {},
		EventStatusSkipped:   {},
	}
	_, ok := allowed[current][next]
	return ok
}

// Endpoint is a tenant-registered delivery target.
type Endpoint struct {
	ID                 string
	TenantID           string
	URL                string
	SubscribedEvents   []string
	SigningSecret      string
	CustomHeaders      map[string]string
	Active             bool
	LastDeliveryAt     *time.Time
	LastDeliveryStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Subscribed reports whether the endpoint should receive eventType,
// honoring the "*" wildcard.
func (e Endpoint) Subscribed(eventType string) bool {
	eventType = strings.TrimSpace(eventType)
	for _, subscribed := range e.SubscribedEvents {
		subscribed = strings.TrimSpace(subscribed)
		if subscribed == EventWildcard || subscribed == eventType {
			return true
		}
	}
	return false
}

// ValidateEndpointURL enforces the encrypted-transport invariant at
// write time.
func ValidateEndpointURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidEndpointURL)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpointURL, err)
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("%w: got %q", ErrInvalidEndpointURL, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidEndpointURL)
	}
	return nil
}

type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSuccess DeliveryStatus = "success"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// Delivery is one (endpoint, firing) pair: exactly one row per matching
// endpoint per fired event. Attempts only increase; a terminal status is
// only advanced by the next attempt, never reopened.
type Delivery struct {
	ID           string
	EndpointID   string
	TenantID     string
	EventType    string
	Payload      []byte
	Status       DeliveryStatus
	ResponseCode int
	ResponseBody string
	Error        string
	Attempts     int
	NextAttempt  *time.Time
	DeliveredAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (d *Delivery) TransitionTo(status DeliveryStatus, now time.Time) error {
	if d == nil {
		return nil
	}
	if d.Status == status {
		d.UpdatedAt = now
		return nil
	}
	if !deliveryTransitionAllowed(d.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidDeliveryStatusTransition, d.Status, status)
	}
	d.Status = status
	d.UpdatedAt = now
	return nil
}

func deliveryTransitionAllowed(current, next DeliveryStatus) bool {
	allowed := map[DeliveryStatus]map[DeliveryStatus]struct{}{
		DeliveryStatusPending: {
			DeliveryStatusSuccess: {},
			DeliveryStatusFailed:  {},
		},
		// failed -> success covers the next attempt succeeding after
		// earlier failures; failed stays terminal once the attempt
		// ceiling is reached because no further attempt runs.
		DeliveryStatusFailed: {
			DeliveryStatusSuccess: {},
		},
		DeliveryStatusSuccess: {},
	}
	_, ok := allowed[current][next]
	return ok
}
