package resend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/verify"
)

const ProviderID = "resend"

const (
	headerID        = "webhook-id"
	headerTimestamp = "webhook-timestamp"
	headerSignature = "webhook-signature"

	secretPrefix = "whsec_"
)

type Config struct {
	ReplayWindow time.Duration
	Now          func() time.Time
}

// Provider handles Resend email webhooks, which follow the svix signing
// convention: timestamped multi-signature headers with a base64 secret.
// The webhook-id header doubles as the dedupe key.
type Provider struct {
	scheme core.SignatureScheme
}

func New(cfg Config) *Provider {
	return &Provider{
		scheme: verify.TimestampedScheme{
			IDHeader:        headerID,
			TimestampHeader: headerTimestamp,
			SignatureHeader: headerSignature,
			SecretPrefix:    secretPrefix,
			VersionTag:      "v1",
			ReplayWindow:    cfg.ReplayWindow,
			Now:             cfg.Now,
		},
	}
}

func (p *Provider) ID() string {
	return ProviderID
}

func (p *Provider) Scheme() core.SignatureScheme {
	if p == nil {
		return nil
	}
	return p.scheme
}

// RecordedHeaders lists the request headers persisted with the event.
func (p *Provider) RecordedHeaders() []string {
	return []string{headerID, headerTimestamp, headerSignature}
}

type webhookPayload struct {
	Type      string         `json:"type"`
	CreatedAt string         `json:"created_at"`
	Data      map[string]any `json:"data"`
}

func (p *Provider) ParseEvent(req core.InboundRequest) (core.ProviderEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return core.ProviderEvent{}, fmt.Errorf("providers/resend: decode payload: %w", err)
	}
	eventType := strings.TrimSpace(payload.Type)
	if eventType == "" {
		return core.ProviderEvent{}, fmt.Errorf("providers/resend: type is required")
	}

	externalID := headerValue(req.Headers, headerID)
	if externalID == "" {
		return core.ProviderEvent{}, fmt.Errorf("providers/resend: %s header is required for dedupe", headerID)
	}

	data := payload.Data
	if data == nil {
		data = map[string]any{}
	}
	if strings.TrimSpace(payload.CreatedAt) != "" {
		data["created_at"] = payload.CreatedAt
	}
	return core.ProviderEvent{
		EventType:       eventType,
		ExternalEventID: externalID,
		Data:            data,
	}, nil
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var (
	_ core.Provider       = (*Provider)(nil)
	_ core.HeaderRecorder = (*Provider)(nil)
)
