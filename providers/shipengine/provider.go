package shipengine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/verify"
)

const ProviderID = "shipengine"

const (
	headerSignature  = "X-ShipEngine-Signature"
	headerDeliveryID = "X-ShipEngine-Delivery-Id"
)

// Provider handles ShipEngine tracking webhooks. Requests are signed
// with a static shared secret, hex HMAC-SHA256 over the raw body; the
// delivery id header is the dedupe key.
type Provider struct {
	scheme core.SignatureScheme
}

func New() *Provider {
	return &Provider{
		scheme: verify.StaticHMACScheme{
			Header:   headerSignature,
			Encoding: "hex",
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
	return []string{headerSignature, headerDeliveryID}
}

type webhookPayload struct {
	ResourceType string         `json:"resource_type"`
	ResourceURL  string         `json:"resource_url"`
	Data         map[string]any `json:"data"`
}

func (p *Provider) ParseEvent(req core.InboundRequest) (core.ProviderEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return core.ProviderEvent{}, fmt.Errorf("providers/shipengine: decode payload: %w", err)
	}
	eventType := strings.ToLower(strings.TrimSpace(payload.ResourceType))
	if eventType == "" {
		return core.ProviderEvent{}, fmt.Errorf("providers/shipengine: resource_type is required")
	}

	deliveryID := headerValue(req.Headers, headerDeliveryID)
	if deliveryID == "" {
		return core.ProviderEvent{}, fmt.Errorf("providers/shipengine: %s header is required for dedupe", headerDeliveryID)
	}

	data := payload.Data
	if data == nil {
		data = map[string]any{}
	}
	if strings.TrimSpace(payload.ResourceURL) != "" {
		data["resource_url"] = payload.ResourceURL
	}
	return core.ProviderEvent{
		EventType:       eventType,
		ExternalEventID: deliveryID,
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
