package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/verify"
)

const ProviderID = "stripe"

const headerSignature = "Stripe-Signature"

// Provider handles Stripe webhooks. Verification is delegated to the
// official SDK, which checks the timestamped signature header and its
// own replay tolerance against the endpoint secret.
type Provider struct {
	scheme core.SignatureScheme
}

func New() *Provider {
	return &Provider{
		scheme: verify.SDKScheme{
			SignatureHeader: headerSignature,
			VerifyFunc: func(payload []byte, header string, secret string) error {
				_, err := webhook.ConstructEvent(payload, header, secret)
				return err
			},
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
	return []string{headerSignature}
}

func (p *Provider) ParseEvent(req core.InboundRequest) (core.ProviderEvent, error) {
	var event stripeapi.Event
	if err := json.Unmarshal(req.Body, &event); err != nil {
		return core.ProviderEvent{}, fmt.Errorf("providers/stripe: decode payload: %w", err)
	}
	if strings.TrimSpace(event.ID) == "" {
		return core.ProviderEvent{}, fmt.Errorf("providers/stripe: event id is required for dedupe")
	}
	if strings.TrimSpace(string(event.Type)) == "" {
		return core.ProviderEvent{}, fmt.Errorf("providers/stripe: event type is required")
	}

	data := map[string]any{}
	if event.Data != nil {
		if len(event.Data.Raw) > 0 {
			var object map[string]any
			if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
				return core.ProviderEvent{}, fmt.Errorf("providers/stripe: decode event object: %w", err)
			}
			data = object
		} else if event.Data.Object != nil {
			data = event.Data.Object
		}
	}
	return core.ProviderEvent{
		EventType:       string(event.Type),
		ExternalEventID: event.ID,
		Data:            data,
	}, nil
}

var (
	_ core.Provider       = (*Provider)(nil)
	_ core.HeaderRecorder = (*Provider)(nil)
)
