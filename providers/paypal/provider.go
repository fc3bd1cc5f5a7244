package paypal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/verify"
)

const ProviderID = "paypal"

const (
	// DefaultAPIBase is the live environment. Sandbox tenants get a
	// provider constructed with SandboxAPIBase instead.
	DefaultAPIBase = "https://api-m.paypal.com"
	SandboxAPIBase = "https://api-m.sandbox.paypal.com"
)

const (
	headerAuthAlgo         = "Paypal-Auth-Algo"
	headerCertURL          = "Paypal-Cert-Url"
	headerTransmissionID   = "Paypal-Transmission-Id"
	headerTransmissionSig  = "Paypal-Transmission-Sig"
	headerTransmissionTime = "Paypal-Transmission-Time"
)

type Config struct {
	APIBase    string
	HTTPClient *http.Client
	Now        func() time.Time
}

// Provider handles PayPal webhooks. PayPal does not expose signing
// secrets for local verification, so the scheme POSTs the transmission
// material to /v1/notifications/verify-webhook-signature and trusts the
// provider's verdict. The per-tenant webhook id lives in the credential
// metadata under "webhook_id".
type Provider struct {
	scheme core.SignatureScheme
}

func New(cfg Config) *Provider {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	return &Provider{
		scheme: &verify.RemoteScheme{
			TokenURL:     base + "/v1/oauth2/token",
			VerifyURL:    base + "/v1/notifications/verify-webhook-signature",
			HTTPClient:   cfg.HTTPClient,
			Now:          cfg.Now,
			BuildPayload: buildVerificationPayload,
			Verdict:      verificationVerdict,
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
// The transmission material is kept so a stored event can be re-verified
// against PayPal later.
func (p *Provider) RecordedHeaders() []string {
	return []string{
		headerAuthAlgo,
		headerCertURL,
		headerTransmissionID,
		headerTransmissionSig,
		headerTransmissionTime,
	}
}

func buildVerificationPayload(req core.InboundRequest, cred core.Credential) (map[string]any, error) {
	webhookID := strings.TrimSpace(cred.Metadata["webhook_id"])
	if webhookID == "" {
		return nil, fmt.Errorf("providers/paypal: webhook_id credential metadata is required")
	}
	payload := map[string]any{
		"webhook_id": webhookID,
		// The raw bytes go through untouched so PayPal verifies exactly
		// what was sent.
		"webhook_event": json.RawMessage(req.Body),
	}
	for field, header := range map[string]string{
		"auth_algo":         headerAuthAlgo,
		"cert_url":          headerCertURL,
		"transmission_id":   headerTransmissionID,
		"transmission_sig":  headerTransmissionSig,
		"transmission_time": headerTransmissionTime,
	} {
		value := headerValue(req.Headers, header)
		if value == "" {
			return nil, fmt.Errorf("%w: %s", verify.ErrMissingSignature, header)
		}
		payload[field] = value
	}
	return payload, nil
}

func verificationVerdict(response map[string]any) bool {
	status, _ := response["verification_status"].(string)
	return strings.EqualFold(strings.TrimSpace(status), "SUCCESS")
}

type webhookPayload struct {
	ID           string         `json:"id"`
	EventType    string         `json:"event_type"`
	ResourceType string         `json:"resource_type"`
	Resource     map[string]any `json:"resource"`
}

func (p *Provider) ParseEvent(req core.InboundRequest) (core.ProviderEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return core.ProviderEvent{}, fmt.Errorf("providers/paypal: decode payload: %w", err)
	}
	if strings.TrimSpace(payload.ID) == "" {
		return core.ProviderEvent{}, fmt.Errorf("providers/paypal: event id is required for dedupe")
	}
	if strings.TrimSpace(payload.EventType) == "" {
		return core.ProviderEvent{}, fmt.Errorf("providers/paypal: event_type is required")
	}

	data := payload.Resource
	if data == nil {
		data = map[string]any{}
	}
	if strings.TrimSpace(payload.ResourceType) != "" {
		data["resource_type"] = payload.ResourceType
	}
	return core.ProviderEvent{
		EventType:       strings.TrimSpace(payload.EventType),
		ExternalEventID: strings.TrimSpace(payload.ID),
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
