package paypal

import (
	"errors"
	"testing"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/verify"
)

func TestParseEvent(t *testing.T) {
	provider := New(Config{})
	req := core.InboundRequest{
		Body: []byte(`{"id":"WH-7Y1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource_type":"capture","resource":{"amount":{"value":"10.99"}}}`),
	}

	event, err := provider.ParseEvent(req)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event.EventType != "PAYMENT.CAPTURE.COMPLETED" {
		t.Fatalf("unexpected event type %q", event.EventType)
	}
	if event.ExternalEventID != "WH-7Y1" {
		t.Fatalf("unexpected external id %q", event.ExternalEventID)
	}
	if event.Data["resource_type"] != "capture" {
		t.Fatalf("unexpected data: %v", event.Data)
	}
}

func TestParseEventMissingID(t *testing.T) {
	provider := New(Config{})
	req := core.InboundRequest{
		Body: []byte(`{"event_type":"PAYMENT.CAPTURE.COMPLETED"}`),
	}
	if _, err := provider.ParseEvent(req); err == nil {
		t.Fatal("expected error for missing event id")
	}
}

func TestBuildVerificationPayload(t *testing.T) {
	cred := core.Credential{
		Metadata: map[string]string{"webhook_id": "wh-cfg-1"},
	}
	req := core.InboundRequest{
		Headers: map[string]string{
			"Paypal-Auth-Algo":         "SHA256withRSA",
			"Paypal-Cert-Url":          "https://api.paypal.com/cert",
			"Paypal-Transmission-Id":   "tx-1",
			"Paypal-Transmission-Sig":  "sig==",
			"Paypal-Transmission-Time": "2026-03-01T10:00:00Z",
		},
		Body: []byte(`{"id":"WH-7Y1"}`),
	}

	payload, err := buildVerificationPayload(req, cred)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if payload["webhook_id"] != "wh-cfg-1" {
		t.Fatalf("unexpected webhook_id: %v", payload["webhook_id"])
	}
	if payload["transmission_id"] != "tx-1" {
		t.Fatalf("unexpected transmission_id: %v", payload["transmission_id"])
	}
}

func TestBuildVerificationPayloadMissingHeader(t *testing.T) {
	cred := core.Credential{Metadata: map[string]string{"webhook_id": "wh-cfg-1"}}
	req := core.InboundRequest{
		Headers: map[string]string{"Paypal-Transmission-Id": "tx-1"},
		Body:    []byte(`{}`),
	}
	_, err := buildVerificationPayload(req, cred)
	if !errors.Is(err, verify.ErrMissingSignature) {
		t.Fatalf("expected verify.ErrMissingSignature, got %v", err)
	}
}

func TestBuildVerificationPayloadMissingWebhookID(t *testing.T) {
	req := core.InboundRequest{Body: []byte(`{}`)}
	if _, err := buildVerificationPayload(req, core.Credential{}); err == nil {
		t.Fatal("expected error for missing webhook_id metadata")
	}
}

func TestVerificationVerdict(t *testing.T) {
	if !verificationVerdict(map[string]any{"verification_status": "SUCCESS"}) {
		t.Fatal("expected SUCCESS verdict to pass")
	}
	if verificationVerdict(map[string]any{"verification_status": "FAILURE"}) {
		t.Fatal("expected FAILURE verdict to fail")
	}
	if verificationVerdict(map[string]any{}) {
		t.Fatal("expected missing verdict to fail")
	}
}

func TestSandboxBase(t *testing.T) {
	provider := New(Config{APIBase: SandboxAPIBase})
	if provider.Scheme() == nil {
		t.Fatal("expected scheme for sandbox provider")
	}
}
