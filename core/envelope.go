package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Delivery headers. System headers win over tenant custom headers on
// key collision.
const (
	HeaderContentType = "Content-Type"
	HeaderSignature   = "X-Webhook-Signature"
	HeaderEvent       = "X-Webhook-Event"
	HeaderTimestamp   = "X-Webhook-Timestamp"

	SignaturePrefix = "sha256="
)

// Envelope is the canonical outbound payload shape. Its serialization is
// deterministic: field order is fixed by the struct and encoding/json
// sorts map keys, so the same envelope always signs to the same value.
type Envelope struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func NewEnvelope(eventType string, data map[string]any, now time.Time) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{
		Event:     strings.TrimSpace(eventType),
		Timestamp: now.UTC().Format(time.RFC3339),
		Data:      data,
	}
}

func (e Envelope) Marshal() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("core: marshal envelope: %w", err)
	}
	return body, nil
}

// SignPayload computes the outbound delivery signature:
// hex(HMAC-SHA256(secret, body)).
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// DeliveryHeaders merges system headers with tenant custom headers.
// System headers take precedence.
func DeliveryHeaders(envelope Envelope, signature string, custom map[string]string) map[string]string {
	headers := make(map[string]string, len(custom)+4)
	for key, value := range custom {
		key = strings.TrimSpace(key)
		if key == "" || isSystemHeader(key) {
			continue
		}
		headers[key] = value
	}
	headers[HeaderContentType] = "application/json"
	headers[HeaderSignature] = SignaturePrefix + signature
	headers[HeaderEvent] = envelope.Event
	headers[HeaderTimestamp] = envelope.Timestamp
	return headers
}

func isSystemHeader(key string) bool {
	for _, system := range []string{HeaderContentType, HeaderSignature, HeaderEvent, HeaderTimestamp} {
		if strings.EqualFold(key, system) {
			return true
		}
	}
	return false
}
