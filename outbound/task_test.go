package outbound

import (
	"testing"
)

func TestTaskRoundTrip(t *testing.T) {
	original := DeliveryTask{
		DeliveryID:    "del-1",
		EndpointID:    "ep-1",
		URL:           "https://example.com/hook",
		Secret:        "whsec_x",
		CustomHeaders: map[string]string{"X-Team": "growth"},
		EventType:     "order.created",
		Timestamp:     "2026-03-01T10:00:00Z",
		Payload:       []byte(`{"event":"order.created"}`),
	}

	message := original.Message()
	decoded, err := TaskFromParameters(message.Parameters)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.DeliveryID != original.DeliveryID || decoded.URL != original.URL {
		t.Fatalf("identity fields lost: %+v", decoded)
	}
	if string(decoded.Payload) != string(original.Payload) {
		t.Fatalf("payload altered: %q", decoded.Payload)
	}
	if decoded.CustomHeaders["X-Team"] != "growth" {
		t.Fatalf("headers lost: %+v", decoded.CustomHeaders)
	}
	if message.IdempotencyKey != original.DeliveryID {
		t.Fatalf("expected delivery id as idempotency key, got %q", message.IdempotencyKey)
	}
}

func TestTaskFromParametersValidation(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]any
	}{
		{"missing delivery id", map[string]any{"url": "https://x", "payload": "{}"}},
		{"missing url", map[string]any{"delivery_id": "d", "payload": "{}"}},
		{"missing payload", map[string]any{"delivery_id": "d", "url": "https://x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := TaskFromParameters(tc.params); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestTaskFromParametersStringHeaderMap(t *testing.T) {
	// Queue backends that round-trip through JSON hand headers back as
	// map[string]any; in-process enqueue keeps map[string]string.
	task, err := TaskFromParameters(map[string]any{
		"delivery_id":    "d",
		"url":            "https://x",
		"payload":        "{}",
		"custom_headers": map[string]string{"X-A": "1"},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.CustomHeaders["X-A"] != "1" {
		t.Fatalf("headers lost: %+v", task.CustomHeaders)
	}
}
