package outbound

import (
	"fmt"
	"strings"

	"github.com/RustMunkey/quickdash-sub005/core"
)

// DeliveryTask is the self-contained unit of outbound work. Everything
// the executor needs travels with the task; the queue payload is the
// single source of truth for an in-flight delivery.
type DeliveryTask struct {
	DeliveryID    string
	EndpointID    string
	URL           string
	Secret        string
	CustomHeaders map[string]string
	EventType     string
	Timestamp     string
	Payload       []byte
}

func (t DeliveryTask) Message() *core.JobExecutionMessage {
	headers := make(map[string]any, len(t.CustomHeaders))
	for key, value := range t.CustomHeaders {
		headers[key] = value
	}
	return &core.JobExecutionMessage{
		JobID: core.JobIDDeliverySend,
		Parameters: map[string]any{
			"delivery_id":    t.DeliveryID,
			"endpoint_id":    t.EndpointID,
			"url":            t.URL,
			"secret":         t.Secret,
			"custom_headers": headers,
			"event_type":     t.EventType,
			"timestamp":      t.Timestamp,
			"payload":        string(t.Payload),
		},
		IdempotencyKey: t.DeliveryID,
		DedupPolicy:    "ignore",
	}
}

func TaskFromParameters(params map[string]any) (DeliveryTask, error) {
	task := DeliveryTask{
		DeliveryID: paramString(params, "delivery_id"),
		EndpointID: paramString(params, "endpoint_id"),
		URL:        paramString(params, "url"),
		Secret:     paramString(params, "secret"),
		EventType:  paramString(params, "event_type"),
		Timestamp:  paramString(params, "timestamp"),
	}
	// The payload bytes are signed verbatim, so they are never trimmed
	// or re-encoded.
	if raw, ok := params["payload"].(string); ok {
		task.Payload = []byte(raw)
	}
	if task.DeliveryID == "" {
		return DeliveryTask{}, fmt.Errorf("outbound: delivery_id parameter is required")
	}
	if task.URL == "" {
		return DeliveryTask{}, fmt.Errorf("outbound: url parameter is required")
	}
	if len(task.Payload) == 0 {
		return DeliveryTask{}, fmt.Errorf("outbound: payload parameter is required")
	}

	if raw, ok := params["custom_headers"]; ok {
		switch typed := raw.(type) {
		case map[string]any:
			task.CustomHeaders = make(map[string]string, len(typed))
			for key, value := range typed {
				task.CustomHeaders[key] = fmt.Sprint(value)
			}
		case map[string]string:
			task.CustomHeaders = make(map[string]string, len(typed))
			for key, value := range typed {
				task.CustomHeaders[key] = value
			}
		}
	}
	return task, nil
}

func paramString(params map[string]any, key string) string {
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		text = fmt.Sprint(value)
	}
	return strings.TrimSpace(text)
}
