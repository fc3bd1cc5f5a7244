package command

import (
	"strings"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/outbound"
)

const (
	TypeRegisterEndpoint     = "webhooks.command.endpoint.register"
	TypeUpdateEndpoint       = "webhooks.command.endpoint.update"
	TypeDeleteEndpoint       = "webhooks.command.endpoint.delete"
	TypeRotateEndpointSecret = "webhooks.command.endpoint.rotate_secret"
	TypeFireEvent            = "webhooks.command.event.fire"
	TypeProcessInboundEvent  = "webhooks.command.inbound.process"
	TypeDeliverWebhook       = "webhooks.command.delivery.send"
)

type RegisterEndpointMessage struct {
	Input core.RegisterEndpointInput
}

func (RegisterEndpointMessage) Type() string { return TypeRegisterEndpoint }

func (m RegisterEndpointMessage) Validate() error {
	if strings.TrimSpace(m.Input.TenantID) == "" {
		return commandValidationError("tenant_id", "tenant id is required")
	}
	if strings.TrimSpace(m.Input.URL) == "" {
		return commandValidationError("url", "endpoint url is required")
	}
	if err := core.ValidateSubscriptions(m.Input.SubscribedEvents); err != nil {
		return commandWrapValidation(err, "command: invalid subscription list")
	}
	return nil
}

type UpdateEndpointMessage struct {
	Input core.UpdateEndpointInput
}

func (UpdateEndpointMessage) Type() string { return TypeUpdateEndpoint }

func (m UpdateEndpointMessage) Validate() error {
	if strings.TrimSpace(m.Input.ID) == "" {
		return commandValidationError("id", "endpoint id is required")
	}
	if m.Input.SubscribedEvents != nil {
		if err := core.ValidateSubscriptions(m.Input.SubscribedEvents); err != nil {
			return commandWrapValidation(err, "command: invalid subscription list")
		}
	}
	return nil
}

type DeleteEndpointMessage struct {
	ID string
}

func (DeleteEndpointMessage) Type() string { return TypeDeleteEndpoint }

func (m DeleteEndpointMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandValidationError("id", "endpoint id is required")
	}
	return nil
}

type RotateEndpointSecretMessage struct {
	ID string
}

func (RotateEndpointSecretMessage) Type() string { return TypeRotateEndpointSecret }

func (m RotateEndpointSecretMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandValidationError("id", "endpoint id is required")
	}
	return nil
}

type FireEventMessage struct {
	TenantID  string
	EventType string
	Data      map[string]any
}

func (FireEventMessage) Type() string { return TypeFireEvent }

func (m FireEventMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return commandValidationError("tenant_id", "tenant id is required")
	}
	if strings.TrimSpace(m.EventType) == "" {
		return commandValidationError("event_type", "event type is required")
	}
	return nil
}

type ProcessInboundEventMessage struct {
	EventID string
}

func (ProcessInboundEventMessage) Type() string { return TypeProcessInboundEvent }

func (m ProcessInboundEventMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return commandValidationError("event_id", "event id is required")
	}
	return nil
}

type DeliverWebhookMessage struct {
	Task outbound.DeliveryTask
}

func (DeliverWebhookMessage) Type() string { return TypeDeliverWebhook }

func (m DeliverWebhookMessage) Validate() error {
	if strings.TrimSpace(m.Task.DeliveryID) == "" {
		return commandValidationError("delivery_id", "delivery id is required")
	}
	if strings.TrimSpace(m.Task.URL) == "" {
		return commandValidationError("url", "destination url is required")
	}
	if len(m.Task.Payload) == 0 {
		return commandValidationError("payload", "payload is required")
	}
	return nil
}
