package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/outbound"
)

type MutatingService interface {
	RegisterEndpoint(ctx context.Context, input core.RegisterEndpointInput) (core.RegisterEndpointResult, error)
	UpdateEndpoint(ctx context.Context, input core.UpdateEndpointInput) (core.Endpoint, error)
	DeleteEndpoint(ctx context.Context, id string) error
	RotateEndpointSecret(ctx context.Context, id string) (string, error)
}

type EventDispatcher interface {
	Fire(ctx context.Context, eventType string, data map[string]any, tenantID string) (outbound.FireStats, error)
}

type InboundProcessor interface {
	Process(ctx context.Context, eventID string) error
}

type WebhookDeliverer interface {
	Deliver(ctx context.Context, task outbound.DeliveryTask) error
}

type RegisterEndpointCommand struct {
	service MutatingService
}

func NewRegisterEndpointCommand(service MutatingService) *RegisterEndpointCommand {
	return &RegisterEndpointCommand{service: service}
}

func (c *RegisterEndpointCommand) Execute(ctx context.Context, msg RegisterEndpointMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: endpoint service is required")
	}
	out, err := c.service.RegisterEndpoint(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateEndpointCommand struct {
	service MutatingService
}

func NewUpdateEndpointCommand(service MutatingService) *UpdateEndpointCommand {
	return &UpdateEndpointCommand{service: service}
}

func (c *UpdateEndpointCommand) Execute(ctx context.Context, msg UpdateEndpointMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: endpoint service is required")
	}
	out, err := c.service.UpdateEndpoint(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteEndpointCommand struct {
	service MutatingService
}

func NewDeleteEndpointCommand(service MutatingService) *DeleteEndpointCommand {
	return &DeleteEndpointCommand{service: service}
}

func (c *DeleteEndpointCommand) Execute(ctx context.Context, msg DeleteEndpointMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: endpoint service is required")
	}
	return c.service.DeleteEndpoint(ctx, msg.ID)
}

type RotateEndpointSecretCommand struct {
	service MutatingService
}

func NewRotateEndpointSecretCommand(service MutatingService) *RotateEndpointSecretCommand {
	return &RotateEndpointSecretCommand{service: service}
}

func (c *RotateEndpointSecretCommand) Execute(ctx context.Context, msg RotateEndpointSecretMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: endpoint service is required")
	}
	secret, err := c.service.RotateEndpointSecret(ctx, msg.ID)
	if err != nil {
		return err
	}
	storeResult(ctx, secret)
	return nil
}

type FireEventCommand struct {
	dispatcher EventDispatcher
}

func NewFireEventCommand(dispatcher EventDispatcher) *FireEventCommand {
	return &FireEventCommand{dispatcher: dispatcher}
}

func (c *FireEventCommand) Execute(ctx context.Context, msg FireEventMessage) error {
	if c == nil || c.dispatcher == nil {
		return commandDependencyError("command: event dispatcher is required")
	}
	stats, err := c.dispatcher.Fire(ctx, msg.EventType, msg.Data, msg.TenantID)
	if err != nil {
		return err
	}
	storeResult(ctx, stats)
	return nil
}

type ProcessInboundEventCommand struct {
	processor InboundProcessor
}

func NewProcessInboundEventCommand(processor InboundProcessor) *ProcessInboundEventCommand {
	return &ProcessInboundEventCommand{processor: processor}
}

func (c *ProcessInboundEventCommand) Execute(ctx context.Context, msg ProcessInboundEventMessage) error {
	if c == nil || c.processor == nil {
		return commandDependencyError("command: inbound processor is required")
	}
	return c.processor.Process(ctx, msg.EventID)
}

// DeliverWebhookCommand returns the deliverer's error unwrapped so the
// queue worker can distinguish retryable delivery failures from
// terminal ones.
type DeliverWebhookCommand struct {
	deliverer WebhookDeliverer
}

func NewDeliverWebhookCommand(deliverer WebhookDeliverer) *DeliverWebhookCommand {
	return &DeliverWebhookCommand{deliverer: deliverer}
}

func (c *DeliverWebhookCommand) Execute(ctx context.Context, msg DeliverWebhookMessage) error {
	if c == nil || c.deliverer == nil {
		return commandDependencyError("command: webhook deliverer is required")
	}
	return c.deliverer.Deliver(ctx, msg.Task)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
