package quickdash

import (
	"fmt"

	webhookcommand "github.com/RustMunkey/quickdash-sub005/command"
	webhookquery "github.com/RustMunkey/quickdash-sub005/query"
)

type CommandQueryService interface {
	webhookcommand.MutatingService
	webhookquery.EndpointReader
	webhookquery.DeliveryReader
	webhookquery.InboundEventReader
}

type Commands struct {
	RegisterEndpoint     *webhookcommand.RegisterEndpointCommand
	UpdateEndpoint       *webhookcommand.UpdateEndpointCommand
	DeleteEndpoint       *webhookcommand.DeleteEndpointCommand
	RotateEndpointSecret *webhookcommand.RotateEndpointSecretCommand
	FireEvent            *webhookcommand.FireEventCommand
	ProcessInboundEvent  *webhookcommand.ProcessInboundEventCommand
	DeliverWebhook       *webhookcommand.DeliverWebhookCommand
}

type Queries struct {
	GetEndpoint            *webhookquery.GetEndpointQuery
	ListEndpoints          *webhookquery.ListEndpointsQuery
	ListEndpointDeliveries *webhookquery.ListEndpointDeliveriesQuery
	GetInboundEvent        *webhookquery.GetInboundEventQuery
	ListInboundEvents      *webhookquery.ListInboundEventsQuery
}

// Facade bundles the command and query handlers over one service so a
// host application wires the webhook layer in a single call.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	dispatcher webhookcommand.EventDispatcher
	processor  webhookcommand.InboundProcessor
	deliverer  webhookcommand.WebhookDeliverer
}

// WithEventDispatcher enables the fire-event command.
func WithEventDispatcher(dispatcher webhookcommand.EventDispatcher) FacadeOption {
	return func(options *facadeOptions) {
		options.dispatcher = dispatcher
	}
}

// WithInboundProcessor enables the process-inbound command.
func WithInboundProcessor(processor webhookcommand.InboundProcessor) FacadeOption {
	return func(options *facadeOptions) {
		options.processor = processor
	}
}

// WithWebhookDeliverer enables the deliver-webhook command.
func WithWebhookDeliverer(deliverer webhookcommand.WebhookDeliverer) FacadeOption {
	return func(options *facadeOptions) {
		options.deliverer = deliverer
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("quickdash: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		RegisterEndpoint:     webhookcommand.NewRegisterEndpointCommand(service),
		UpdateEndpoint:       webhookcommand.NewUpdateEndpointCommand(service),
		DeleteEndpoint:       webhookcommand.NewDeleteEndpointCommand(service),
		RotateEndpointSecret: webhookcommand.NewRotateEndpointSecretCommand(service),
	}
	if cfg.dispatcher != nil {
		facade.commands.FireEvent = webhookcommand.NewFireEventCommand(cfg.dispatcher)
	}
	if cfg.processor != nil {
		facade.commands.ProcessInboundEvent = webhookcommand.NewProcessInboundEventCommand(cfg.processor)
	}
	if cfg.deliverer != nil {
		facade.commands.DeliverWebhook = webhookcommand.NewDeliverWebhookCommand(cfg.deliverer)
	}
	facade.queries = Queries{
		GetEndpoint:            webhookquery.NewGetEndpointQuery(service),
		ListEndpoints:          webhookquery.NewListEndpointsQuery(service),
		ListEndpointDeliveries: webhookquery.NewListEndpointDeliveriesQuery(service),
		GetInboundEvent:        webhookquery.NewGetInboundEventQuery(service),
		ListInboundEvents:      webhookquery.NewListInboundEventsQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
