package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RegisterEndpointMessage]     = (*RegisterEndpointCommand)(nil)
	_ gocmd.Commander[UpdateEndpointMessage]       = (*UpdateEndpointCommand)(nil)
	_ gocmd.Commander[DeleteEndpointMessage]       = (*DeleteEndpointCommand)(nil)
	_ gocmd.Commander[RotateEndpointSecretMessage] = (*RotateEndpointSecretCommand)(nil)
	_ gocmd.Commander[FireEventMessage]            = (*FireEventCommand)(nil)
	_ gocmd.Commander[ProcessInboundEventMessage]  = (*ProcessInboundEventCommand)(nil)
	_ gocmd.Commander[DeliverWebhookMessage]       = (*DeliverWebhookCommand)(nil)
)
