package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/RustMunkey/quickdash-sub005/core"
)

var (
	_ gocmd.Querier[GetEndpointMessage, core.Endpoint]              = (*GetEndpointQuery)(nil)
	_ gocmd.Querier[ListEndpointsMessage, []core.Endpoint]          = (*ListEndpointsQuery)(nil)
	_ gocmd.Querier[ListEndpointDeliveriesMessage, []core.Delivery] = (*ListEndpointDeliveriesQuery)(nil)
	_ gocmd.Querier[GetInboundEventMessage, core.InboundEvent]      = (*GetInboundEventQuery)(nil)
	_ gocmd.Querier[ListInboundEventsMessage, []core.InboundEvent]  = (*ListInboundEventsQuery)(nil)
)
