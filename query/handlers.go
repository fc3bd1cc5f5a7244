package query

import (
	"context"

	"github.com/RustMunkey/quickdash-sub005/core"
)

type EndpointReader interface {
	GetEndpoint(ctx context.Context, id string) (core.Endpoint, error)
	ListEndpoints(ctx context.Context, tenantID string) ([]core.Endpoint, error)
}

type DeliveryReader interface {
	ListEndpointDeliveries(ctx context.Context, endpointID string, limit int) ([]core.Delivery, error)
}

type InboundEventReader interface {
	GetInboundEvent(ctx context.Context, id string) (core.InboundEvent, error)
	ListInboundEvents(ctx context.Context, tenantID string, limit, offset int) ([]core.InboundEvent, error)
}

type GetEndpointQuery struct {
	reader EndpointReader
}

func NewGetEndpointQuery(reader EndpointReader) *GetEndpointQuery {
	return &GetEndpointQuery{reader: reader}
}

func (q *GetEndpointQuery) Query(ctx context.Context, msg GetEndpointMessage) (core.Endpoint, error) {
	if q == nil || q.reader == nil {
		return core.Endpoint{}, queryDependencyError("query: endpoint reader is required")
	}
	return q.reader.GetEndpoint(ctx, msg.ID)
}

type ListEndpointsQuery struct {
	reader EndpointReader
}

func NewListEndpointsQuery(reader EndpointReader) *ListEndpointsQuery {
	return &ListEndpointsQuery{reader: reader}
}

func (q *ListEndpointsQuery) Query(ctx context.Context, msg ListEndpointsMessage) ([]core.Endpoint, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: endpoint reader is required")
	}
	return q.reader.ListEndpoints(ctx, msg.TenantID)
}

type ListEndpointDeliveriesQuery struct {
	reader DeliveryReader
}

func NewListEndpointDeliveriesQuery(reader DeliveryReader) *ListEndpointDeliveriesQuery {
	return &ListEndpointDeliveriesQuery{reader: reader}
}

func (q *ListEndpointDeliveriesQuery) Query(
	ctx context.Context,
	msg ListEndpointDeliveriesMessage,
) ([]core.Delivery, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: delivery reader is required")
	}
	return q.reader.ListEndpointDeliveries(ctx, msg.EndpointID, msg.Limit)
}

type GetInboundEventQuery struct {
	reader InboundEventReader
}

func NewGetInboundEventQuery(reader InboundEventReader) *GetInboundEventQuery {
	return &GetInboundEventQuery{reader: reader}
}

func (q *GetInboundEventQuery) Query(ctx context.Context, msg GetInboundEventMessage) (core.InboundEvent, error) {
	if q == nil || q.reader == nil {
		return core.InboundEvent{}, queryDependencyError("query: inbound event reader is required")
	}
	return q.reader.GetInboundEvent(ctx, msg.ID)
}

type ListInboundEventsQuery struct {
	reader InboundEventReader
}

func NewListInboundEventsQuery(reader InboundEventReader) *ListInboundEventsQuery {
	return &ListInboundEventsQuery{reader: reader}
}

func (q *ListInboundEventsQuery) Query(
	ctx context.Context,
	msg ListInboundEventsMessage,
) ([]core.InboundEvent, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: inbound event reader is required")
	}
	return q.reader.ListInboundEvents(ctx, msg.TenantID, msg.Limit, msg.Offset)
}
