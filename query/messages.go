package query

import (
	"strings"
)

const (
	TypeGetEndpoint            = "webhooks.query.endpoint.get"
	TypeListEndpoints          = "webhooks.query.endpoint.list"
	TypeListEndpointDeliveries = "webhooks.query.endpoint.deliveries"
	TypeGetInboundEvent        = "webhooks.query.inbound.get"
	TypeListInboundEvents      = "webhooks.query.inbound.list"
)

type GetEndpointMessage struct {
	ID string
}

func (GetEndpointMessage) Type() string { return TypeGetEndpoint }

func (m GetEndpointMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return queryValidationError("id", "endpoint id is required")
	}
	return nil
}

type ListEndpointsMessage struct {
	TenantID string
}

func (ListEndpointsMessage) Type() string { return TypeListEndpoints }

func (m ListEndpointsMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return queryValidationError("tenant_id", "tenant id is required")
	}
	return nil
}

type ListEndpointDeliveriesMessage struct {
	EndpointID string
	Limit      int
}

func (ListEndpointDeliveriesMessage) Type() string { return TypeListEndpointDeliveries }

func (m ListEndpointDeliveriesMessage) Validate() error {
	if strings.TrimSpace(m.EndpointID) == "" {
		return queryValidationError("endpoint_id", "endpoint id is required")
	}
	if m.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	return nil
}

type GetInboundEventMessage struct {
	ID string
}

func (GetInboundEventMessage) Type() string { return TypeGetInboundEvent }

func (m GetInboundEventMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return queryValidationError("id", "event id is required")
	}
	return nil
}

type ListInboundEventsMessage struct {
	TenantID string
	Limit    int
	Offset   int
}

func (ListInboundEventsMessage) Type() string { return TypeListInboundEvents }

func (m ListInboundEventsMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return queryValidationError("tenant_id", "tenant id is required")
	}
	if m.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	if m.Offset < 0 {
		return queryValidationError("offset", "offset must be >= 0")
	}
	return nil
}
