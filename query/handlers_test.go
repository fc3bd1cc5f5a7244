package query

import (
	"context"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/RustMunkey/quickdash-sub005/core"
)

func TestGetEndpointQuery_Delegates(t *testing.T) {
	reader := stubEndpointReader{
		getFn: func(_ context.Context, id string) (core.Endpoint, error) {
			if id != "ep-1" {
				t.Fatalf("unexpected endpoint id: %q", id)
			}
			return core.Endpoint{ID: "ep-1", TenantID: "tenant-1"}, nil
		},
	}
	endpoint, err := NewGetEndpointQuery(reader).Query(context.Background(), GetEndpointMessage{ID: "ep-1"})
	if err != nil {
		t.Fatalf("query endpoint: %v", err)
	}
	if endpoint.TenantID != "tenant-1" {
		t.Fatalf("unexpected endpoint: %#v", endpoint)
	}
}

func TestListEndpointsQuery_Delegates(t *testing.T) {
	reader := stubEndpointReader{
		listFn: func(_ context.Context, tenantID string) ([]core.Endpoint, error) {
			if tenantID != "tenant-1" {
				t.Fatalf("unexpected tenant id: %q", tenantID)
			}
			return []core.Endpoint{{ID: "ep-1"}, {ID: "ep-2"}}, nil
		},
	}
	endpoints, err := NewListEndpointsQuery(reader).Query(context.Background(), ListEndpointsMessage{TenantID: "tenant-1"})
	if err != nil {
		t.Fatalf("query endpoints: %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("expected two endpoints, got %d", len(endpoints))
	}
}

func TestListEndpointDeliveriesQuery_Delegates(t *testing.T) {
	reader := stubDeliveryReader{
		listFn: func(_ context.Context, endpointID string, limit int) ([]core.Delivery, error) {
			if endpointID != "ep-1" || limit != 25 {
				t.Fatalf("unexpected delivery filter: %q %d", endpointID, limit)
			}
			return []core.Delivery{{ID: "del-1", EndpointID: "ep-1"}}, nil
		},
	}
	deliveries, err := NewListEndpointDeliveriesQuery(reader).Query(context.Background(), ListEndpointDeliveriesMessage{
		EndpointID: "ep-1",
		Limit:      25,
	})
	if err != nil {
		t.Fatalf("query deliveries: %v", err)
	}
	if len(deliveries) != 1 || deliveries[0].ID != "del-1" {
		t.Fatalf("unexpected deliveries: %#v", deliveries)
	}
}

func TestInboundEventQueries_Delegate(t *testing.T) {
	reader := stubInboundEventReader{
		getFn: func(_ context.Context, id string) (core.InboundEvent, error) {
			if id != "evt-1" {
				t.Fatalf("unexpected event id: %q", id)
			}
			return core.InboundEvent{ID: "evt-1", Status: core.EventStatusProcessed}, nil
		},
		listFn: func(_ context.Context, tenantID string, limit, offset int) ([]core.InboundEvent, error) {
			if tenantID != "tenant-1" || limit != 10 || offset != 20 {
				t.Fatalf("unexpected list filter: %q %d %d", tenantID, limit, offset)
			}
			return []core.InboundEvent{{ID: "evt-1"}}, nil
		},
	}

	event, err := NewGetInboundEventQuery(reader).Query(context.Background(), GetInboundEventMessage{ID: "evt-1"})
	if err != nil {
		t.Fatalf("query inbound event: %v", err)
	}
	if event.Status != core.EventStatusProcessed {
		t.Fatalf("unexpected event: %#v", event)
	}

	events, err := NewListInboundEventsQuery(reader).Query(context.Background(), ListInboundEventsMessage{
		TenantID: "tenant-1",
		Limit:    10,
		Offset:   20,
	})
	if err != nil {
		t.Fatalf("query inbound events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var q *GetEndpointQuery
	_, err := q.Query(context.Background(), GetEndpointMessage{ID: "ep-1"})
	if err == nil {
		t.Fatalf("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}

func TestMessages_ValidateRejectBadInput(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"empty endpoint id", (GetEndpointMessage{}).Validate()},
		{"empty tenant id", (ListEndpointsMessage{}).Validate()},
		{"negative limit", (ListEndpointDeliveriesMessage{EndpointID: "ep-1", Limit: -1}).Validate()},
		{"negative offset", (ListInboundEventsMessage{TenantID: "tenant-1", Offset: -1}).Validate()},
	}
	for _, tc := range cases {
		if tc.err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		var rich *goerrors.Error
		if !goerrors.As(tc.err, &rich) {
			t.Fatalf("%s: expected go-errors envelope, got %T", tc.name, tc.err)
		}
		if rich.TextCode != core.WebhookErrorBadInput {
			t.Fatalf("%s: expected %q text code, got %q", tc.name, core.WebhookErrorBadInput, rich.TextCode)
		}
	}
}

type stubEndpointReader struct {
	getFn  func(context.Context, string) (core.Endpoint, error)
	listFn func(context.Context, string) ([]core.Endpoint, error)
}

func (s stubEndpointReader) GetEndpoint(ctx context.Context, id string) (core.Endpoint, error) {
	if s.getFn == nil {
		return core.Endpoint{}, fmt.Errorf("get not stubbed")
	}
	return s.getFn(ctx, id)
}

func (s stubEndpointReader) ListEndpoints(ctx context.Context, tenantID string) ([]core.Endpoint, error) {
	if s.listFn == nil {
		return nil, fmt.Errorf("list not stubbed")
	}
	return s.listFn(ctx, tenantID)
}

type stubDeliveryReader struct {
	listFn func(context.Context, string, int) ([]core.Delivery, error)
}

func (s stubDeliveryReader) ListEndpointDeliveries(ctx context.Context, endpointID string, limit int) ([]core.Delivery, error) {
	return s.listFn(ctx, endpointID, limit)
}

type stubInboundEventReader struct {
	getFn  func(context.Context, string) (core.InboundEvent, error)
	listFn func(context.Context, string, int, int) ([]core.InboundEvent, error)
}

func (s stubInboundEventReader) GetInboundEvent(ctx context.Context, id string) (core.InboundEvent, error) {
	return s.getFn(ctx, id)
}

func (s stubInboundEventReader) ListInboundEvents(ctx context.Context, tenantID string, limit, offset int) ([]core.InboundEvent, error) {
	return s.listFn(ctx, tenantID, limit, offset)
}
