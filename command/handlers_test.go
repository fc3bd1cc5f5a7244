package command

import (
	"context"
	"fmt"
	"testing"

	gocmd "github.com/goliatone/go-command"

	"github.com/RustMunkey/quickdash-sub005/core"
	"github.com/RustMunkey/quickdash-sub005/outbound"
)

func TestRegisterEndpointCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.RegisterEndpointResult{
		Endpoint: core.Endpoint{ID: "ep-1", TenantID: "tenant-1", URL: "https://shop.example.com/hooks"},
		Secret:   "whsec_plain",
	}
	called := false

	svc := stubMutatingService{
		registerFn: func(_ context.Context, input core.RegisterEndpointInput) (core.RegisterEndpointResult, error) {
			called = true
			if input.TenantID != "tenant-1" {
				t.Fatalf("expected tenant-1, got %q", input.TenantID)
			}
			return expected, nil
		},
	}

	cmd := NewRegisterEndpointCommand(svc)
	collector := gocmd.NewResult[core.RegisterEndpointResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, RegisterEndpointMessage{Input: core.RegisterEndpointInput{
		TenantID:         "tenant-1",
		URL:              "https://shop.example.com/hooks",
		SubscribedEvents: []string{core.EventOrderPaid},
	}})
	if err != nil {
		t.Fatalf("execute register endpoint: %v", err)
	}
	if !called {
		t.Fatalf("expected endpoint service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.Endpoint.ID != "ep-1" || result.Secret != "whsec_plain" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestEndpointCommands_DelegateToService(t *testing.T) {
	t.Run("update", func(t *testing.T) {
		called := false
		url := "https://shop.example.com/hooks/v2"
		svc := stubMutatingService{
			updateFn: func(_ context.Context, input core.UpdateEndpointInput) (core.Endpoint, error) {
				called = true
				if input.ID != "ep-1" || input.URL == nil || *input.URL != url {
					t.Fatalf("unexpected update input: %#v", input)
				}
				return core.Endpoint{ID: "ep-1", URL: url}, nil
			},
		}
		collector := gocmd.NewResult[core.Endpoint]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		if err := NewUpdateEndpointCommand(svc).Execute(ctx, UpdateEndpointMessage{
			Input: core.UpdateEndpointInput{ID: "ep-1", URL: &url},
		}); err != nil {
			t.Fatalf("execute update endpoint: %v", err)
		}
		if !called {
			t.Fatalf("expected update invocation")
		}
		stored, ok := collector.Load()
		if !ok {
			t.Fatalf("expected updated endpoint result")
		}
		if stored.URL != url {
			t.Fatalf("unexpected endpoint result: %#v", stored)
		}
	})

	t.Run("delete", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			deleteFn: func(_ context.Context, id string) error {
				called = true
				if id != "ep-1" {
					t.Fatalf("unexpected delete id: %q", id)
				}
				return nil
			},
		}
		if err := NewDeleteEndpointCommand(svc).Execute(context.Background(), DeleteEndpointMessage{ID: "ep-1"}); err != nil {
			t.Fatalf("execute delete endpoint: %v", err)
		}
		if !called {
			t.Fatalf("expected delete invocation")
		}
	})

	t.Run("rotate secret", func(t *testing.T) {
		svc := stubMutatingService{
			rotateFn: func(_ context.Context, id string) (string, error) {
				if id != "ep-1" {
					t.Fatalf("unexpected rotate id: %q", id)
				}
				return "whsec_rotated", nil
			},
		}
		collector := gocmd.NewResult[string]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		if err := NewRotateEndpointSecretCommand(svc).Execute(ctx, RotateEndpointSecretMessage{ID: "ep-1"}); err != nil {
			t.Fatalf("execute rotate secret: %v", err)
		}
		secret, ok := collector.Load()
		if !ok {
			t.Fatalf("expected rotated secret result")
		}
		if secret != "whsec_rotated" {
			t.Fatalf("unexpected secret: %q", secret)
		}
	})
}

func TestFireEventCommand_StoresStats(t *testing.T) {
	dispatcher := stubDispatcher{
		fireFn: func(_ context.Context, eventType string, data map[string]any, tenantID string) (outbound.FireStats, error) {
			if eventType != core.EventProductUpdated || tenantID != "tenant-1" {
				t.Fatalf("unexpected fire payload: %q %q", eventType, tenantID)
			}
			if data["product_id"] != "prod-9" {
				t.Fatalf("unexpected event data: %#v", data)
			}
			return outbound.FireStats{Matched: 2, Enqueued: 2}, nil
		},
	}

	collector := gocmd.NewResult[outbound.FireStats]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	err := NewFireEventCommand(dispatcher).Execute(ctx, FireEventMessage{
		TenantID:  "tenant-1",
		EventType: core.EventProductUpdated,
		Data:      map[string]any{"product_id": "prod-9"},
	})
	if err != nil {
		t.Fatalf("execute fire event: %v", err)
	}
	stats, ok := collector.Load()
	if !ok {
		t.Fatalf("expected fire stats result")
	}
	if stats.Enqueued != 2 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestProcessInboundEventCommand_Delegates(t *testing.T) {
	called := false
	processor := stubProcessor{
		processFn: func(_ context.Context, eventID string) error {
			called = true
			if eventID != "evt-1" {
				t.Fatalf("unexpected event id: %q", eventID)
			}
			return nil
		},
	}
	if err := NewProcessInboundEventCommand(processor).Execute(context.Background(), ProcessInboundEventMessage{EventID: "evt-1"}); err != nil {
		t.Fatalf("execute process inbound: %v", err)
	}
	if !called {
		t.Fatalf("expected processor invocation")
	}
}

func TestDeliverWebhookCommand_PassesErrorThrough(t *testing.T) {
	retryable := &outbound.RetryableError{Cause: fmt.Errorf("endpoint returned 503")}
	deliverer := stubDeliverer{
		deliverFn: func(_ context.Context, task outbound.DeliveryTask) error {
			if task.DeliveryID != "del-1" {
				t.Fatalf("unexpected delivery id: %q", task.DeliveryID)
			}
			return retryable
		},
	}
	err := NewDeliverWebhookCommand(deliverer).Execute(context.Background(), DeliverWebhookMessage{
		Task: outbound.DeliveryTask{DeliveryID: "del-1", URL: "https://shop.example.com/hooks", Payload: []byte(`{}`)},
	})
	if err != retryable {
		t.Fatalf("expected retryable error to pass through unwrapped, got %v", err)
	}
}

type stubMutatingService struct {
	registerFn func(context.Context, core.RegisterEndpointInput) (core.RegisterEndpointResult, error)
	updateFn   func(context.Context, core.UpdateEndpointInput) (core.Endpoint, error)
	deleteFn   func(context.Context, string) error
	rotateFn   func(context.Context, string) (string, error)
}

func (s stubMutatingService) RegisterEndpoint(ctx context.Context, input core.RegisterEndpointInput) (core.RegisterEndpointResult, error) {
	if s.registerFn == nil {
		return core.RegisterEndpointResult{}, fmt.Errorf("register not stubbed")
	}
	return s.registerFn(ctx, input)
}

func (s stubMutatingService) UpdateEndpoint(ctx context.Context, input core.UpdateEndpointInput) (core.Endpoint, error) {
	if s.updateFn == nil {
		return core.Endpoint{}, fmt.Errorf("update not stubbed")
	}
	return s.updateFn(ctx, input)
}

func (s stubMutatingService) DeleteEndpoint(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return fmt.Errorf("delete not stubbed")
	}
	return s.deleteFn(ctx, id)
}

func (s stubMutatingService) RotateEndpointSecret(ctx context.Context, id string) (string, error) {
	if s.rotateFn == nil {
		return "", fmt.Errorf("rotate not stubbed")
	}
	return s.rotateFn(ctx, id)
}

type stubDispatcher struct {
	fireFn func(context.Context, string, map[string]any, string) (outbound.FireStats, error)
}

func (s stubDispatcher) Fire(ctx context.Context, eventType string, data map[string]any, tenantID string) (outbound.FireStats, error) {
	return s.fireFn(ctx, eventType, data, tenantID)
}

type stubProcessor struct {
	processFn func(context.Context, string) error
}

func (s stubProcessor) Process(ctx context.Context, eventID string) error {
	return s.processFn(ctx, eventID)
}

type stubDeliverer struct {
	deliverFn func(context.Context, outbound.DeliveryTask) error
}

func (s stubDeliverer) Deliver(ctx context.Context, task outbound.DeliveryTask) error {
	return s.deliverFn(ctx, task)
}
