package core

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRegisterEndpointReturnsSecretOnce(t *testing.T) {
	store := &stubEndpointStore{}
	service := newTestService(t, WithEndpointStore(store))

	result, err := service.RegisterEndpoint(context.Background(), RegisterEndpointInput{
		TenantID:         "tenant-1",
		URL:              "https://hooks.example.com/in",
		SubscribedEvents: []string{EventOrderCreated, EventOrderCreated, EventProductUpdated},
	})
	if err != nil {
		t.Fatalf("register endpoint: %v", err)
	}
	if !strings.HasPrefix(result.Secret, "whsec_") {
		t.Fatalf("expected minted secret, got %q", result.Secret)
	}
	if result.Endpoint.SigningSecret != "" {
		t.Fatal("expected signing secret stripped from returned endpoint")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one stored endpoint, got %d", len(store.created))
	}
	if got := store.created[0].SigningSecret; got != result.Secret {
		t.Fatalf("stored secret %q does not match returned secret %q", got, result.Secret)
	}
	if got := store.created[0].SubscribedEvents; len(got) != 2 {
		t.Fatalf("expected duplicate subscriptions collapsed, got %v", got)
	}
	if !store.created[0].Active {
		t.Fatal("expected new endpoint active")
	}
}

func TestRegisterEndpointRejectsPlainHTTP(t *testing.T) {
	service := newTestService(t, WithEndpointStore(&stubEndpointStore{}))

	_, err := service.RegisterEndpoint(context.Background(), RegisterEndpointInput{
		TenantID:         "tenant-1",
		URL:              "http://hooks.example.com/in",
		SubscribedEvents: []string{EventWildcard},
	})
	if err == nil {
		t.Fatal("expected error for http url")
	}
}

func TestRegisterEndpointRejectsUnknownEvent(t *testing.T) {
	service := newTestService(t, WithEndpointStore(&stubEndpointStore{}))

	_, err := service.RegisterEndpoint(context.Background(), RegisterEndpointInput{
		TenantID:         "tenant-1",
		URL:              "https://hooks.example.com/in",
		SubscribedEvents: []string{"order.exploded"},
	})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestRotateEndpointSecret(t *testing.T) {
	store := &stubEndpointStore{
		endpoints: map[string]Endpoint{
			"ep-1": {ID: "ep-1", TenantID: "tenant-1", SigningSecret: "whsec_old"},
		},
	}
	service := newTestService(t, WithEndpointStore(store))

	secret, err := service.RotateEndpointSecret(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("rotate secret: %v", err)
	}
	if secret == "" || secret == "whsec_old" {
		t.Fatalf("expected fresh secret, got %q", secret)
	}
	if store.rotated != secret {
		t.Fatalf("store received %q, returned %q", store.rotated, secret)
	}
}

func TestRotateEndpointSecretUnknownEndpoint(t *testing.T) {
	service := newTestService(t, WithEndpointStore(&stubEndpointStore{}))

	_, err := service.RotateEndpointSecret(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unknown endpoint")
	}
}

func TestUpdateEndpointPartial(t *testing.T) {
	store := &stubEndpointStore{
		endpoints: map[string]Endpoint{
			"ep-1": {
				ID:               "ep-1",
				TenantID:         "tenant-1",
				URL:              "https://hooks.example.com/in",
				SubscribedEvents: []string{EventOrderCreated},
				Active:           true,
			},
		},
	}
	service := newTestService(t, WithEndpointStore(store))

	inactive := false
	updated, err := service.UpdateEndpoint(context.Background(), UpdateEndpointInput{
		ID:     "ep-1",
		Active: &inactive,
	})
	if err != nil {
		t.Fatalf("update endpoint: %v", err)
	}
	if updated.Active {
		t.Fatal("expected endpoint deactivated")
	}
	if updated.URL != "https://hooks.example.com/in" {
		t.Fatalf("expected url untouched, got %q", updated.URL)
	}
}

func TestListEndpointsStripsSecrets(t *testing.T) {
	store := &stubEndpointStore{
		endpoints: map[string]Endpoint{
			"ep-1": {ID: "ep-1", TenantID: "tenant-1", SigningSecret: "whsec_live"},
		},
	}
	service := newTestService(t, WithEndpointStore(store))

	endpoints, err := service.ListEndpoints(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("list endpoints: %v", err)
	}
	if len(endpoints) != 1 {
		t.Fatalf("expected one endpoint, got %d", len(endpoints))
	}
	if endpoints[0].SigningSecret != "" {
		t.Fatal("expected signing secret stripped")
	}
}

func newTestService(t *testing.T, options ...Option) *Service {
	t.Helper()
	service, err := NewService(Config{}, options...)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return service
}

type stubEndpointStore struct {
	endpoints map[string]Endpoint
	created   []Endpoint
	rotated   string
}

func (s *stubEndpointStore) Create(_ context.Context, endpoint Endpoint) (Endpoint, error) {
	s.created = append(s.created, endpoint)
	if s.endpoints == nil {
		s.endpoints = map[string]Endpoint{}
	}
	s.endpoints[endpoint.ID] = endpoint
	return endpoint, nil
}

func (s *stubEndpointStore) Update(_ context.Context, endpoint Endpoint) (Endpoint, error) {
	if _, ok := s.endpoints[endpoint.ID]; !ok {
		return Endpoint{}, ErrEndpointNotFound
	}
	s.endpoints[endpoint.ID] = endpoint
	return endpoint, nil
}

func (s *stubEndpointStore) Delete(_ context.Context, id string) error {
	if _, ok := s.endpoints[id]; !ok {
		return ErrEndpointNotFound
	}
	delete(s.endpoints, id)
	return nil
}

func (s *stubEndpointStore) Get(_ context.Context, id string) (Endpoint, error) {
	endpoint, ok := s.endpoints[id]
	if !ok {
		return Endpoint{}, ErrEndpointNotFound
	}
	return endpoint, nil
}

func (s *stubEndpointStore) ListByTenant(_ context.Context, tenantID string) ([]Endpoint, error) {
	var out []Endpoint
	for _, endpoint := range s.endpoints {
		if endpoint.TenantID == tenantID {
			out = append(out, endpoint)
		}
	}
	return out, nil
}

func (s *stubEndpointStore) ListActiveByTenant(ctx context.Context, tenantID string) ([]Endpoint, error) {
	endpoints, err := s.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var out []Endpoint
	for _, endpoint := range endpoints {
		if endpoint.Active {
			out = append(out, endpoint)
		}
	}
	return out, nil
}

func (s *stubEndpointStore) RotateSecret(_ context.Context, id string, secret string) error {
	endpoint, ok := s.endpoints[id]
	if !ok {
		return ErrEndpointNotFound
	}
	endpoint.SigningSecret = secret
	s.endpoints[id] = endpoint
	s.rotated = secret
	return nil
}

func (s *stubEndpointStore) RecordHealth(_ context.Context, id string, status DeliveryStatus, at time.Time) error {
	endpoint, ok := s.endpoints[id]
	if !ok {
		return ErrEndpointNotFound
	}
	endpoint.LastDeliveryStatus = string(status)
	endpoint.LastDeliveryAt = &at
	s.endpoints[id] = endpoint
	return nil
}

var _ EndpointStore = (*stubEndpointStore)(nil)
