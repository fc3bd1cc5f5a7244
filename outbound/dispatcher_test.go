package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/RustMunkey/quickdash-sub005/core"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestFireFansOutToSubscribedEndpoints(t *testing.T) {
	endpoints := newMemoryEndpointStore()
	deliveries := newMemoryDeliveryStore()
	enqueuer := &captureEnqueuer{}
	dispatcher := newTestDispatcher(t, endpoints, deliveries, enqueuer)

	endpoints.seed(t, core.Endpoint{
		ID: "ep-orders", TenantID: "tenant-1", URL: "https://a.example.com/hook",
		SubscribedEvents: []string{core.EventOrderCreated}, SigningSecret: "whsec_a", Active: true,
	})
	endpoints.seed(t, core.Endpoint{
		ID: "ep-products", TenantID: "tenant-1", URL: "https://b.example.com/hook",
		SubscribedEvents: []string{core.EventProductUpdated}, SigningSecret: "whsec_b", Active: true,
	})
	endpoints.seed(t, core.Endpoint{
		ID: "ep-all", TenantID: "tenant-1", URL: "https://c.example.com/hook",
		SubscribedEvents: []string{core.EventWildcard}, SigningSecret: "whsec_c", Active: true,
	})

	stats, err := dispatcher.Fire(context.Background(), core.EventProductUpdated, map[string]any{"id": "prod-1"}, "tenant-1")
	if err != nil {
		t.Fatalf("fire: %v", err)
	}
	if stats.Matched != 2 || stats.Enqueued != 2 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	got := enqueuer.endpointIDs()
	want := []string{"ep-all", "ep-products"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected tasks for %v, got %v", want, got)
	}
	if deliveries.count() != 2 {
		t.Fatalf("expected 2 delivery rows, got %d", deliveries.count())
	}
}

func TestFireTaskIsSelfContained(t *testing.T) {
	endpoints := newMemoryEndpointStore()
	deliveries := newMemoryDeliveryStore()
	enqueuer := &captureEnqueuer{}
	dispatcher := newTestDispatcher(t, endpoints, deliveries, enqueuer)

	endpoints.seed(t, core.Endpoint{
		ID: "ep-1", TenantID: "tenant-1", URL: "https://a.example.com/hook",
		SubscribedEvents: []string{core.EventOrderPaid}, SigningSecret: "whsec_secret",
		CustomHeaders: map[string]string{"X-Team": "payments"}, Active: true,
	})

	if _, err := dispatcher.Fire(context.Background(), core.EventOrderPaid, map[string]any{"order_id": "ord-9"}, "tenant-1"); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if len(enqueuer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(enqueuer.messages))
	}
	message := enqueuer.messages[0]
	if message.JobID != core.JobIDDeliverySend {
		t.Fatalf("unexpected job id %s", message.JobID)
	}

	task, err := TaskFromParameters(message.Parameters)
	if err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.URL != "https://a.example.com/hook" || task.Secret != "whsec_secret" {
		t.Fatalf("task missing endpoint snapshot: %+v", task)
	}
	if task.CustomHeaders["X-Team"] != "payments" {
		t.Fatalf("custom headers not carried: %+v", task.CustomHeaders)
	}

	var envelope core.Envelope
	if err := json.Unmarshal(task.Payload, &envelope); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if envelope.Event != core.EventOrderPaid {
		t.Fatalf("unexpected envelope event %q", envelope.Event)
	}
	if envelope.Timestamp != testNow.Format(time.RFC3339) {
		t.Fatalf("unexpected envelope timestamp %q", envelope.Timestamp)
	}
}

func TestFireEmptyTenantIsNoOp(t *testing.T) {
	endpoints := newMemoryEndpointStore()
	deliveries := newMemoryDeliveryStore()
	enqueuer := &captureEnqueuer{}
	dispatcher := newTestDispatcher(t, endpoints, deliveries, enqueuer)

	stats, err := dispatcher.Fire(context.Background(), core.EventOrderCreated, nil, "  ")
	if err != nil {
		t.Fatalf("fire: %v", err)
	}
	if stats != (FireStats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if endpoints.listCalls != 0 {
		t.Fatal("empty tenant must not touch storage")
	}
}

func TestFireUnknownEventType(t *testing.T) {
	dispatcher := newTestDispatcher(t, newMemoryEndpointStore(), newMemoryDeliveryStore(), &captureEnqueuer{})

	_, err := dispatcher.Fire(context.Background(), "order.exploded", nil, "tenant-1")
	if !errors.Is(err, core.ErrUnknownEventType) {
		t.Fatalf("expected unknown event type error, got %v", err)
	}
}

func TestFireSkipsInactiveAndUnsubscribed(t *testing.T) {
	endpoints := newMemoryEndpointStore()
	deliveries := newMemoryDeliveryStore()
	enqueuer := &captureEnqueuer{}
	dispatcher := newTestDispatcher(t, endpoints, deliveries, enqueuer)

	endpoints.seed(t, core.Endpoint{
		ID: "ep-paused", TenantID: "tenant-1", URL: "https://a.example.com/hook",
		SubscribedEvents: []string{core.EventWildcard}, SigningSecret: "whsec_a", Active: false,
	})
	endpoints.seed(t, core.Endpoint{
		ID: "ep-other", TenantID: "tenant-1", URL: "https://b.example.com/hook",
		SubscribedEvents: []string{core.EventDiscountCreated}, SigningSecret: "whsec_b", Active: true,
	})

	stats, err := dispatcher.Fire(context.Background(), core.EventOrderCreated, nil, "tenant-1")
	if err != nil {
		t.Fatalf("fire: %v", err)
	}
	if stats.Matched != 0 || stats.Enqueued != 0 {
		t.Fatalf("expected no matches, got %+v", stats)
	}
	if deliveries.count() != 0 {
		t.Fatalf("expected no delivery rows, got %d", deliveries.count())
	}
}

func TestFireEnqueueFailureMarksDeliveryFailed(t *testing.T) {
	endpoints := newMemoryEndpointStore()
	deliveries := newMemoryDeliveryStore()
	enqueuer := &captureEnqueuer{err: fmt.Errorf("broker down")}
	dispatcher := newTestDispatcher(t, endpoints, deliveries, enqueuer)

	endpoints.seed(t, core.Endpoint{
		ID: "ep-1", TenantID: "tenant-1", URL: "https://a.example.com/hook",
		SubscribedEvents: []string{core.EventWildcard}, SigningSecret: "whsec_a", Active: true,
	})

	stats, err := dispatcher.Fire(context.Background(), core.EventOrderCreated, nil, "tenant-1")
	if err == nil {
		t.Fatal("expected enqueue failure to surface")
	}
	if stats.Matched != 1 || stats.Enqueued != 0 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	rows := deliveries.all()
	if len(rows) != 1 {
		t.Fatalf("expected one delivery row, got %d", len(rows))
	}
	if rows[0].Status != core.DeliveryStatusFailed {
		t.Fatalf("expected failed delivery, got %s", rows[0].Status)
	}
}

func TestFireEnqueueFailureDoesNotBlockOtherEndpoints(t *testing.T) {
	endpoints := newMemoryEndpointStore()
	deliveries := newMemoryDeliveryStore()
	enqueuer := &captureEnqueuer{failFirst: true}
	dispatcher := newTestDispatcher(t, endpoints, deliveries, enqueuer)

	endpoints.seed(t, core.Endpoint{
		ID: "ep-1", TenantID: "tenant-1", URL: "https://a.example.com/hook",
		SubscribedEvents: []string{core.EventWildcard}, SigningSecret: "whsec_a", Active: true,
	})
	endpoints.seed(t, core.Endpoint{
		ID: "ep-2", TenantID: "tenant-1", URL: "https://b.example.com/hook",
		SubscribedEvents: []string{core.EventWildcard}, SigningSecret: "whsec_b", Active: true,
	})

	stats, err := dispatcher.Fire(context.Background(), core.EventOrderCreated, nil, "tenant-1")
	if err == nil {
		t.Fatal("expected partial failure to surface")
	}
	if stats.Matched != 2 || stats.Enqueued != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func newTestDispatcher(t *testing.T, endpoints core.EndpointStore, deliveries core.DeliveryStore, enqueuer core.JobEnqueuer) *Dispatcher {
	t.Helper()
	dispatcher, err := NewDispatcher(core.ServiceDependencies{
		EndpointStore: endpoints,
		DeliveryStore: deliveries,
		JobEnqueuer:   enqueuer,
	})
	if err != nil {
		t.Fatalf("build dispatcher: %v", err)
	}
	dispatcher.Now = func() time.Time { return testNow }
	return dispatcher
}

type captureEnqueuer struct {
	mu        sync.Mutex
	messages  []*core.JobExecutionMessage
	err       error
	failFirst bool
}

func (e *captureEnqueuer) Enqueue(_ context.Context, message *core.JobExecutionMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	if e.failFirst {
		e.failFirst = false
		return fmt.Errorf("broker hiccup")
	}
	e.messages = append(e.messages, message)
	return nil
}

func (e *captureEnqueuer) endpointIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.messages))
	for _, message := range e.messages {
		if id, ok := message.Parameters["endpoint_id"].(string); ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

type memoryEndpointStore struct {
	mu        sync.Mutex
	endpoints map[string]core.Endpoint
	order     []string
	listCalls int
	health    map[string]core.DeliveryStatus
}

func newMemoryEndpointStore() *memoryEndpointStore {
	return &memoryEndpointStore{
		endpoints: map[string]core.Endpoint{},
		health:    map[string]core.DeliveryStatus{},
	}
}

func (s *memoryEndpointStore) seed(t *testing.T, endpoint core.Endpoint) {
	t.Helper()
	if _, err := s.Create(context.Background(), endpoint); err != nil {
		t.Fatalf("seed endpoint: %v", err)
	}
}

func (s *memoryEndpointStore) Create(_ context.Context, endpoint core.Endpoint) (core.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[endpoint.ID] = endpoint
	s.order = append(s.order, endpoint.ID)
	return endpoint, nil
}

func (s *memoryEndpointStore) Update(_ context.Context, endpoint core.Endpoint) (core.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.endpoints[endpoint.ID]; !ok {
		return core.Endpoint{}, core.ErrEndpointNotFound
	}
	s.endpoints[endpoint.ID] = endpoint
	return endpoint, nil
}

func (s *memoryEndpointStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.endpoints[id]; !ok {
		return core.ErrEndpointNotFound
	}
	delete(s.endpoints, id)
	return nil
}

func (s *memoryEndpointStore) Get(_ context.Context, id string) (core.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	endpoint, ok := s.endpoints[id]
	if !ok {
		return core.Endpoint{}, core.ErrEndpointNotFound
	}
	return endpoint, nil
}

func (s *memoryEndpointStore) ListByTenant(_ context.Context, tenantID string) ([]core.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Endpoint, 0)
	for _, id := range s.order {
		endpoint, ok := s.endpoints[id]
		if ok && endpoint.TenantID == tenantID {
			out = append(out, endpoint)
		}
	}
	return out, nil
}

func (s *memoryEndpointStore) ListActiveByTenant(ctx context.Context, tenantID string) ([]core.Endpoint, error) {
	s.mu.Lock()
	s.listCalls++
	s.mu.Unlock()
	all, err := s.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]core.Endpoint, 0, len(all))
	for _, endpoint := range all {
		if endpoint.Active {
			out = append(out, endpoint)
		}
	}
	return out, nil
}

func (s *memoryEndpointStore) RotateSecret(_ context.Context, id string, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	endpoint, ok := s.endpoints[id]
	if !ok {
		return core.ErrEndpointNotFound
	}
	endpoint.SigningSecret = secret
	s.endpoints[id] = endpoint
	return nil
}

func (s *memoryEndpointStore) RecordHealth(_ context.Context, id string, status core.DeliveryStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	endpoint, ok := s.endpoints[id]
	if !ok {
		return core.ErrEndpointNotFound
	}
	endpoint.LastDeliveryStatus = string(status)
	endpoint.LastDeliveryAt = &at
	s.endpoints[id] = endpoint
	s.health[id] = status
	return nil
}

type memoryDeliveryStore struct {
	mu         sync.Mutex
	deliveries map[string]core.Delivery
	order      []string
}

func newMemoryDeliveryStore() *memoryDeliveryStore {
	return &memoryDeliveryStore{deliveries: map[string]core.Delivery{}}
}

func (s *memoryDeliveryStore) Create(_ context.Context, delivery core.Delivery) (core.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[delivery.ID] = delivery
	s.order = append(s.order, delivery.ID)
	return delivery, nil
}

func (s *memoryDeliveryStore) Get(_ context.Context, id string) (core.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delivery, ok := s.deliveries[id]
	if !ok {
		return core.Delivery{}, core.ErrDeliveryNotFound
	}
	return delivery, nil
}

func (s *memoryDeliveryStore) RecordSuccess(_ context.Context, id string, responseCode int, responseBody string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delivery, ok := s.deliveries[id]
	if !ok {
		return core.ErrDeliveryNotFound
	}
	if err := delivery.TransitionTo(core.DeliveryStatusSuccess, at); err != nil {
		return err
	}
	delivery.Attempts++
	delivery.ResponseCode = responseCode
	delivery.ResponseBody = responseBody
	delivery.Error = ""
	delivery.NextAttempt = nil
	delivery.DeliveredAt = &at
	s.deliveries[id] = delivery
	return nil
}

func (s *memoryDeliveryStore) RecordFailure(_ context.Context, id string, responseCode int, responseBody string, reason string, nextAttempt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delivery, ok := s.deliveries[id]
	if !ok {
		return core.ErrDeliveryNotFound
	}
	if delivery.Status == core.DeliveryStatusSuccess {
		return core.ErrInvalidDeliveryStatusTransition
	}
	delivery.Status = core.DeliveryStatusFailed
	delivery.Attempts++
	delivery.ResponseCode = responseCode
	delivery.ResponseBody = responseBody
	delivery.Error = reason
	delivery.NextAttempt = nextAttempt
	s.deliveries[id] = delivery
	return nil
}

func (s *memoryDeliveryStore) ListRecentByEndpoint(_ context.Context, endpointID string, limit int) ([]core.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Delivery, 0)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		delivery := s.deliveries[s.order[i]]
		if delivery.EndpointID == endpointID {
			out = append(out, delivery)
		}
	}
	return out, nil
}

func (s *memoryDeliveryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deliveries)
}

func (s *memoryDeliveryStore) all() []core.Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Delivery, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.deliveries[id])
	}
	return out
}

var (
	_ core.EndpointStore = (*memoryEndpointStore)(nil)
	_ core.DeliveryStore = (*memoryDeliveryStore)(nil)
	_ core.JobEnqueuer   = (*captureEnqueuer)(nil)
)
