package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Service owns endpoint management and the read-side views over inbound
// events and deliveries. Ingestion and dispatch run in their own
// packages against the same stores; Dependencies hands them the wired
// collaborators.
type Service struct {
	config             Config
	logger             Logger
	loggerProvider     LoggerProvider
	metricsRecorder    MetricsRecorder
	errorFactory       ErrorFactory
	errorMapper        ErrorMapper
	persistenceClient  any
	repositoryFactory  any
	configProvider     ConfigProvider
	optionsResolver    OptionsResolver
	registry           Registry
	eventStore         EventStore
	endpointStore      EndpointStore
	deliveryStore      DeliveryStore
	credentialResolver CredentialResolver
	enqueuer           JobEnqueuer
	secretGenerator    SecretGenerator
	now                func() time.Time
}

type ServiceDependencies struct {
	Logger             Logger
	LoggerProvider     LoggerProvider
	MetricsRecorder    MetricsRecorder
	ErrorFactory       ErrorFactory
	ErrorMapper        ErrorMapper
	PersistenceClient  any
	RepositoryFactory  any
	ConfigProvider     ConfigProvider
	OptionsResolver    OptionsResolver
	Registry           Registry
	EventStore         EventStore
	EndpointStore      EndpointStore
	DeliveryStore      DeliveryStore
	CredentialResolver CredentialResolver
	JobEnqueuer        JobEnqueuer
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("webhooks", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("webhooks"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewProviderRegistry()
	}
	if builder.secretGenerator == nil {
		builder.secretGenerator = RandomSecretGenerator{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	missingStores := builder.eventStore == nil ||
		builder.endpointStore == nil ||
		builder.deliveryStore == nil ||
		builder.credentialResolver == nil
	if missingStores && builder.repositoryFactory != nil {
		var storeProvider StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			built, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			storeProvider = built
		} else if direct, ok := builder.repositoryFactory.(StoreProvider); ok {
			storeProvider = direct
		}
		if storeProvider != nil {
			if builder.eventStore == nil {
				builder.eventStore = storeProvider.EventStore()
			}
			if builder.endpointStore == nil {
				builder.endpointStore = storeProvider.EndpointStore()
			}
			if builder.deliveryStore == nil {
				builder.deliveryStore = storeProvider.DeliveryStore()
			}
			if builder.credentialResolver == nil {
				builder.credentialResolver = storeProvider.CredentialResolver()
			}
		}
	}

	return &Service{
		config:             finalConfig,
		logger:             logger,
		loggerProvider:     provider,
		metricsRecorder:    builder.metricsRecorder,
		errorFactory:       builder.errorFactory,
		errorMapper:        builder.errorMapper,
		persistenceClient:  builder.persistenceClient,
		repositoryFactory:  builder.repositoryFactory,
		configProvider:     builder.configProvider,
		optionsResolver:    builder.optionsResolver,
		registry:           builder.registry,
		eventStore:         builder.eventStore,
		endpointStore:      builder.endpointStore,
		deliveryStore:      builder.deliveryStore,
		credentialResolver: builder.credentialResolver,
		enqueuer:           builder.enqueuer,
		secretGenerator:    builder.secretGenerator,
		now:                func() time.Time { return time.Now().UTC() },
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:             s.logger,
		LoggerProvider:     s.loggerProvider,
		MetricsRecorder:    s.metricsRecorder,
		ErrorFactory:       s.errorFactory,
		ErrorMapper:        s.errorMapper,
		PersistenceClient:  s.persistenceClient,
		RepositoryFactory:  s.repositoryFactory,
		ConfigProvider:     s.configProvider,
		OptionsResolver:    s.optionsResolver,
		Registry:           s.registry,
		EventStore:         s.eventStore,
		EndpointStore:      s.endpointStore,
		DeliveryStore:      s.deliveryStore,
		CredentialResolver: s.credentialResolver,
		JobEnqueuer:        s.enqueuer,
	}
}

type RegisterEndpointInput struct {
	TenantID         string
	URL              string
	SubscribedEvents []string
	CustomHeaders    map[string]string
}

// RegisterEndpointResult carries the stored endpoint plus the plaintext
// signing secret. The secret is only available here; subsequent reads
// return the endpoint without it.
type RegisterEndpointResult struct {
	Endpoint Endpoint
	Secret   string
}

func (s *Service) RegisterEndpoint(ctx context.Context, input RegisterEndpointInput) (result RegisterEndpointResult, err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"tenant_id": input.TenantID,
		"url":       input.URL,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "register_endpoint", err, fields)
	}()

	if s == nil || s.endpointStore == nil {
		return RegisterEndpointResult{}, fmt.Errorf("core: endpoint store is required")
	}
	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		err = s.mapError(fmt.Errorf("core: tenant id is required"))
		return RegisterEndpointResult{}, err
	}
	if err = ValidateEndpointURL(input.URL); err != nil {
		err = s.mapError(err)
		return RegisterEndpointResult{}, err
	}
	if err = ValidateSubscriptions(input.SubscribedEvents); err != nil {
		err = s.mapError(err)
		return RegisterEndpointResult{}, err
	}

	secret, err := s.secretGenerator.Generate()
	if err != nil {
		err = s.mapError(err)
		return RegisterEndpointResult{}, err
	}

	now := s.clock()
	endpoint := Endpoint{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		URL:              strings.TrimSpace(input.URL),
		SubscribedEvents: normalizeSubscriptions(input.SubscribedEvents),
		SigningSecret:    secret,
		CustomHeaders:    copyStringMap(input.CustomHeaders),
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, err := s.endpointStore.Create(ctx, endpoint)
	if err != nil {
		err = s.mapError(err)
		return RegisterEndpointResult{}, err
	}
	fields["endpoint_id"] = stored.ID

	stored.SigningSecret = ""
	result = RegisterEndpointResult{Endpoint: stored, Secret: secret}
	return result, nil
}

type UpdateEndpointInput struct {
	ID               string
	URL              *string
	SubscribedEvents []string
	CustomHeaders    map[string]string
	Active           *bool
}

func (s *Service) UpdateEndpoint(ctx context.Context, input UpdateEndpointInput) (endpoint Endpoint, err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"endpoint_id": input.ID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "update_endpoint", err, fields)
	}()

	if s == nil || s.endpointStore == nil {
		return Endpoint{}, fmt.Errorf("core: endpoint store is required")
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		err = s.mapError(fmt.Errorf("core: endpoint id is required"))
		return Endpoint{}, err
	}

	current, err := s.endpointStore.Get(ctx, id)
	if err != nil {
		err = s.mapError(err)
		return Endpoint{}, err
	}

	if input.URL != nil {
		if err = ValidateEndpointURL(*input.URL); err != nil {
			err = s.mapError(err)
			return Endpoint{}, err
		}
		current.URL = strings.TrimSpace(*input.URL)
	}
	if input.SubscribedEvents != nil {
		if err = ValidateSubscriptions(input.SubscribedEvents); err != nil {
			err = s.mapError(err)
			return Endpoint{}, err
		}
		current.SubscribedEvents = normalizeSubscriptions(input.SubscribedEvents)
	}
	if input.CustomHeaders != nil {
		current.CustomHeaders = copyStringMap(input.CustomHeaders)
	}
	if input.Active != nil {
		current.Active = *input.Active
	}
	current.UpdatedAt = s.clock()

	updated, err := s.endpointStore.Update(ctx, current)
	if err != nil {
		err = s.mapError(err)
		return Endpoint{}, err
	}
	updated.SigningSecret = ""
	return updated, nil
}

func (s *Service) DeleteEndpoint(ctx context.Context, id string) (err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"endpoint_id": id,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "delete_endpoint", err, fields)
	}()

	if s == nil || s.endpointStore == nil {
		return fmt.Errorf("core: endpoint store is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		err = s.mapError(fmt.Errorf("core: endpoint id is required"))
		return err
	}
	if err = s.endpointStore.Delete(ctx, id); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

// RotateEndpointSecret mints a fresh signing secret and returns the
// plaintext once. The previous secret stops being used immediately.
func (s *Service) RotateEndpointSecret(ctx context.Context, id string) (secret string, err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"endpoint_id": id,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "rotate_endpoint_secret", err, fields)
	}()

	if s == nil || s.endpointStore == nil {
		return "", fmt.Errorf("core: endpoint store is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		err = s.mapError(fmt.Errorf("core: endpoint id is required"))
		return "", err
	}
	if _, err = s.endpointStore.Get(ctx, id); err != nil {
		err = s.mapError(err)
		return "", err
	}

	secret, err = s.secretGenerator.Generate()
	if err != nil {
		err = s.mapError(err)
		return "", err
	}
	if err = s.endpointStore.RotateSecret(ctx, id, secret); err != nil {
		err = s.mapError(err)
		return "", err
	}
	return secret, nil
}

func (s *Service) GetEndpoint(ctx context.Context, id string) (Endpoint, error) {
	if s == nil || s.endpointStore == nil {
		return Endpoint{}, fmt.Errorf("core: endpoint store is required")
	}
	endpoint, err := s.endpointStore.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return Endpoint{}, s.mapError(err)
	}
	endpoint.SigningSecret = ""
	return endpoint, nil
}

func (s *Service) ListEndpoints(ctx context.Context, tenantID string) ([]Endpoint, error) {
	if s == nil || s.endpointStore == nil {
		return nil, fmt.Errorf("core: endpoint store is required")
	}
	endpoints, err := s.endpointStore.ListByTenant(ctx, strings.TrimSpace(tenantID))
	if err != nil {
		return nil, s.mapError(err)
	}
	for i := range endpoints {
		endpoints[i].SigningSecret = ""
	}
	return endpoints, nil
}

func (s *Service) ListEndpointDeliveries(ctx context.Context, endpointID string, limit int) ([]Delivery, error) {
	if s == nil || s.deliveryStore == nil {
		return nil, fmt.Errorf("core: delivery store is required")
	}
	if limit <= 0 {
		limit = 50
	}
	deliveries, err := s.deliveryStore.ListRecentByEndpoint(ctx, strings.TrimSpace(endpointID), limit)
	if err != nil {
		return nil, s.mapError(err)
	}
	return deliveries, nil
}

func (s *Service) GetInboundEvent(ctx context.Context, id string) (InboundEvent, error) {
	if s == nil || s.eventStore == nil {
		return InboundEvent{}, fmt.Errorf("core: event store is required")
	}
	event, err := s.eventStore.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return InboundEvent{}, s.mapError(err)
	}
	return event, nil
}

func (s *Service) ListInboundEvents(ctx context.Context, tenantID string, limit, offset int) ([]InboundEvent, error) {
	if s == nil || s.eventStore == nil {
		return nil, fmt.Errorf("core: event store is required")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	events, err := s.eventStore.ListByTenant(ctx, strings.TrimSpace(tenantID), limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}
	return events, nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now().UTC()
	}
	return s.now()
}

func normalizeSubscriptions(events []string) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, len(events))
	for _, eventType := range events {
		eventType = strings.TrimSpace(eventType)
		if eventType == "" {
			continue
		}
		if _, dup := seen[eventType]; dup {
			continue
		}
		seen[eventType] = struct{}{}
		out = append(out, eventType)
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
