package quickdash

import "github.com/RustMunkey/quickdash-sub005/core"

type Config = core.Config

type InboundConfig = core.InboundConfig

type OutboundConfig = core.OutboundConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type EventStore = core.EventStore
type EndpointStore = core.EndpointStore
type DeliveryStore = core.DeliveryStore
type CredentialResolver = core.CredentialResolver
type JobEnqueuer = core.JobEnqueuer
type Registry = core.Registry
type Provider = core.Provider

type InboundRequest = core.InboundRequest
type InboundResult = core.InboundResult

type RegisterEndpointInput = core.RegisterEndpointInput
type RegisterEndpointResult = core.RegisterEndpointResult
type UpdateEndpointInput = core.UpdateEndpointInput

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorFactory       = core.WithErrorFactory
	WithErrorMapper        = core.WithErrorMapper
	WithPersistenceClient  = core.WithPersistenceClient
	WithRepositoryFactory  = core.WithRepositoryFactory
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithRegistry           = core.WithRegistry
	WithEventStore         = core.WithEventStore
	WithEndpointStore      = core.WithEndpointStore
	WithDeliveryStore      = core.WithDeliveryStore
	WithCredentialResolver = core.WithCredentialResolver
	WithJobEnqueuer        = core.WithJobEnqueuer
	WithSecretGenerator    = core.WithSecretGenerator
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
