package sqlstore

import "github.com/RustMunkey/quickdash-sub005/core"

var (
	_ core.EventStore             = (*EventStore)(nil)
	_ core.EndpointStore          = (*EndpointStore)(nil)
	_ core.DeliveryStore          = (*DeliveryStore)(nil)
	_ core.CredentialResolver     = (*CredentialStore)(nil)
	_ core.CredentialResolver     = (*CachedCredentialResolver)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
