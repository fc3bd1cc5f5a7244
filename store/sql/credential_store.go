package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/RustMunkey/quickdash-sub005/core"
)

type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*credentialRecord]
}

func NewCredentialStore(db *bun.DB) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*credentialRecord](db, credentialHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid credential repository wiring: %w", err)
		}
	}
	return &CredentialStore{db: db, repo: repo}, nil
}

func (s *CredentialStore) Resolve(ctx context.Context, tenantID string, providerID string) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	tenantID = strings.TrimSpace(tenantID)
	providerID = strings.TrimSpace(providerID)
	if tenantID == "" || providerID == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: tenant id and provider id are required")
	}
	record := &credentialRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.tenant_id = ?", tenantID).
		Where("?TableAlias.provider_id = ?", providerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Credential{}, fmt.Errorf("%w: tenant %q provider %q", core.ErrCredentialNotFound, tenantID, providerID)
		}
		return core.Credential{}, err
	}
	return record.toDomain(), nil
}

const credentialCacheKeyPrefix = "webhooks::credential::v1"

// CachedCredentialResolver fronts the database resolver with a cache.
// Credentials are read on every inbound request but rotated rarely, so
// rotation invalidates through Invalidate rather than a short TTL.
type CachedCredentialResolver struct {
	base  core.CredentialResolver
	cache repositorycache.CacheService
}

func NewCachedCredentialResolver(base core.CredentialResolver, cacheService repositorycache.CacheService) (*CachedCredentialResolver, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base credential resolver is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: credential cache service is required")
	}
	return &CachedCredentialResolver{base: base, cache: cacheService}, nil
}

func credentialCacheKey(tenantID, providerID string) string {
	segments := []string{
		url.PathEscape(strings.TrimSpace(tenantID)),
		url.PathEscape(strings.TrimSpace(providerID)),
	}
	return strings.Join(append([]string{credentialCacheKeyPrefix}, segments...), "::")
}

func (r *CachedCredentialResolver) Resolve(ctx context.Context, tenantID string, providerID string) (core.Credential, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached credential resolver is not configured")
	}
	key := credentialCacheKey(tenantID, providerID)
	credential, err := repositorycache.GetOrFetch(ctx, r.cache, key, func(ctx context.Context) (core.Credential, error) {
		return r.base.Resolve(ctx, tenantID, providerID)
	})
	if err != nil {
		return core.Credential{}, err
	}
	credential.Metadata = copyStringMap(credential.Metadata)
	return credential, nil
}

func (r *CachedCredentialResolver) Invalidate(ctx context.Context, tenantID string, providerID string) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached credential resolver is not configured")
	}
	return r.cache.Delete(ctx, credentialCacheKey(tenantID, providerID))
}
