package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/RustMunkey/quickdash-sub005/core"
)

type EndpointStore struct {
	db   *bun.DB
	repo repository.Repository[*endpointRecord]
}

func NewEndpointStore(db *bun.DB) (*EndpointStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*endpointRecord](db, endpointHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid endpoint repository wiring: %w", err)
		}
	}
	return &EndpointStore{db: db, repo: repo}, nil
}

func (s *EndpointStore) Create(ctx context.Context, endpoint core.Endpoint) (core.Endpoint, error) {
	if s == nil || s.db == nil {
		return core.Endpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	if strings.TrimSpace(endpoint.ID) == "" {
		endpoint.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if endpoint.CreatedAt.IsZero() {
		endpoint.CreatedAt = now
	}
	if endpoint.UpdatedAt.IsZero() {
		endpoint.UpdatedAt = now
	}
	record := newEndpointRecord(endpoint)
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Endpoint{}, err
	}
	return record.toDomain(), nil
}

func (s *EndpointStore) Update(ctx context.Context, endpoint core.Endpoint) (core.Endpoint, error) {
	if s == nil || s.repo == nil {
		return core.Endpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	id := strings.TrimSpace(endpoint.ID)
	if id == "" {
		return core.Endpoint{}, fmt.Errorf("sqlstore: endpoint id is required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return core.Endpoint{}, err
	}
	endpoint.UpdatedAt = time.Now().UTC()
	record := newEndpointRecord(endpoint)
	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(id))
	if err != nil {
		return core.Endpoint{}, err
	}
	return updated.toDomain(), nil
}

func (s *EndpointStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: endpoint id is required")
	}
	result, err := s.db.NewDelete().
		Model((*endpointRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrEndpointNotFound, id)
	}
	return nil
}

func (s *EndpointStore) Get(ctx context.Context, id string) (core.Endpoint, error) {
	if s == nil || s.repo == nil {
		return core.Endpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Endpoint{}, fmt.Errorf("sqlstore: endpoint id is required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return core.Endpoint{}, fmt.Errorf("%w: %s", core.ErrEndpointNotFound, id)
		}
		return core.Endpoint{}, err
	}
	return record.toDomain(), nil
}

func (s *EndpointStore) ListByTenant(ctx context.Context, tenantID string) ([]core.Endpoint, error) {
	return s.list(ctx, tenantID, false)
}

func (s *EndpointStore) ListActiveByTenant(ctx context.Context, tenantID string) ([]core.Endpoint, error) {
	return s.list(ctx, tenantID, true)
}

func (s *EndpointStore) list(ctx context.Context, tenantID string, activeOnly bool) ([]core.Endpoint, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	criteria := []repository.SelectCriteria{
		repository.SelectBy("tenant_id", "=", strings.TrimSpace(tenantID)),
		repository.OrderBy("created_at ASC"),
	}
	if activeOnly {
		criteria = append(criteria, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.active = ?", true)
		}))
	}
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]core.Endpoint, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *EndpointStore) RotateSecret(ctx context.Context, id string, secret string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: endpoint id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("sqlstore: signing secret is required")
	}
	result, err := s.db.NewUpdate().
		Model((*endpointRecord)(nil)).
		Set("signing_secret = ?", secret).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrEndpointNotFound, id)
	}
	return nil
}

func (s *EndpointStore) RecordHealth(ctx context.Context, id string, status core.DeliveryStatus, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: endpoint id is required")
	}
	result, err := s.db.NewUpdate().
		Model((*endpointRecord)(nil)).
		Set("last_delivery_status = ?", string(status)).
		Set("last_delivery_at = ?", at.UTC()).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrEndpointNotFound, id)
	}
	return nil
}
