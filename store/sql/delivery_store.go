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

type DeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*deliveryRecord]
}

func NewDeliveryStore(db *bun.DB) (*DeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*deliveryRecord](db, deliveryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid delivery repository wiring: %w", err)
		}
	}
	return &DeliveryStore{db: db, repo: repo}, nil
}

func (s *DeliveryStore) Create(ctx context.Context, delivery core.Delivery) (core.Delivery, error) {
	if s == nil || s.db == nil {
		return core.Delivery{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	if strings.TrimSpace(delivery.ID) == "" {
		delivery.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = now
	}
	if delivery.UpdatedAt.IsZero() {
		delivery.UpdatedAt = now
	}
	record := newDeliveryRecord(delivery)
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Delivery{}, err
	}
	return record.toDomain(), nil
}

func (s *DeliveryStore) Get(ctx context.Context, id string) (core.Delivery, error) {
	if s == nil || s.repo == nil {
		return core.Delivery{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Delivery{}, fmt.Errorf("sqlstore: delivery id is required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return core.Delivery{}, fmt.Errorf("%w: %s", core.ErrDeliveryNotFound, id)
		}
		return core.Delivery{}, err
	}
	return record.toDomain(), nil
}

func (s *DeliveryStore) RecordSuccess(ctx context.Context, id string, responseCode int, responseBody string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery store is not configured")
	}
	delivery, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := delivery.TransitionTo(core.DeliveryStatusSuccess, at.UTC()); err != nil {
		return err
	}
	_, err = s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", string(core.DeliveryStatusSuccess)).
		Set("response_code = ?", responseCode).
		Set("response_body = ?", responseBody).
		Set("error = ?", "").
		Set("attempts = ?", delivery.Attempts+1).
		Set("next_attempt_at = NULL").
		Set("delivered_at = ?", at.UTC()).
		Set("updated_at = ?", at.UTC()).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	return err
}

func (s *DeliveryStore) RecordFailure(ctx context.Context, id string, responseCode int, responseBody string, reason string, nextAttempt *time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery store is not configured")
	}
	delivery, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if delivery.Status == core.DeliveryStatusSuccess {
		return fmt.Errorf("%w: %s -> %s", core.ErrInvalidDeliveryStatusTransition, delivery.Status, core.DeliveryStatusFailed)
	}
	now := time.Now().UTC()
	query := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", string(core.DeliveryStatusFailed)).
		Set("response_code = ?", responseCode).
		Set("response_body = ?", responseBody).
		Set("error = ?", reason).
		Set("attempts = ?", delivery.Attempts+1).
		Set("updated_at = ?", now).
		Where("id = ?", strings.TrimSpace(id))
	if nextAttempt == nil {
		query = query.Set("next_attempt_at = NULL")
	} else {
		query = query.Set("next_attempt_at = ?", nextAttempt.UTC())
	}
	_, err = query.Exec(ctx)
	return err
}

func (s *DeliveryStore) ListRecentByEndpoint(ctx context.Context, endpointID string, limit int) ([]core.Delivery, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("endpoint_id", "=", strings.TrimSpace(endpointID)),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Delivery, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
