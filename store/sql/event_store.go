package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/RustMunkey/quickdash-sub005/core"
)

type EventStore struct {
	db   *bun.DB
	repo repository.Repository[*inboundEventRecord]
}

func NewEventStore(db *bun.DB) (*EventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*inboundEventRecord](db, inboundEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid inbound event repository wiring: %w", err)
		}
	}
	return &EventStore{db: db, repo: repo}, nil
}

// InsertIfAbsent relies on the unique index over
// (tenant_id, provider_id, external_event_id): concurrent inserts of the
// same external event race at the database, the loser reads the winner's
// row back and reports deduped.
func (s *EventStore) InsertIfAbsent(ctx context.Context, event core.InboundEvent) (core.InboundEvent, bool, error) {
	if s == nil || s.db == nil {
		return core.InboundEvent{}, false, fmt.Errorf("sqlstore: event store is not configured")
	}
	event.TenantID = strings.TrimSpace(event.TenantID)
	event.ProviderID = strings.TrimSpace(event.ProviderID)
	event.ExternalEventID = strings.TrimSpace(event.ExternalEventID)
	if event.TenantID == "" || event.ProviderID == "" || event.ExternalEventID == "" {
		return core.InboundEvent{}, false, fmt.Errorf("sqlstore: tenant id, provider id, and external event id are required")
	}
	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	record := newInboundEventRecord(event)
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			existing, getErr := s.GetByKey(ctx, event.TenantID, event.ProviderID, event.ExternalEventID)
			if getErr != nil {
				return core.InboundEvent{}, false, getErr
			}
			return existing, true, nil
		}
		return core.InboundEvent{}, false, err
	}
	return record.toDomain(), false, nil
}

func (s *EventStore) Get(ctx context.Context, id string) (core.InboundEvent, error) {
	if s == nil || s.repo == nil {
		return core.InboundEvent{}, fmt.Errorf("sqlstore: event store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.InboundEvent{}, fmt.Errorf("sqlstore: event id is required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return core.InboundEvent{}, fmt.Errorf("%w: %s", core.ErrEventNotFound, id)
		}
		return core.InboundEvent{}, err
	}
	return record.toDomain(), nil
}

func (s *EventStore) GetByKey(ctx context.Context, tenantID, providerID, externalEventID string) (core.InboundEvent, error) {
	if s == nil || s.db == nil {
		return core.InboundEvent{}, fmt.Errorf("sqlstore: event store is not configured")
	}
	record := &inboundEventRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("?TableAlias.provider_id = ?", strings.TrimSpace(providerID)).
		Where("?TableAlias.external_event_id = ?", strings.TrimSpace(externalEventID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.InboundEvent{}, fmt.Errorf(
				"%w: tenant %q provider %q external id %q",
				core.ErrEventNotFound, tenantID, providerID, externalEventID,
			)
		}
		return core.InboundEvent{}, err
	}
	return record.toDomain(), nil
}

func (s *EventStore) UpdateStatus(ctx context.Context, id string, status core.InboundEventStatus, reason string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := event.TransitionTo(status, reason, now); err != nil {
		return err
	}

	query := s.db.NewUpdate().
		Model((*inboundEventRecord)(nil)).
		Set("status = ?", string(event.Status)).
		Set("error = ?", event.Error).
		Where("id = ?", strings.TrimSpace(id))
	if event.ProcessedAt != nil {
		query = query.Set("processed_at = ?", event.ProcessedAt.UTC())
	}
	_, err = query.Exec(ctx)
	return err
}

func (s *EventStore) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]core.InboundEvent, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: event store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("tenant_id", "=", strings.TrimSpace(tenantID)),
		repository.OrderBy("received_at DESC"),
		repository.SelectPaginate(limit, offset),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.InboundEvent, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}

func isNotFound(err error) bool {
	if err == sql.ErrNoRows {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no rows")
}
