package sqlstore

import (
	"time"

	"github.com/RustMunkey/quickdash-sub005/core"
)

func newInboundEventRecord(event core.InboundEvent) *inboundEventRecord {
	record := &inboundEventRecord{
		ID:              event.ID,
		TenantID:        event.TenantID,
		ProviderID:      event.ProviderID,
		ExternalEventID: event.ExternalEventID,
		EventType:       event.EventType,
		Payload:         append([]byte(nil), event.Payload...),
		Headers:         copyStringMap(event.Headers),
		Status:          string(event.Status),
		Unverified:      event.Unverified,
		Error:           event.Error,
		ReceivedAt:      event.ReceivedAt.UTC(),
	}
	if event.ProcessedAt != nil {
		record.ProcessedAt = cloneTimePointer(event.ProcessedAt)
	}
	return record
}

func (r *inboundEventRecord) toDomain() core.InboundEvent {
	if r == nil {
		return core.InboundEvent{}
	}
	return core.InboundEvent{
		ID:              r.ID,
		TenantID:        r.TenantID,
		ProviderID:      r.ProviderID,
		ExternalEventID: r.ExternalEventID,
		EventType:       r.EventType,
		Payload:         append([]byte(nil), r.Payload...),
		Headers:         copyStringMap(r.Headers),
		Status:          core.InboundEventStatus(r.Status),
		Unverified:      r.Unverified,
		Error:           r.Error,
		ReceivedAt:      r.ReceivedAt,
		ProcessedAt:     cloneTimePointer(r.ProcessedAt),
	}
}

func newEndpointRecord(endpoint core.Endpoint) *endpointRecord {
	return &endpointRecord{
		ID:                 endpoint.ID,
		TenantID:           endpoint.TenantID,
		URL:                endpoint.URL,
		SubscribedEvents:   append([]string(nil), endpoint.SubscribedEvents...),
		SigningSecret:      endpoint.SigningSecret,
		CustomHeaders:      copyStringMap(endpoint.CustomHeaders),
		Active:             endpoint.Active,
		LastDeliveryAt:     cloneTimePointer(endpoint.LastDeliveryAt),
		LastDeliveryStatus: endpoint.LastDeliveryStatus,
		CreatedAt:          endpoint.CreatedAt.UTC(),
		UpdatedAt:          endpoint.UpdatedAt.UTC(),
	}
}

func (r *endpointRecord) toDomain() core.Endpoint {
	if r == nil {
		return core.Endpoint{}
	}
	return core.Endpoint{
		ID:                 r.ID,
		TenantID:           r.TenantID,
		URL:                r.URL,
		SubscribedEvents:   append([]string(nil), r.SubscribedEvents...),
		SigningSecret:      r.SigningSecret,
		CustomHeaders:      copyStringMap(r.CustomHeaders),
		Active:             r.Active,
		LastDeliveryAt:     cloneTimePointer(r.LastDeliveryAt),
		LastDeliveryStatus: r.LastDeliveryStatus,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func newDeliveryRecord(delivery core.Delivery) *deliveryRecord {
	return &deliveryRecord{
		ID:            delivery.ID,
		EndpointID:    delivery.EndpointID,
		TenantID:      delivery.TenantID,
		EventType:     delivery.EventType,
		Payload:       append([]byte(nil), delivery.Payload...),
		Status:        string(delivery.Status),
		ResponseCode:  delivery.ResponseCode,
		ResponseBody:  delivery.ResponseBody,
		Error:         delivery.Error,
		Attempts:      delivery.Attempts,
		NextAttemptAt: cloneTimePointer(delivery.NextAttempt),
		DeliveredAt:   cloneTimePointer(delivery.DeliveredAt),
		CreatedAt:     delivery.CreatedAt.UTC(),
		UpdatedAt:     delivery.UpdatedAt.UTC(),
	}
}

func (r *deliveryRecord) toDomain() core.Delivery {
	if r == nil {
		return core.Delivery{}
	}
	return core.Delivery{
		ID:           r.ID,
		EndpointID:   r.EndpointID,
		TenantID:     r.TenantID,
		EventType:    r.EventType,
		Payload:      append([]byte(nil), r.Payload...),
		Status:       core.DeliveryStatus(r.Status),
		ResponseCode: r.ResponseCode,
		ResponseBody: r.ResponseBody,
		Error:        r.Error,
		Attempts:     r.Attempts,
		NextAttempt:  cloneTimePointer(r.NextAttemptAt),
		DeliveredAt:  cloneTimePointer(r.DeliveredAt),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r *credentialRecord) toDomain() core.Credential {
	if r == nil {
		return core.Credential{}
	}
	return core.Credential{
		TenantID:   r.TenantID,
		ProviderID: r.ProviderID,
		Secret:     r.Secret,
		Token:      r.Token,
		Mode:       core.CredentialMode(r.Mode),
		Metadata:   copyStringMap(r.Metadata),
	}
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
