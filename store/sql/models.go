package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type inboundEventRecord struct {
	bun.BaseModel `bun:"table:webhook_inbound_events,alias:wie"`

	ID              string            `bun:"id,pk"`
	TenantID        string            `bun:"tenant_id,notnull"`
	ProviderID      string            `bun:"provider_id,notnull"`
	ExternalEventID string            `bun:"external_event_id,notnull"`
	EventType       string            `bun:"event_type,notnull"`
	Payload         []byte            `bun:"payload"`
	Headers         map[string]string `bun:"headers,type:jsonb"`
	Status          string            `bun:"status,notnull"`
	Unverified      bool              `bun:"unverified,notnull"`
	Error           string            `bun:"error"`
	ReceivedAt      time.Time         `bun:"received_at,nullzero,notnull"`
	ProcessedAt     *time.Time        `bun:"processed_at,nullzero"`
}

type endpointRecord struct {
	bun.BaseModel `bun:"table:webhook_endpoints,alias:we"`

	ID                 string            `bun:"id,pk"`
	TenantID           string            `bun:"tenant_id,notnull"`
	URL                string            `bun:"url,notnull"`
	SubscribedEvents   []string          `bun:"subscribed_events,type:jsonb,notnull"`
	SigningSecret      string            `bun:"signing_secret,notnull"`
	CustomHeaders      map[string]string `bun:"custom_headers,type:jsonb"`
	Active             bool              `bun:"active,notnull"`
	LastDeliveryAt     *time.Time        `bun:"last_delivery_at,nullzero"`
	LastDeliveryStatus string            `bun:"last_delivery_status"`
	CreatedAt          time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type deliveryRecord struct {
	bun.BaseModel `bun:"table:webhook_deliveries,alias:wd"`

	ID            string     `bun:"id,pk"`
	EndpointID    string     `bun:"endpoint_id,notnull"`
	TenantID      string     `bun:"tenant_id,notnull"`
	EventType     string     `bun:"event_type,notnull"`
	Payload       []byte     `bun:"payload"`
	Status        string     `bun:"status,notnull"`
	ResponseCode  int        `bun:"response_code"`
	ResponseBody  string     `bun:"response_body"`
	Error         string     `bun:"error"`
	Attempts      int        `bun:"attempts,notnull"`
	NextAttemptAt *time.Time `bun:"next_attempt_at,nullzero"`
	DeliveredAt   *time.Time `bun:"delivered_at,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type credentialRecord struct {
	bun.BaseModel `bun:"table:webhook_credentials,alias:wc"`

	ID         string            `bun:"id,pk"`
	TenantID   string            `bun:"tenant_id,notnull"`
	ProviderID string            `bun:"provider_id,notnull"`
	Secret     string            `bun:"secret,notnull"`
	Token      string            `bun:"token"`
	Mode       string            `bun:"mode,notnull"`
	Metadata   map[string]string `bun:"metadata,type:jsonb"`
	CreatedAt  time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
