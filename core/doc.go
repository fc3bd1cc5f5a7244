// Package core holds the domain model and contracts for the webhook
// integration layer: inbound event ingestion state, tenant-registered
// outbound endpoints, delivery records, and the interfaces the gateway,
// dispatcher, and stores are built against.
package core
