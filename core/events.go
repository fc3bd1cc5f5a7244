package core

import (
	"fmt"
	"sort"
	"strings"
)

// EventWildcard subscribes an endpoint to every event type.
const EventWildcard = "*"

// The outbound event catalog is a closed, compile-time set shared by the
// dispatcher and by subscription validation. Adding an event type means
// adding a constant here, not widening a runtime table.
const (
	EventOrderCreated    = "order.created"
	EventOrderPaid       = "order.paid"
	EventOrderShipped    = "order.shipped"
	EventOrderRefunded   = "order.refunded"
	EventOrderCancelled  = "order.cancelled"
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
	EventDiscountCreated = "discount.created"
	EventDiscountUpdated = "discount.updated"
	EventCustomerCreated = "customer.created"
)

var knownEventTypes = map[string]struct{}{
	EventOrderCreated:    {},
	EventOrderPaid:       {},
	EventOrderShipped:    {},
	EventOrderRefunded:   {},
	EventOrderCancelled:  {},
	EventProductCreated:  {},
	EventProductUpdated:  {},
	EventProductDeleted:  {},
	EventDiscountCreated: {},
	EventDiscountUpdated: {},
	EventCustomerCreated: {},
}

func IsKnownEventType(eventType string) bool {
	_, ok := knownEventTypes[strings.TrimSpace(eventType)]
	return ok
}

func KnownEventTypes() []string {
	out := make([]string, 0, len(knownEventTypes))
	for eventType := range knownEventTypes {
		out = append(out, eventType)
	}
	sort.Strings(out)
	return out
}

// ValidateSubscriptions checks a tenant-supplied subscription list
// against the catalog. The wildcard is accepted alone or alongside
// explicit types.
func ValidateSubscriptions(events []string) error {
	if len(events) == 0 {
		return fmt.Errorf("core: at least one subscribed event is required")
	}
	for _, eventType := range events {
		eventType = strings.TrimSpace(eventType)
		if eventType == EventWildcard {
			continue
		}
		if !IsKnownEventType(eventType) {
			return fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
		}
	}
	return nil
}
