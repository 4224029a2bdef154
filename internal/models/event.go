package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind identifies the type of an order event.
type EventKind string

const (
	EventOrderCreated  EventKind = "order_created"
	EventItemsUpdated  EventKind = "items_updated"
	EventStatusChanged EventKind = "status_changed"
)

// OrderEvent is an append-only audit record of a state-changing action taken
// against an order. Events are never mutated or deleted.
type OrderEvent struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	Kind      EventKind       `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderCreatedPayload records the shape of an order at creation time.
type OrderCreatedPayload struct {
	Type        FulfillmentType `json:"type"`
	TableNumber *string         `json:"table_number,omitempty"`
}

// ItemsUpdatedPayload records the item list submitted to a replace-items call.
type ItemsUpdatedPayload struct {
	Items []ItemSelection `json:"items"`
}

// StatusChangedPayload records a status transition.
type StatusChangedPayload struct {
	From OrderStatus `json:"from"`
	To   OrderStatus `json:"to"`
}

// EncodeEventPayload marshals a typed payload for storage. The payload type
// must correspond to the event kind it is stored under.
func EncodeEventPayload(payload interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}
	return raw, nil
}

// DecodePayload unmarshals the event's payload into the typed struct for its
// kind. Unknown kinds fail rather than yielding an untyped blob.
func (e *OrderEvent) DecodePayload() (interface{}, error) {
	switch e.Kind {
	case EventOrderCreated:
		var p OrderCreatedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", e.Kind, err)
		}
		return p, nil
	case EventItemsUpdated:
		var p ItemsUpdatedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", e.Kind, err)
		}
		return p, nil
	case EventStatusChanged:
		var p StatusChangedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", e.Kind, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event kind: %s", e.Kind)
	}
}
