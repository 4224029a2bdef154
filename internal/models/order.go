package models

import (
	"fmt"
	"time"
)

// FulfillmentType determines which contact fields an order must carry and
// whether a delivery fee can apply.
type FulfillmentType string

const (
	DineIn   FulfillmentType = "dine_in"
	Pickup   FulfillmentType = "pickup"
	Delivery FulfillmentType = "delivery"
)

// ParseFulfillmentType validates a raw fulfillment type value.
func ParseFulfillmentType(raw string) (FulfillmentType, error) {
	switch FulfillmentType(raw) {
	case DineIn, Pickup, Delivery:
		return FulfillmentType(raw), nil
	default:
		return "", fmt.Errorf("type must be one of: dine_in, pickup, delivery")
	}
}

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusInKitchen OrderStatus = "in_kitchen"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates a raw status value.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case StatusPending, StatusConfirmed, StatusInKitchen, StatusReady, StatusCompleted, StatusCancelled:
		return OrderStatus(raw), nil
	default:
		return "", fmt.Errorf("status must be one of: pending, confirmed, in_kitchen, ready, completed, cancelled")
	}
}

// transitions holds the permitted forward step for each non-terminal status.
// Cancellation is handled separately: any non-terminal status may cancel.
var transitions = map[OrderStatus]OrderStatus{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusInKitchen,
	StatusInKitchen: StatusReady,
	StatusReady:     StatusCompleted,
}

// Terminal reports whether no further status transitions are permitted.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return transitions[s] == next
}

// InvalidTransitionError is returned when a status update violates the order
// state machine.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// MenuItem is a catalog entry. Its price is copied into order items at
// insertion time, so later edits never touch existing orders.
type MenuItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Img      string `json:"img"`
	IsActive bool   `json:"-"`
}

// OrderItem is a line inside an order, carrying a snapshot of the menu item's
// name and price at the time the line was written.
type OrderItem struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"order_id"`
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Quantity   int    `json:"qty"`
	LineTotal  int64  `json:"line_total"`
}

// Order is a customer order. All monetary fields are integer minor units.
type Order struct {
	ID           int64           `json:"id"`
	Type         FulfillmentType `json:"type"`
	TableNumber  *string         `json:"table_number,omitempty"`
	Phone        *string         `json:"phone,omitempty"`
	Email        *string         `json:"email,omitempty"`
	CustomerName *string         `json:"customer_name,omitempty"`
	Note         *string         `json:"note,omitempty"`
	Status       OrderStatus     `json:"status"`
	Subtotal     int64           `json:"subtotal"`
	DeliveryFee  int64           `json:"delivery_fee"`
	Total        int64           `json:"total"`
	FreeDelivery bool            `json:"free_delivery"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ItemSelection is a (menu item, quantity) pairing as submitted by a client.
type ItemSelection struct {
	MenuItemID int64 `json:"menu_item_id" binding:"required"`
	Quantity   int   `json:"qty" binding:"required,min=1"`
}
