package order

import (
	"context"

	"malume-nico/internal/logger"
	"malume-nico/internal/models"
	"malume-nico/internal/pricing"
)

// Store is the persistence surface the service orchestrates. *Repository
// implements it; tests substitute an in-memory fake.
type Store interface {
	Ping(ctx context.Context) error
	CreateOrder(ctx context.Context, req NewOrder) (*models.Order, error)
	ReplaceItems(ctx context.Context, orderID int64, items []models.ItemSelection) (*models.Order, []models.OrderItem, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error)
	UpdateStatus(ctx context.Context, orderID int64, next models.OrderStatus) (*models.Order, error)
	ListOrders(ctx context.Context, limit int) ([]models.Order, error)
	GetEvents(ctx context.Context, orderID int64) ([]models.OrderEvent, error)
	ResolveActiveItems(ctx context.Context, items []models.ItemSelection) (map[int64]models.MenuItem, error)
	DailySummary(ctx context.Context) (*DailySummary, error)
}

// Notifier delivers order state to realtime subscribers. Implemented by the
// websocket hub.
type Notifier interface {
	PublishOrderUpdate(orderID int64, payload interface{})
	PublishNewOrderForTable(tableNumber string, payload interface{})
}

// KitchenPublisher forwards order lifecycle messages to the kitchen broker.
// A nil publisher disables the integration.
type KitchenPublisher interface {
	PublishKitchenTicket(ctx context.Context, routingKey string, message interface{}) error
}

// OrderWithItems is the payload shape for responses and realtime pushes.
type OrderWithItems struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// Service ties validation, persistence and notification together. Every
// notification fires only after the underlying transaction committed, and
// notification failures never surface to the caller.
type Service struct {
	store    Store
	notifier Notifier
	kitchen  KitchenPublisher
	pricing  pricing.Config
	logger   *logger.Logger
}

// NewService creates the order service. kitchen may be nil.
func NewService(store Store, notifier Notifier, kitchen KitchenPublisher, cfg pricing.Config, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		kitchen:  kitchen,
		pricing:  cfg,
		logger:   log,
	}
}

// HealthCheck reports whether the backing store is reachable.
func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.store.Ping(ctx) == nil
}

// Create validates and persists a new pending order, then notifies the
// table's subscribers if a table number was given.
func (s *Service) Create(ctx context.Context, req *CreateOrderRequest, requestID string) (*models.Order, error) {
	fulfillment, err := req.Validate()
	if err != nil {
		return nil, err
	}

	o, err := s.store.CreateOrder(ctx, NewOrder{
		Type:         fulfillment,
		TableNumber:  req.TableNumber,
		Phone:        req.Phone,
		Email:        req.Email,
		CustomerName: req.CustomerName,
		Note:         req.Note,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_created", "Order created", requestID, map[string]interface{}{
		"order_id": o.ID,
		"type":     string(o.Type),
	})

	if o.TableNumber != nil && *o.TableNumber != "" {
		s.notifier.PublishNewOrderForTable(*o.TableNumber, OrderWithItems{Order: o, Items: []models.OrderItem{}})
	}
	s.publishKitchen(ctx, requestID, "order.created", OrderWithItems{Order: o, Items: []models.OrderItem{}})

	return o, nil
}

// ReplaceItems atomically replaces the order's item list and broadcasts the
// updated order to its subscribers.
func (s *Service) ReplaceItems(ctx context.Context, orderID int64, items []models.ItemSelection, requestID string) (*models.Order, []models.OrderItem, error) {
	if err := ValidateSelections(items); err != nil {
		return nil, nil, err
	}

	o, stored, err := s.store.ReplaceItems(ctx, orderID, items)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("order_items_replaced", "Order items replaced", requestID, map[string]interface{}{
		"order_id":   o.ID,
		"item_count": len(stored),
		"total":      o.Total,
	})

	payload := OrderWithItems{Order: o, Items: stored}
	s.notifier.PublishOrderUpdate(o.ID, payload)
	s.publishKitchen(ctx, requestID, "order.items_updated", payload)

	return o, stored, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	return s.store.GetOrder(ctx, orderID)
}

// UpdateStatus applies a status transition and broadcasts the updated order.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, rawStatus, requestID string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, ValidationError{Field: "status", Message: err.Error()}
	}

	o, err := s.store.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_status_updated", "Order status updated", requestID, map[string]interface{}{
		"order_id": o.ID,
		"status":   string(o.Status),
	})

	s.notifier.PublishOrderUpdate(o.ID, OrderWithItems{Order: o, Items: []models.OrderItem{}})
	s.publishKitchen(ctx, requestID, "order.status_changed", OrderWithItems{Order: o, Items: []models.OrderItem{}})

	return o, nil
}

// List returns recent orders.
func (s *Service) List(ctx context.Context, limit int) ([]models.Order, error) {
	return s.store.ListOrders(ctx, limit)
}

// Events returns an order's event log.
func (s *Service) Events(ctx context.Context, orderID int64) ([]models.OrderEvent, error) {
	return s.store.GetEvents(ctx, orderID)
}

// Summary returns today's sales summary.
func (s *Service) Summary(ctx context.Context) (*DailySummary, error) {
	return s.store.DailySummary(ctx)
}

// PricePreviewRequest is the body of POST /price. Type is optional; when
// omitted the preview assumes delivery, so the fee shown is the worst case.
type PricePreviewRequest struct {
	Type  string                 `json:"type,omitempty"`
	Items []models.ItemSelection `json:"items"`
}

// PricePreview runs the pricing engine over a hypothetical item list without
// persisting anything. Ids that do not resolve to an active item are skipped,
// matching ReplaceItems.
func (s *Service) PricePreview(ctx context.Context, req *PricePreviewRequest) (*pricing.Quote, error) {
	if err := ValidateSelections(req.Items); err != nil {
		return nil, err
	}

	applyFee := true
	if req.Type != "" {
		fulfillment, err := models.ParseFulfillmentType(req.Type)
		if err != nil {
			return nil, ValidationError{Field: "type", Message: err.Error()}
		}
		applyFee = fulfillment == models.Delivery
	}

	resolved, err := s.store.ResolveActiveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(req.Items))
	for _, sel := range req.Items {
		mi, ok := resolved[sel.MenuItemID]
		if !ok {
			continue
		}
		lines = append(lines, pricing.Line{UnitPrice: mi.Price, Quantity: sel.Quantity})
	}

	quote := pricing.Compute(lines, s.pricing, applyFee)
	return &quote, nil
}

// publishKitchen forwards a message to the kitchen broker, best-effort.
func (s *Service) publishKitchen(ctx context.Context, requestID, routingKey string, message interface{}) {
	if s.kitchen == nil {
		return
	}
	if err := s.kitchen.PublishKitchenTicket(ctx, routingKey, message); err != nil {
		s.logger.Error("kitchen_publish_failed", "Failed to publish kitchen ticket", requestID, err, map[string]interface{}{
			"routing_key": routingKey,
		})
	}
}
