package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"malume-nico/internal/database"
	"malume-nico/internal/models"
	"malume-nico/internal/pricing"
)

// NewOrder carries the validated fields for order creation.
type NewOrder struct {
	Type         models.FulfillmentType
	TableNumber  *string
	Phone        *string
	Email        *string
	CustomerName *string
	Note         *string
}

// DailySummary aggregates today's non-cancelled orders.
type DailySummary struct {
	Date       string `json:"date"`
	OrderCount int64  `json:"order_count"`
	Revenue    int64  `json:"revenue"`
}

// Repository persists orders, their items and their event log in PostgreSQL.
// All mutating operations run in a single transaction and lock the order row,
// so concurrent calls against the same order serialize.
type Repository struct {
	db      *database.DB
	pricing pricing.Config
}

// NewRepository creates a repository over the given database.
func NewRepository(db *database.DB, cfg pricing.Config) *Repository {
	return &Repository{db: db, pricing: cfg}
}

// Ping reports database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// CreateOrder inserts a new order in status pending with zero totals and
// appends an order_created event.
func (r *Repository) CreateOrder(ctx context.Context, req NewOrder) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o := &models.Order{
		Type:         req.Type,
		TableNumber:  req.TableNumber,
		Phone:        req.Phone,
		Email:        req.Email,
		CustomerName: req.CustomerName,
		Note:         req.Note,
		Status:       models.StatusPending,
	}

	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		o.Type, o.TableNumber, o.Phone, o.Email, o.CustomerName, o.Note, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	payload, err := models.EncodeEventPayload(models.OrderCreatedPayload{
		Type:        o.Type,
		TableNumber: o.TableNumber,
	})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, database.InsertOrderEventSQL, o.ID, models.EventOrderCreated, payload); err != nil {
		return nil, fmt.Errorf("failed to append order event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return o, nil
}

// ReplaceItems swaps an order's entire item list in one atomic unit: current
// active menu prices are snapshotted into the new lines, totals are
// recomputed over the new set, and an items_updated event is appended.
// Submitted ids that do not resolve to an active menu item are skipped.
func (r *Repository) ReplaceItems(ctx context.Context, orderID int64, items []models.ItemSelection) (*models.Order, []models.OrderItem, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := scanOrder(tx.QueryRow(ctx, database.LockOrderSQL, orderID))
	if err != nil {
		return nil, nil, err
	}

	selections := mergeSelections(items)

	resolved, err := resolveMenuItems(ctx, tx, selections)
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(ctx, database.DeleteOrderItemsSQL, orderID); err != nil {
		return nil, nil, fmt.Errorf("failed to delete order items: %w", err)
	}

	newItems := make([]models.OrderItem, 0, len(selections))
	lines := make([]pricing.Line, 0, len(selections))
	for _, sel := range selections {
		mi, ok := resolved[sel.MenuItemID]
		if !ok {
			continue
		}

		item := models.OrderItem{
			OrderID:    orderID,
			MenuItemID: mi.ID,
			Name:       mi.Name,
			Price:      mi.Price,
			Quantity:   sel.Quantity,
			LineTotal:  mi.Price * int64(sel.Quantity),
		}
		err = tx.QueryRow(ctx, database.InsertOrderItemSQL,
			item.OrderID, item.MenuItemID, item.Name, item.Price, item.Quantity, item.LineTotal,
		).Scan(&item.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert order item: %w", err)
		}

		newItems = append(newItems, item)
		lines = append(lines, pricing.Line{UnitPrice: item.Price, Quantity: item.Quantity})
	}

	quote := pricing.Compute(lines, r.pricing, o.Type == models.Delivery)
	err = tx.QueryRow(ctx, database.UpdateOrderTotalsSQL,
		quote.Subtotal, quote.DeliveryFee, quote.Total, quote.FreeDelivery, orderID,
	).Scan(&o.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update order totals: %w", err)
	}
	o.Subtotal = quote.Subtotal
	o.DeliveryFee = quote.DeliveryFee
	o.Total = quote.Total
	o.FreeDelivery = quote.FreeDelivery

	payload, err := models.EncodeEventPayload(models.ItemsUpdatedPayload{Items: items})
	if err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec(ctx, database.InsertOrderEventSQL, orderID, models.EventItemsUpdated, payload); err != nil {
		return nil, nil, fmt.Errorf("failed to append order event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit: %w", err)
	}
	return o, newItems, nil
}

// GetOrder returns the order and its items.
func (r *Repository) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, database.GetOrderSQL, orderID))
	if err != nil {
		return nil, nil, err
	}

	items, err := r.getItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

// UpdateStatus moves the order to a new status if the transition is legal and
// appends a status_changed event. Terminal orders reject any update.
func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, next models.OrderStatus) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := scanOrder(tx.QueryRow(ctx, database.LockOrderSQL, orderID))
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, models.InvalidTransitionError{From: o.Status, To: next}
	}
	prev := o.Status

	if err := tx.QueryRow(ctx, database.UpdateOrderStatusSQL, next, orderID).Scan(&o.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	o.Status = next

	payload, err := models.EncodeEventPayload(models.StatusChangedPayload{From: prev, To: next})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, database.InsertOrderEventSQL, orderID, models.EventStatusChanged, payload); err != nil {
		return nil, fmt.Errorf("failed to append order event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return o, nil
}

// ListOrders returns the most recent orders, newest first.
func (r *Repository) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, database.ListOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// GetEvents returns the order's event log, oldest first.
func (r *Repository) GetEvents(ctx context.Context, orderID int64) ([]models.OrderEvent, error) {
	if _, err := scanOrder(r.db.QueryRow(ctx, database.GetOrderSQL, orderID)); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, database.GetOrderEventsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order events: %w", err)
	}
	defer rows.Close()

	var events []models.OrderEvent
	for rows.Next() {
		var e models.OrderEvent
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Kind, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ResolveActiveItems maps menu item ids to active menu items, for price
// previews outside a transaction.
func (r *Repository) ResolveActiveItems(ctx context.Context, items []models.ItemSelection) (map[int64]models.MenuItem, error) {
	return resolveMenuItems(ctx, r.db.Pool, mergeSelections(items))
}

// DailySummary returns today's order count and revenue, excluding cancelled
// orders. The date label comes from the same query as the aggregation, so
// both always agree on what "today" is.
func (r *Repository) DailySummary(ctx context.Context) (*DailySummary, error) {
	var s DailySummary
	if err := r.db.QueryRow(ctx, database.DailySummarySQL).Scan(&s.Date, &s.OrderCount, &s.Revenue); err != nil {
		return nil, fmt.Errorf("failed to compute daily summary: %w", err)
	}
	return &s, nil
}

func (r *Repository) getItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.Query(ctx, database.GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Price, &it.Quantity, &it.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// querier abstracts pool and transaction for shared lookups.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func resolveMenuItems(ctx context.Context, q querier, selections []models.ItemSelection) (map[int64]models.MenuItem, error) {
	resolved := make(map[int64]models.MenuItem, len(selections))
	if len(selections) == 0 {
		return resolved, nil
	}

	ids := make([]int64, 0, len(selections))
	for _, sel := range selections {
		ids = append(ids, sel.MenuItemID)
	}

	rows, err := q.Query(ctx, database.GetActiveMenuItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve menu items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mi models.MenuItem
		if err := rows.Scan(&mi.ID, &mi.Name, &mi.Price); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		mi.IsActive = true
		resolved[mi.ID] = mi
	}
	return resolved, rows.Err()
}

// mergeSelections collapses duplicate menu item ids by summing quantities, so
// the resulting item set keeps one line per menu item.
func mergeSelections(items []models.ItemSelection) []models.ItemSelection {
	merged := make([]models.ItemSelection, 0, len(items))
	index := make(map[int64]int, len(items))

	for _, sel := range items {
		if at, ok := index[sel.MenuItemID]; ok {
			merged[at].Quantity += sel.Quantity
			continue
		}
		index[sel.MenuItemID] = len(merged)
		merged = append(merged, sel)
	}
	return merged
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.Type, &o.TableNumber, &o.Phone, &o.Email, &o.CustomerName, &o.Note,
		&o.Status, &o.Subtotal, &o.DeliveryFee, &o.Total, &o.FreeDelivery,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}
