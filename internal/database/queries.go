package database

// Menu queries
const (
	GetActiveMenuItemsSQL = `
		SELECT id, name, price, img, is_active
		FROM menu_items
		WHERE is_active = TRUE
		ORDER BY price DESC, id ASC`

	GetActiveMenuItemsByIDsSQL = `
		SELECT id, name, price
		FROM menu_items
		WHERE id = ANY($1) AND is_active = TRUE`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (type, table_number, phone, email, customer_name, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	GetOrderSQL = `
		SELECT id, type, table_number, phone, email, customer_name, note, status,
			   subtotal, delivery_fee, total, free_delivery, created_at, updated_at
		FROM orders WHERE id = $1`

	LockOrderSQL = `
		SELECT id, type, table_number, phone, email, customer_name, note, status,
			   subtotal, delivery_fee, total, free_delivery, created_at, updated_at
		FROM orders WHERE id = $1
		FOR UPDATE`

	ListOrdersSQL = `
		SELECT id, type, table_number, phone, email, customer_name, note, status,
			   subtotal, delivery_fee, total, free_delivery, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1`

	UpdateOrderTotalsSQL = `
		UPDATE orders
		SET subtotal = $1, delivery_fee = $2, total = $3, free_delivery = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at`

	DailySummarySQL = `
		SELECT to_char(CURRENT_DATE, 'YYYY-MM-DD'), COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at::date = CURRENT_DATE AND status <> 'cancelled'`
)

// Order item queries
const (
	GetOrderItemsSQL = `
		SELECT id, order_id, menu_item_id, name, price, quantity, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC`

	DeleteOrderItemsSQL = `
		DELETE FROM order_items WHERE order_id = $1`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, menu_item_id, name, price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
)

// Order event queries
const (
	InsertOrderEventSQL = `
		INSERT INTO order_events (order_id, kind, payload)
		VALUES ($1, $2, $3)`

	GetOrderEventsSQL = `
		SELECT id, order_id, kind, payload, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY id ASC`
)
