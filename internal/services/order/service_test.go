package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"malume-nico/internal/logger"
	"malume-nico/internal/models"
	"malume-nico/internal/pricing"
)

type fakeStore struct {
	orders  map[int64]*models.Order
	items   map[int64][]models.OrderItem
	menu    map[int64]models.MenuItem
	nextID  int64
	failAll bool

	createCalls  int
	replaceCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
		menu:   make(map[int64]models.MenuItem),
		nextID: 1,
	}
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.failAll {
		return errors.New("store down")
	}
	return nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, req NewOrder) (*models.Order, error) {
	f.createCalls++
	if f.failAll {
		return nil, errors.New("store down")
	}
	now := time.Now()
	o := &models.Order{
		ID:          f.nextID,
		Type:        req.Type,
		TableNumber: req.TableNumber,
		Phone:       req.Phone,
		Email:       req.Email,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.nextID++
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) ReplaceItems(ctx context.Context, orderID int64, items []models.ItemSelection) (*models.Order, []models.OrderItem, error) {
	f.replaceCalls++
	if f.failAll {
		return nil, nil, errors.New("store down")
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil, ErrOrderNotFound
	}
	var stored []models.OrderItem
	var subtotal int64
	for _, sel := range items {
		mi, ok := f.menu[sel.MenuItemID]
		if !ok || !mi.IsActive {
			continue
		}
		line := mi.Price * int64(sel.Quantity)
		subtotal += line
		stored = append(stored, models.OrderItem{
			OrderID:    orderID,
			MenuItemID: mi.ID,
			Name:       mi.Name,
			Price:      mi.Price,
			Quantity:   sel.Quantity,
			LineTotal:  line,
		})
	}
	o.Subtotal = subtotal
	o.Total = subtotal
	f.items[orderID] = stored
	return o, stored, nil
}

func (f *fakeStore) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil, ErrOrderNotFound
	}
	return o, f.items[orderID], nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, orderID int64, next models.OrderStatus) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, models.InvalidTransitionError{From: o.Status, To: next}
	}
	o.Status = next
	return o, nil
}

func (f *fakeStore) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeStore) GetEvents(ctx context.Context, orderID int64) ([]models.OrderEvent, error) {
	return nil, nil
}

func (f *fakeStore) ResolveActiveItems(ctx context.Context, items []models.ItemSelection) (map[int64]models.MenuItem, error) {
	resolved := make(map[int64]models.MenuItem)
	for _, sel := range items {
		if mi, ok := f.menu[sel.MenuItemID]; ok && mi.IsActive {
			resolved[sel.MenuItemID] = mi
		}
	}
	return resolved, nil
}

func (f *fakeStore) DailySummary(ctx context.Context) (*DailySummary, error) {
	return &DailySummary{Date: "2026-08-29"}, nil
}

type fakeNotifier struct {
	orderUpdates []int64
	tableNotices []string
}

func (f *fakeNotifier) PublishOrderUpdate(orderID int64, payload interface{}) {
	f.orderUpdates = append(f.orderUpdates, orderID)
}

func (f *fakeNotifier) PublishNewOrderForTable(tableNumber string, payload interface{}) {
	f.tableNotices = append(f.tableNotices, tableNumber)
}

type fakeKitchen struct {
	routingKeys []string
	err         error
}

func (f *fakeKitchen) PublishKitchenTicket(ctx context.Context, routingKey string, message interface{}) error {
	f.routingKeys = append(f.routingKeys, routingKey)
	return f.err
}

func newTestService(store Store, notifier Notifier, kitchen KitchenPublisher) *Service {
	cfg := pricing.Config{FreeDeliveryThreshold: 28000, DeliveryFee: 3500}
	return NewService(store, notifier, kitchen, cfg, logger.New("order-service-test"))
}

func strptr(s string) *string { return &s }

func TestCreateDineInRequiresTableNumber(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, nil)

	_, err := svc.Create(context.Background(), &CreateOrderRequest{Type: "dine_in"}, "req-1")

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "table_number" {
		t.Errorf("expected table_number field, got %q", verr.Field)
	}
	if store.createCalls != 0 {
		t.Errorf("store must not be called on validation failure, got %d calls", store.createCalls)
	}
}

func TestCreateDeliveryRequiresContact(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, nil)

	_, err := svc.Create(context.Background(), &CreateOrderRequest{
		Type:  "delivery",
		Phone: strptr("0821234567"),
	}, "req-1")

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "email" {
		t.Errorf("expected email field, got %q", verr.Field)
	}
}

func TestCreateNotifiesTableSubscribers(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	o, err := svc.Create(context.Background(), &CreateOrderRequest{
		Type:        "dine_in",
		TableNumber: strptr("7"),
	}, "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != models.StatusPending {
		t.Errorf("new orders must start pending, got %s", o.Status)
	}
	if len(notifier.tableNotices) != 1 || notifier.tableNotices[0] != "7" {
		t.Errorf("expected one table notice for table 7, got %v", notifier.tableNotices)
	}
}

func TestCreatePickupDoesNotNotifyTables(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	_, err := svc.Create(context.Background(), &CreateOrderRequest{
		Type:  "pickup",
		Phone: strptr("0821234567"),
		Email: strptr("nico@example.com"),
	}, "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.tableNotices) != 0 {
		t.Errorf("pickup orders must not notify table rooms, got %v", notifier.tableNotices)
	}
}

func TestCreatePublishesKitchenTicket(t *testing.T) {
	store := newFakeStore()
	kitchen := &fakeKitchen{}
	svc := newTestService(store, &fakeNotifier{}, kitchen)

	_, err := svc.Create(context.Background(), &CreateOrderRequest{
		Type:        "dine_in",
		TableNumber: strptr("3"),
	}, "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kitchen.routingKeys) != 1 || kitchen.routingKeys[0] != "order.created" {
		t.Errorf("expected order.created ticket, got %v", kitchen.routingKeys)
	}
}

func TestCreateSwallowsKitchenFailure(t *testing.T) {
	store := newFakeStore()
	kitchen := &fakeKitchen{err: errors.New("broker down")}
	svc := newTestService(store, &fakeNotifier{}, kitchen)

	_, err := svc.Create(context.Background(), &CreateOrderRequest{
		Type:        "dine_in",
		TableNumber: strptr("3"),
	}, "req-1")
	if err != nil {
		t.Fatalf("kitchen failure must not surface, got %v", err)
	}
}

func TestReplaceItemsNotifiesAfterSuccess(t *testing.T) {
	store := newFakeStore()
	store.menu[1] = models.MenuItem{ID: 1, Name: "Classic Kota", Price: 4500, IsActive: true}
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	o, _ := svc.Create(context.Background(), &CreateOrderRequest{Type: "dine_in", TableNumber: strptr("2")}, "req-1")

	_, items, err := svc.ReplaceItems(context.Background(), o.ID, []models.ItemSelection{
		{MenuItemID: 1, Quantity: 2},
	}, "req-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].LineTotal != 9000 {
		t.Errorf("expected one item with line total 9000, got %+v", items)
	}
	if len(notifier.orderUpdates) != 1 || notifier.orderUpdates[0] != o.ID {
		t.Errorf("expected one order update for %d, got %v", o.ID, notifier.orderUpdates)
	}
}

func TestReplaceItemsEmptyListClearsOrder(t *testing.T) {
	store := newFakeStore()
	store.menu[1] = models.MenuItem{ID: 1, Name: "Classic Kota", Price: 4500, IsActive: true}
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	o, _ := svc.Create(context.Background(), &CreateOrderRequest{Type: "dine_in", TableNumber: strptr("2")}, "req-1")
	svc.ReplaceItems(context.Background(), o.ID, []models.ItemSelection{{MenuItemID: 1, Quantity: 3}}, "req-2")

	updated, items, err := svc.ReplaceItems(context.Background(), o.ID, nil, "req-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items after empty replace, got %+v", items)
	}
	if updated.Subtotal != 0 || updated.Total != 0 {
		t.Errorf("expected zero totals, got subtotal=%d total=%d", updated.Subtotal, updated.Total)
	}
	if len(notifier.orderUpdates) != 2 {
		t.Errorf("empty replace must still broadcast, got %v", notifier.orderUpdates)
	}
}

func TestReplaceItemsIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.menu[1] = models.MenuItem{ID: 1, Name: "Classic Kota", Price: 4500, IsActive: true}
	store.menu[2] = models.MenuItem{ID: 2, Name: "Haval Kota", Price: 3000, IsActive: true}
	svc := newTestService(store, &fakeNotifier{}, nil)

	o, _ := svc.Create(context.Background(), &CreateOrderRequest{Type: "dine_in", TableNumber: strptr("2")}, "req-1")

	selections := []models.ItemSelection{
		{MenuItemID: 1, Quantity: 2},
		{MenuItemID: 2, Quantity: 1},
	}
	first, firstItems, err := svc.ReplaceItems(context.Background(), o.ID, selections, "req-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, secondItems, err := svc.ReplaceItems(context.Background(), o.ID, selections, "req-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Subtotal != second.Subtotal || first.Total != second.Total {
		t.Errorf("repeating the same replace changed totals: %d/%d vs %d/%d",
			first.Subtotal, first.Total, second.Subtotal, second.Total)
	}
	if len(firstItems) != len(secondItems) {
		t.Errorf("repeating the same replace changed item count: %d vs %d", len(firstItems), len(secondItems))
	}
}

func TestReplaceItemsStoreFailureSkipsNotification(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	o, _ := svc.Create(context.Background(), &CreateOrderRequest{Type: "dine_in", TableNumber: strptr("2")}, "req-1")
	store.failAll = true

	_, _, err := svc.ReplaceItems(context.Background(), o.ID, []models.ItemSelection{
		{MenuItemID: 1, Quantity: 1},
	}, "req-2")
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if len(notifier.orderUpdates) != 0 {
		t.Errorf("no notification may be sent on failure, got %v", notifier.orderUpdates)
	}
}

func TestReplaceItemsRejectsZeroQuantity(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeNotifier{}, nil)

	_, _, err := svc.ReplaceItems(context.Background(), 1, []models.ItemSelection{
		{MenuItemID: 1, Quantity: 0},
	}, "req-1")

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeNotifier{}, nil)

	_, err := svc.UpdateStatus(context.Background(), 1, "vaporised", "req-1")

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, nil)

	o, _ := svc.Create(context.Background(), &CreateOrderRequest{Type: "dine_in", TableNumber: strptr("1")}, "req-1")

	_, err := svc.UpdateStatus(context.Background(), o.ID, "ready", "req-2")

	var terr models.InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestUpdateStatusBroadcasts(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, nil)

	o, _ := svc.Create(context.Background(), &CreateOrderRequest{Type: "dine_in", TableNumber: strptr("1")}, "req-1")
	notifier.orderUpdates = nil

	updated, err := svc.UpdateStatus(context.Background(), o.ID, "confirmed", "req-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", updated.Status)
	}
	if len(notifier.orderUpdates) != 1 {
		t.Errorf("expected one broadcast, got %v", notifier.orderUpdates)
	}
}

func TestPricePreviewSkipsUnknownItems(t *testing.T) {
	store := newFakeStore()
	store.menu[1] = models.MenuItem{ID: 1, Name: "Titanic Family Kota", Price: 10000, IsActive: true}
	store.menu[2] = models.MenuItem{ID: 2, Name: "Retired", Price: 5000, IsActive: false}
	svc := newTestService(store, &fakeNotifier{}, nil)

	quote, err := svc.PricePreview(context.Background(), &PricePreviewRequest{
		Type: "delivery",
		Items: []models.ItemSelection{
			{MenuItemID: 1, Quantity: 1},
			{MenuItemID: 2, Quantity: 4},
			{MenuItemID: 99, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Subtotal != 10000 {
		t.Errorf("inactive and unknown items must be skipped, subtotal = %d", quote.Subtotal)
	}
	if quote.DeliveryFee != 3500 {
		t.Errorf("expected delivery fee 3500, got %d", quote.DeliveryFee)
	}
}

func TestPricePreviewDineInHasNoFee(t *testing.T) {
	store := newFakeStore()
	store.menu[1] = models.MenuItem{ID: 1, Name: "Haval Kota", Price: 3000, IsActive: true}
	svc := newTestService(store, &fakeNotifier{}, nil)

	quote, err := svc.PricePreview(context.Background(), &PricePreviewRequest{
		Type:  "dine_in",
		Items: []models.ItemSelection{{MenuItemID: 1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DeliveryFee != 0 {
		t.Errorf("dine-in preview must not charge delivery, got %d", quote.DeliveryFee)
	}
	if quote.Total != 6000 {
		t.Errorf("expected total 6000, got %d", quote.Total)
	}
}

func TestHealthCheck(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, nil)

	if !svc.HealthCheck(context.Background()) {
		t.Error("expected healthy store")
	}
	store.failAll = true
	if svc.HealthCheck(context.Background()) {
		t.Error("expected unhealthy store")
	}
}
