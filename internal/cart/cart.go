// Package cart holds the session-scoped cart a customer builds before
// checking out. State is ephemeral: nothing here survives a restart, the
// order tables are the source of truth once an order is submitted.
package cart

import (
	"errors"
	"sync"

	"malume-nico/internal/models"
	"malume-nico/internal/pricing"
)

// ErrItemNotFound is returned when a menu item id does not resolve to an
// active catalog entry, or a quantity change targets a line not in the cart.
var ErrItemNotFound = errors.New("item not found")

// Catalog resolves menu item ids to active menu items.
type Catalog interface {
	Lookup(menuItemID int64) (models.MenuItem, bool)
}

// Line is a cart entry with a denormalized name/price snapshot.
type Line struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Quantity   int    `json:"qty"`
}

// Store is a mutable cart keyed by menu item id. It is owned by a single
// customer session and injected where needed rather than shared globally.
type Store struct {
	mu      sync.Mutex
	lines   map[int64]*Line
	catalog Catalog
	cfg     pricing.Config
}

// New creates an empty cart over the given catalog.
func New(catalog Catalog, cfg pricing.Config) *Store {
	return &Store{
		lines:   make(map[int64]*Line),
		catalog: catalog,
		cfg:     cfg,
	}
}

// AddItem adds one unit of the menu item, creating a new line or bumping an
// existing one.
func (s *Store) AddItem(menuItemID int64) error {
	item, ok := s.catalog.Lookup(menuItemID)
	if !ok {
		return ErrItemNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if line, exists := s.lines[menuItemID]; exists {
		line.Quantity++
		return nil
	}

	s.lines[menuItemID] = &Line{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   1,
	}
	return nil
}

// ChangeQuantity adjusts a line's quantity by delta. A resulting quantity of
// zero or below removes the line entirely; a line with qty <= 0 is never
// observable.
func (s *Store) ChangeQuantity(menuItemID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, exists := s.lines[menuItemID]
	if !exists {
		return ErrItemNotFound
	}

	line.Quantity += delta
	if line.Quantity <= 0 {
		delete(s.lines, menuItemID)
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = make(map[int64]*Line)
}

// Lines returns a snapshot of the current cart lines. Order is not
// significant; presentation ordering is the UI's concern.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		out = append(out, *line)
	}
	return out
}

// Selections returns the cart contents in the shape the order API accepts.
func (s *Store) Selections() []models.ItemSelection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ItemSelection, 0, len(s.lines))
	for _, line := range s.lines {
		out = append(out, models.ItemSelection{MenuItemID: line.MenuItemID, Quantity: line.Quantity})
	}
	return out
}

// Totals prices the current cart. applyFee follows the customer's chosen
// fulfillment type: only delivery orders are subject to the fee.
func (s *Store) Totals(applyFee bool) pricing.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]pricing.Line, 0, len(s.lines))
	for _, line := range s.lines {
		lines = append(lines, pricing.Line{UnitPrice: line.Price, Quantity: line.Quantity})
	}
	return pricing.Compute(lines, s.cfg, applyFee)
}
