package menu

import (
	"context"
	"fmt"

	"malume-nico/internal/database"
	"malume-nico/internal/models"
)

// Repository reads the menu from PostgreSQL.
type Repository struct {
	db *database.DB
}

// NewRepository creates a menu repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// GetActiveItems returns all active menu items, most expensive first.
func (r *Repository) GetActiveItems(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.db.Query(ctx, database.GetActiveMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var mi models.MenuItem
		if err := rows.Scan(&mi.ID, &mi.Name, &mi.Price, &mi.Img, &mi.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, mi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read menu items: %w", err)
	}
	return items, nil
}
