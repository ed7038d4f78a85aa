package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `
	id, restaurant_id, name, description, price, image_url, category,
	is_bestseller, rating, votes, available, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(
		&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price, &m.ImageURL,
		&m.Category, &m.IsBestseller, &m.Rating, &m.Votes, &m.Available,
		&m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func (q *Queries) collectMenuItems(ctx context.Context, sql string, args ...any) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// ListMenuItems returns the full menu for back-office management.
func (q *Queries) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	return q.collectMenuItems(ctx, `SELECT`+menuItemColumns+`
		FROM menu_items WHERE restaurant_id = $1 ORDER BY name`, restaurantID)
}

// ListAvailableMenuItems returns only items the storefront may sell.
func (q *Queries) ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	return q.collectMenuItems(ctx, `SELECT`+menuItemColumns+`
		FROM menu_items WHERE restaurant_id = $1 AND available = true ORDER BY name`, restaurantID)
}

type GetMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetMenuItem(ctx context.Context, arg GetMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, `SELECT`+menuItemColumns+`
		FROM menu_items WHERE id = $1 AND restaurant_id = $2`, arg.ID, arg.RestaurantID))
}

type CreateMenuItemParams struct {
	RestaurantID uuid.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	ImageURL     pgtype.Text
	Category     string
	IsBestseller bool
	Available    bool
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, `
		INSERT INTO menu_items (
			restaurant_id, name, description, price, image_url, category,
			is_bestseller, available
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING`+menuItemColumns,
		arg.RestaurantID, arg.Name, arg.Description, arg.Price, arg.ImageURL,
		arg.Category, arg.IsBestseller, arg.Available,
	))
}

type UpdateMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	ImageURL     pgtype.Text
	Category     string
	IsBestseller bool
	Available    bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, `
		UPDATE menu_items SET
			name = $3, description = $4, price = $5, image_url = $6,
			category = $7, is_bestseller = $8, available = $9, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING`+menuItemColumns,
		arg.ID, arg.RestaurantID, arg.Name, arg.Description, arg.Price,
		arg.ImageURL, arg.Category, arg.IsBestseller, arg.Available,
	))
}

type SetMenuItemAvailabilityParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Available    bool
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, `
		UPDATE menu_items SET available = $3, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING`+menuItemColumns,
		arg.ID, arg.RestaurantID, arg.Available,
	))
}

type DeleteMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) DeleteMenuItem(ctx context.Context, arg DeleteMenuItemParams) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM menu_items WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
