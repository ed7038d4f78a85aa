package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const restaurantColumns = `
	id, name, slug, cuisine, location, contact, opening_hours, delivery_time,
	rating, banner_image, logo, whatsapp_number, upi_id, receipt_footer,
	default_delivery_charge, gst_percent, service_charge_percent, apply_tax,
	tax_base, theme, is_active, created_at, updated_at`

func scanRestaurant(row pgx.Row) (Restaurant, error) {
	var r Restaurant
	err := row.Scan(
		&r.ID, &r.Name, &r.Slug, &r.Cuisine, &r.Location, &r.Contact,
		&r.OpeningHours, &r.DeliveryTime, &r.Rating, &r.BannerImage, &r.Logo,
		&r.WhatsappNumber, &r.UpiID, &r.ReceiptFooter, &r.DefaultDeliveryCharge,
		&r.GstPercent, &r.ServiceChargePercent, &r.ApplyTax, &r.TaxBase,
		&r.Theme, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// ListRestaurants returns all active restaurants, newest first.
func (q *Queries) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	rows, err := q.db.Query(ctx, `SELECT`+restaurantColumns+`
		FROM restaurants WHERE is_active = true ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, `SELECT`+restaurantColumns+`
		FROM restaurants WHERE id = $1 AND is_active = true`, id))
}

func (q *Queries) GetRestaurantBySlug(ctx context.Context, slug string) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, `SELECT`+restaurantColumns+`
		FROM restaurants WHERE slug = $1 AND is_active = true`, slug))
}

type CreateRestaurantParams struct {
	Name                  string
	Slug                  string
	Cuisine               []string
	Location              pgtype.Text
	Contact               pgtype.Text
	OpeningHours          pgtype.Text
	DeliveryTime          pgtype.Text
	BannerImage           pgtype.Text
	Logo                  pgtype.Text
	WhatsappNumber        pgtype.Text
	UpiID                 pgtype.Text
	ReceiptFooter         pgtype.Text
	DefaultDeliveryCharge pgtype.Numeric
}

func (q *Queries) CreateRestaurant(ctx context.Context, arg CreateRestaurantParams) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, `
		INSERT INTO restaurants (
			name, slug, cuisine, location, contact, opening_hours, delivery_time,
			banner_image, logo, whatsapp_number, upi_id, receipt_footer,
			default_delivery_charge
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING`+restaurantColumns,
		arg.Name, arg.Slug, arg.Cuisine, arg.Location, arg.Contact,
		arg.OpeningHours, arg.DeliveryTime, arg.BannerImage, arg.Logo,
		arg.WhatsappNumber, arg.UpiID, arg.ReceiptFooter, arg.DefaultDeliveryCharge,
	))
}

type UpdateRestaurantParams struct {
	ID                    uuid.UUID
	Name                  string
	Slug                  string
	Cuisine               []string
	Location              pgtype.Text
	Contact               pgtype.Text
	OpeningHours          pgtype.Text
	DeliveryTime          pgtype.Text
	BannerImage           pgtype.Text
	Logo                  pgtype.Text
	WhatsappNumber        pgtype.Text
	UpiID                 pgtype.Text
	ReceiptFooter         pgtype.Text
	DefaultDeliveryCharge pgtype.Numeric
}

func (q *Queries) UpdateRestaurant(ctx context.Context, arg UpdateRestaurantParams) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, `
		UPDATE restaurants SET
			name = $2, slug = $3, cuisine = $4, location = $5, contact = $6,
			opening_hours = $7, delivery_time = $8, banner_image = $9, logo = $10,
			whatsapp_number = $11, upi_id = $12, receipt_footer = $13,
			default_delivery_charge = $14, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING`+restaurantColumns,
		arg.ID, arg.Name, arg.Slug, arg.Cuisine, arg.Location, arg.Contact,
		arg.OpeningHours, arg.DeliveryTime, arg.BannerImage, arg.Logo,
		arg.WhatsappNumber, arg.UpiID, arg.ReceiptFooter, arg.DefaultDeliveryCharge,
	))
}

type UpdateTaxSettingsParams struct {
	ID                   uuid.UUID
	GstPercent           pgtype.Numeric
	ServiceChargePercent pgtype.Numeric
	ApplyTax             bool
	TaxBase              string
}

func (q *Queries) UpdateTaxSettings(ctx context.Context, arg UpdateTaxSettingsParams) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, `
		UPDATE restaurants SET
			gst_percent = $2, service_charge_percent = $3, apply_tax = $4,
			tax_base = $5, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING`+restaurantColumns,
		arg.ID, arg.GstPercent, arg.ServiceChargePercent, arg.ApplyTax, arg.TaxBase,
	))
}

type UpdateThemeParams struct {
	ID    uuid.UUID
	Theme json.RawMessage
}

func (q *Queries) UpdateTheme(ctx context.Context, arg UpdateThemeParams) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, `
		UPDATE restaurants SET theme = $2, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING`+restaurantColumns,
		arg.ID, arg.Theme,
	))
}

// SoftDeleteRestaurant deactivates a restaurant; its orders and expenses
// remain for reporting.
func (q *Queries) SoftDeleteRestaurant(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, `
		UPDATE restaurants SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING id`, id).Scan(&out)
	return out, err
}
