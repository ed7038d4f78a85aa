package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `
	id, restaurant_id, order_number, status, order_type, source, payment_status,
	payment_method, customer_name, customer_phone, table_no, subtotal,
	discount_amount, taxable_amount, gst_rate, gst_amount, service_rate,
	service_amount, delivery_fee, total, tax_base, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.RestaurantID, &o.OrderNumber, &o.Status, &o.OrderType,
		&o.Source, &o.PaymentStatus, &o.PaymentMethod, &o.CustomerName,
		&o.CustomerPhone, &o.TableNo, &o.Subtotal, &o.DiscountAmount,
		&o.TaxableAmount, &o.GstRate, &o.GstAmount, &o.ServiceRate,
		&o.ServiceAmount, &o.DeliveryFee, &o.Total, &o.TaxBase, &o.CreatedBy,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// GetNextOrderNumber returns the next sequential order number for a
// restaurant. Concurrent transactions can race on the same value; the caller
// retries on the resulting unique constraint violation.
func (q *Queries) GetNextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int32, error) {
	var next int32
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM 4) AS INT)), 0) + 1
		FROM orders WHERE restaurant_id = $1`, restaurantID).Scan(&next)
	return next, err
}

type CreateOrderParams struct {
	RestaurantID   uuid.UUID
	OrderNumber    string
	OrderType      string
	Source         string
	PaymentStatus  string
	PaymentMethod  pgtype.Text
	CustomerName   pgtype.Text
	CustomerPhone  pgtype.Text
	TableNo        pgtype.Text
	Subtotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TaxableAmount  pgtype.Numeric
	GstRate        pgtype.Numeric
	GstAmount      pgtype.Numeric
	ServiceRate    pgtype.Numeric
	ServiceAmount  pgtype.Numeric
	DeliveryFee    pgtype.Numeric
	Total          pgtype.Numeric
	TaxBase        string
	CreatedBy      pgtype.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		INSERT INTO orders (
			restaurant_id, order_number, order_type, source, payment_status,
			payment_method, customer_name, customer_phone, table_no, subtotal,
			discount_amount, taxable_amount, gst_rate, gst_amount, service_rate,
			service_amount, delivery_fee, total, tax_base, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		RETURNING`+orderColumns,
		arg.RestaurantID, arg.OrderNumber, arg.OrderType, arg.Source,
		arg.PaymentStatus, arg.PaymentMethod, arg.CustomerName, arg.CustomerPhone,
		arg.TableNo, arg.Subtotal, arg.DiscountAmount, arg.TaxableAmount,
		arg.GstRate, arg.GstAmount, arg.ServiceRate, arg.ServiceAmount,
		arg.DeliveryFee, arg.Total, arg.TaxBase, arg.CreatedBy,
	))
}

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID pgtype.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	LineTotal  pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var item OrderItem
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, order_id, menu_item_id, name, unit_price, quantity, line_total`,
		arg.OrderID, arg.MenuItemID, arg.Name, arg.UnitPrice, arg.Quantity, arg.LineTotal,
	).Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.UnitPrice,
		&item.Quantity, &item.LineTotal)
	return item, err
}

type GetOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `SELECT`+orderColumns+`
		FROM orders WHERE id = $1 AND restaurant_id = $2`, arg.ID, arg.RestaurantID))
}

type ListOrdersParams struct {
	RestaurantID uuid.UUID
	Status       pgtype.Text
	Limit        int32
	Offset       int32
}

// ListOrders returns orders newest first, optionally filtered by status.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `SELECT`+orderColumns+`
		FROM orders
		WHERE restaurant_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.RestaurantID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, unit_price, quantity, line_total
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name,
			&item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Status       string
}

// UpdateOrderStatus changes only the status column; monetary fields are
// frozen at creation time.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING`+orderColumns,
		arg.ID, arg.RestaurantID, arg.Status,
	))
}

type MarkOrderPaidParams struct {
	ID            uuid.UUID
	RestaurantID  uuid.UUID
	PaymentMethod pgtype.Text
}

func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		UPDATE orders SET
			payment_status = 'PAID',
			payment_method = COALESCE($3, payment_method),
			updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING`+orderColumns,
		arg.ID, arg.RestaurantID, arg.PaymentMethod,
	))
}

type DeleteOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) DeleteOrder(ctx context.Context, arg DeleteOrderParams) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM orders WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
