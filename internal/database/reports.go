package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Report queries aggregate over non-cancelled orders; cancelled orders never
// count toward revenue.

type DateRangeParams struct {
	RestaurantID uuid.UUID
	From         time.Time
	To           time.Time
}

type DailySalesRow struct {
	SaleDate      pgtype.Date
	OrderCount    int64
	GrossRevenue  pgtype.Numeric
	TotalDiscount pgtype.Numeric
}

func (q *Queries) GetDailySales(ctx context.Context, arg DateRangeParams) ([]DailySalesRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT created_at::date AS sale_date,
			COUNT(*) AS order_count,
			COALESCE(SUM(total), 0) AS gross_revenue,
			COALESCE(SUM(discount_amount), 0) AS total_discount
		FROM orders
		WHERE restaurant_id = $1 AND status <> 'CANCELLED'
			AND created_at >= $2 AND created_at < $3
		GROUP BY sale_date
		ORDER BY sale_date`,
		arg.RestaurantID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailySalesRow
	for rows.Next() {
		var r DailySalesRow
		if err := rows.Scan(&r.SaleDate, &r.OrderCount, &r.GrossRevenue, &r.TotalDiscount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type SalesSummaryRow struct {
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetSalesSummary(ctx context.Context, arg DateRangeParams) (SalesSummaryRow, error) {
	var r SalesSummaryRow
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE restaurant_id = $1 AND status <> 'CANCELLED'
			AND created_at >= $2 AND created_at < $3`,
		arg.RestaurantID, arg.From, arg.To).Scan(&r.OrderCount, &r.TotalRevenue)
	return r, err
}

type TopItemsParams struct {
	RestaurantID uuid.UUID
	From         time.Time
	To           time.Time
	Limit        int32
}

type TopItemRow struct {
	Name         string
	QuantitySold int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetTopItems(ctx context.Context, arg TopItemsParams) ([]TopItemRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT oi.name,
			COALESCE(SUM(oi.quantity), 0) AS quantity_sold,
			COALESCE(SUM(oi.line_total), 0) AS total_revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = $1 AND o.status <> 'CANCELLED'
			AND o.created_at >= $2 AND o.created_at < $3
		GROUP BY oi.name
		ORDER BY quantity_sold DESC
		LIMIT $4`,
		arg.RestaurantID, arg.From, arg.To, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TopItemRow
	for rows.Next() {
		var r TopItemRow
		if err := rows.Scan(&r.Name, &r.QuantitySold, &r.TotalRevenue); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type PaymentSummaryRow struct {
	PaymentMethod    string
	TransactionCount int64
	TotalAmount      pgtype.Numeric
}

func (q *Queries) GetPaymentSummary(ctx context.Context, arg DateRangeParams) ([]PaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT COALESCE(payment_method, 'UNKNOWN'),
			COUNT(*),
			COALESCE(SUM(total), 0)
		FROM orders
		WHERE restaurant_id = $1 AND status <> 'CANCELLED' AND payment_status = 'PAID'
			AND created_at >= $2 AND created_at < $3
		GROUP BY payment_method
		ORDER BY COUNT(*) DESC`,
		arg.RestaurantID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PaymentSummaryRow
	for rows.Next() {
		var r PaymentSummaryRow
		if err := rows.Scan(&r.PaymentMethod, &r.TransactionCount, &r.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type ExpenseSummaryRow struct {
	Category    string
	EntryCount  int64
	TotalAmount pgtype.Numeric
}

func (q *Queries) GetExpenseSummary(ctx context.Context, arg DateRangeParams) ([]ExpenseSummaryRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE restaurant_id = $1 AND incurred_on >= $2 AND incurred_on < $3
		GROUP BY category
		ORDER BY SUM(amount) DESC`,
		arg.RestaurantID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ExpenseSummaryRow
	for rows.Next() {
		var r ExpenseSummaryRow
		if err := rows.Scan(&r.Category, &r.EntryCount, &r.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetExpenseTotal sums the ledger for a range, for profit/loss reporting.
func (q *Queries) GetExpenseTotal(ctx context.Context, arg DateRangeParams) (pgtype.Numeric, error) {
	var total pgtype.Numeric
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE restaurant_id = $1 AND incurred_on >= $2 AND incurred_on < $3`,
		arg.RestaurantID, arg.From, arg.To).Scan(&total)
	return total, err
}
