package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const expenseColumns = `
	id, restaurant_id, title, amount, category, incurred_on, note, created_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.RestaurantID, &e.Title, &e.Amount, &e.Category,
		&e.IncurredOn, &e.Note, &e.CreatedAt)
	return e, err
}

type ListExpensesParams struct {
	RestaurantID uuid.UUID
	From         time.Time
	To           time.Time
}

// ListExpenses returns the ledger for a date range, newest first.
func (q *Queries) ListExpenses(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	rows, err := q.db.Query(ctx, `SELECT`+expenseColumns+`
		FROM expenses
		WHERE restaurant_id = $1 AND incurred_on >= $2 AND incurred_on <= $3
		ORDER BY incurred_on DESC, created_at DESC`,
		arg.RestaurantID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

type CreateExpenseParams struct {
	RestaurantID uuid.UUID
	Title        string
	Amount       pgtype.Numeric
	Category     string
	IncurredOn   time.Time
	Note         pgtype.Text
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	return scanExpense(q.db.QueryRow(ctx, `
		INSERT INTO expenses (restaurant_id, title, amount, category, incurred_on, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+expenseColumns,
		arg.RestaurantID, arg.Title, arg.Amount, arg.Category, arg.IncurredOn, arg.Note,
	))
}

type DeleteExpenseParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) DeleteExpense(ctx context.Context, arg DeleteExpenseParams) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM expenses WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
