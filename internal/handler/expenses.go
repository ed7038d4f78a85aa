package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
)

// ExpensesStore defines the database methods needed by expense handlers.
type ExpensesStore interface {
	ListExpenses(ctx context.Context, arg database.ListExpensesParams) ([]database.Expense, error)
	CreateExpense(ctx context.Context, arg database.CreateExpenseParams) (database.Expense, error)
	DeleteExpense(ctx context.Context, arg database.DeleteExpenseParams) error
}

// ExpensesHandler handles the expense ledger endpoints.
type ExpensesHandler struct {
	store ExpensesStore
}

// NewExpensesHandler creates a new ExpensesHandler.
func NewExpensesHandler(store ExpensesStore) *ExpensesHandler {
	return &ExpensesHandler{store: store}
}

// RegisterRoutes registers expense endpoints inside the restaurant-scoped
// authenticated group.
func (h *ExpensesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{expenseID}", h.Delete)
}

// --- Request / Response types ---

type expenseRequest struct {
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Category   string `json:"category"`
	IncurredOn string `json:"incurred_on"`
	Note       string `json:"note"`
}

type expenseResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Amount     string    `json:"amount"`
	Category   string    `json:"category"`
	IncurredOn string    `json:"incurred_on"`
	Note       string    `json:"note,omitempty"`
}

func toExpenseResponse(e database.Expense) expenseResponse {
	return expenseResponse{
		ID:         e.ID,
		Title:      e.Title,
		Amount:     numericToString(e.Amount),
		Category:   e.Category,
		IncurredOn: e.IncurredOn.Format("2006-01-02"),
		Note:       textOrEmpty(e.Note),
	}
}

func validExpenseCategory(c string) bool {
	switch c {
	case enum.ExpenseCategoryInventory, enum.ExpenseCategorySalary, enum.ExpenseCategoryRent,
		enum.ExpenseCategoryUtilities, enum.ExpenseCategoryOther:
		return true
	}
	return false
}

// --- Handlers ---

// List returns the ledger for a date range, newest first.
func (h *ExpensesHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := h.store.ListExpenses(r.Context(), database.ListExpensesParams{
		RestaurantID: rid,
		From:         from,
		To:           to,
	})
	if err != nil {
		slog.Error("list expenses", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create records a ledger entry.
func (h *ExpensesHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !validExpenseCategory(req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must be a non-negative amount")
		return
	}

	incurredOn := time.Now()
	if req.IncurredOn != "" {
		t, err := time.Parse("2006-01-02", req.IncurredOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid incurred_on format")
			return
		}
		incurredOn = t
	}

	expense, err := h.store.CreateExpense(r.Context(), database.CreateExpenseParams{
		RestaurantID: rid,
		Title:        req.Title,
		Amount:       database.DecimalToNumeric(amount),
		Category:     req.Category,
		IncurredOn:   incurredOn,
		Note:         textFromString(req.Note),
	})
	if err != nil {
		slog.Error("create expense", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

// Delete removes a ledger entry.
func (h *ExpensesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	expenseID, err := uuid.Parse(chi.URLParam(r, "expenseID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense ID")
		return
	}

	if err := h.store.DeleteExpense(r.Context(), database.DeleteExpenseParams{
		ID:           expenseID,
		RestaurantID: rid,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		slog.Error("delete expense", "expense_id", expenseID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
