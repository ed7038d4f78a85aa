package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cravewave/api/internal/billing"
	"github.com/cravewave/api/internal/database"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetDailySales(ctx context.Context, arg database.DateRangeParams) ([]database.DailySalesRow, error)
	GetSalesSummary(ctx context.Context, arg database.DateRangeParams) (database.SalesSummaryRow, error)
	GetTopItems(ctx context.Context, arg database.TopItemsParams) ([]database.TopItemRow, error)
	GetPaymentSummary(ctx context.Context, arg database.DateRangeParams) ([]database.PaymentSummaryRow, error)
	GetExpenseSummary(ctx context.Context, arg database.DateRangeParams) ([]database.ExpenseSummaryRow, error)
	GetExpenseTotal(ctx context.Context, arg database.DateRangeParams) (pgtype.Numeric, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints inside the restaurant-scoped
// authenticated group.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-sales", h.DailySales)
	r.Get("/summary", h.Summary)
	r.Get("/top-items", h.TopItems)
	r.Get("/payment-summary", h.PaymentSummary)
	r.Get("/expense-summary", h.ExpenseSummary)
}

// --- Response types ---

type dailySalesResponse struct {
	Date          string `json:"date"`
	OrderCount    int64  `json:"order_count"`
	GrossRevenue  string `json:"gross_revenue"`
	TotalDiscount string `json:"total_discount"`
}

type summaryResponse struct {
	OrderCount    int64  `json:"order_count"`
	TotalRevenue  string `json:"total_revenue"`
	TotalExpenses string `json:"total_expenses"`
	NetProfit     string `json:"net_profit"`
}

type topItemResponse struct {
	Name         string `json:"name"`
	QuantitySold int64  `json:"quantity_sold"`
	TotalRevenue string `json:"total_revenue"`
}

type paymentSummaryResponse struct {
	PaymentMethod    string `json:"payment_method"`
	TransactionCount int64  `json:"transaction_count"`
	TotalAmount      string `json:"total_amount"`
}

type expenseSummaryResponse struct {
	Category    string `json:"category"`
	EntryCount  int64  `json:"entry_count"`
	TotalAmount string `json:"total_amount"`
}

// --- Handlers ---

// DailySales returns per-day order counts and revenue for a date range.
func (h *ReportsHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	arg, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetDailySales(r.Context(), arg)
	if err != nil {
		slog.Error("get daily sales", "restaurant_id", arg.RestaurantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]dailySalesResponse, len(rows))
	for i, row := range rows {
		date := ""
		if row.SaleDate.Valid {
			date = row.SaleDate.Time.Format("2006-01-02")
		}
		resp[i] = dailySalesResponse{
			Date:          date,
			OrderCount:    row.OrderCount,
			GrossRevenue:  numericToString(row.GrossRevenue),
			TotalDiscount: numericToString(row.TotalDiscount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary returns revenue, expenses, and net profit for a date range.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	arg, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	sales, err := h.store.GetSalesSummary(r.Context(), arg)
	if err != nil {
		slog.Error("get sales summary", "restaurant_id", arg.RestaurantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	expenses, err := h.store.GetExpenseTotal(r.Context(), arg)
	if err != nil {
		slog.Error("get expense total", "restaurant_id", arg.RestaurantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	revenue := database.NumericToDecimal(sales.TotalRevenue)
	spent := database.NumericToDecimal(expenses)
	writeJSON(w, http.StatusOK, summaryResponse{
		OrderCount:    sales.OrderCount,
		TotalRevenue:  billing.Format(revenue),
		TotalExpenses: billing.Format(spent),
		NetProfit:     billing.Format(revenue.Sub(spent)),
	})
}

// TopItems returns the best sellers by quantity for a date range.
func (h *ReportsHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	arg, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := h.store.GetTopItems(r.Context(), database.TopItemsParams{
		RestaurantID: arg.RestaurantID,
		From:         arg.From,
		To:           arg.To,
		Limit:        int32(limit),
	})
	if err != nil {
		slog.Error("get top items", "restaurant_id", arg.RestaurantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]topItemResponse, len(rows))
	for i, row := range rows {
		resp[i] = topItemResponse{
			Name:         row.Name,
			QuantitySold: row.QuantitySold,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// PaymentSummary returns paid-order totals grouped by payment method.
func (h *ReportsHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	arg, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetPaymentSummary(r.Context(), arg)
	if err != nil {
		slog.Error("get payment summary", "restaurant_id", arg.RestaurantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]paymentSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = paymentSummaryResponse{
			PaymentMethod:    row.PaymentMethod,
			TransactionCount: row.TransactionCount,
			TotalAmount:      numericToString(row.TotalAmount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExpenseSummary returns ledger totals grouped by category.
func (h *ReportsHandler) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	arg, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetExpenseSummary(r.Context(), arg)
	if err != nil {
		slog.Error("get expense summary", "restaurant_id", arg.RestaurantID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]expenseSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = expenseSummaryResponse{
			Category:    row.Category,
			EntryCount:  row.EntryCount,
			TotalAmount: numericToString(row.TotalAmount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (h *ReportsHandler) rangeParams(w http.ResponseWriter, r *http.Request) (database.DateRangeParams, bool) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return database.DateRangeParams{}, false
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return database.DateRangeParams{}, false
	}

	return database.DateRangeParams{RestaurantID: rid, From: from, To: to}, true
}
