package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
	"github.com/cravewave/api/internal/middleware"
	"github.com/cravewave/api/internal/service"
)

// OrderPlacer is the slice of the order service the handlers need.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error)
	PlaceOrderMulti(ctx context.Context, targets []uuid.UUID, req service.PlaceOrderRequest) ([]service.PlacementResult, error)
	UpdateStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (*database.Order, error)
	MarkPaid(ctx context.Context, restaurantID, orderID uuid.UUID, method string) (*database.Order, error)
	DeleteOrder(ctx context.Context, restaurantID, orderID uuid.UUID) error
}

// OrdersStore defines the read-side database methods for the order board.
type OrdersStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
}

// OrdersHandler handles the POS and order board endpoints.
type OrdersHandler struct {
	svc   OrderPlacer
	store OrdersStore
}

// NewOrdersHandler creates a new OrdersHandler.
func NewOrdersHandler(svc OrderPlacer, store OrdersStore) *OrdersHandler {
	return &OrdersHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints inside the restaurant-scoped
// authenticated group.
func (h *OrdersHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{orderID}", h.Get)
	r.Patch("/{orderID}/status", h.UpdateStatus)
	r.Post("/{orderID}/pay", h.MarkPaid)
	r.Delete("/{orderID}", h.Delete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderType     string                   `json:"order_type"`
	PaymentMethod string                   `json:"payment_method"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPhone string                   `json:"customer_phone"`
	TableNo       string                   `json:"table_no"`
	Discount      string                   `json:"discount"`
	DeliveryFee   string                   `json:"delivery_fee"`
	Items         []createOrderItemRequest `json:"items"`

	// AlsoPlaceIn lists additional restaurant IDs that each receive their
	// own copy of this order, validated against their own menus.
	AlsoPlaceIn []string `json:"also_place_in,omitempty"`
}

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int32     `json:"quantity"`
	LineTotal string    `json:"line_total"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	RestaurantID   uuid.UUID           `json:"restaurant_id"`
	OrderNumber    string              `json:"order_number"`
	Status         string              `json:"status"`
	OrderType      string              `json:"order_type"`
	Source         string              `json:"source"`
	PaymentStatus  string              `json:"payment_status"`
	PaymentMethod  string              `json:"payment_method,omitempty"`
	CustomerName   string              `json:"customer_name,omitempty"`
	CustomerPhone  string              `json:"customer_phone,omitempty"`
	TableNo        string              `json:"table_no,omitempty"`
	Subtotal       string              `json:"subtotal"`
	DiscountAmount string              `json:"discount_amount"`
	TaxableAmount  string              `json:"taxable_amount"`
	GSTRate        string              `json:"gst_rate"`
	GSTAmount      string              `json:"gst_amount"`
	ServiceRate    string              `json:"service_rate"`
	ServiceAmount  string              `json:"service_amount"`
	DeliveryFee    string              `json:"delivery_fee"`
	Total          string              `json:"total"`
	UPILink        string              `json:"upi_link,omitempty"`
	Items          []orderItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type placementResponse struct {
	RestaurantID uuid.UUID      `json:"restaurant_id"`
	Order        *orderResponse `json:"order,omitempty"`
	Error        string         `json:"error,omitempty"`
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		RestaurantID:   o.RestaurantID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		OrderType:      o.OrderType,
		Source:         o.Source,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  textOrEmpty(o.PaymentMethod),
		CustomerName:   textOrEmpty(o.CustomerName),
		CustomerPhone:  textOrEmpty(o.CustomerPhone),
		TableNo:        textOrEmpty(o.TableNo),
		Subtotal:       numericToString(o.Subtotal),
		DiscountAmount: numericToString(o.DiscountAmount),
		TaxableAmount:  numericToString(o.TaxableAmount),
		GSTRate:        numericToString(o.GstRate),
		GSTAmount:      numericToString(o.GstAmount),
		ServiceRate:    numericToString(o.ServiceRate),
		ServiceAmount:  numericToString(o.ServiceAmount),
		DeliveryFee:    numericToString(o.DeliveryFee),
		Total:          numericToString(o.Total),
		CreatedAt:      o.CreatedAt,
	}
}

func toOrderItemResponses(items []database.OrderItem) []orderItemResponse {
	resp := make([]orderItemResponse, len(items))
	for i, item := range items {
		resp[i] = orderItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: numericToString(item.UnitPrice),
			Quantity:  item.Quantity,
			LineTotal: numericToString(item.LineTotal),
		}
	}
	return resp
}

// --- Handlers ---

// Create places a POS order, optionally fanned out to other restaurants.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	var createdBy uuid.UUID
	if claims != nil {
		createdBy = claims.UserID
	}

	svcReq := service.PlaceOrderRequest{
		RestaurantID:  rid,
		CreatedBy:     createdBy,
		Source:        enum.OrderSourcePOS,
		OrderType:     req.OrderType,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		TableNo:       req.TableNo,
		Discount:      req.Discount,
		DeliveryFee:   req.DeliveryFee,
		Items:         toServiceItems(req.Items),
	}

	if len(req.AlsoPlaceIn) > 0 {
		h.createMulti(w, r, rid, req.AlsoPlaceIn, svcReq)
		return
	}

	result, err := h.svc.PlaceOrder(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := toOrderResponse(result.Order)
	resp.Items = toOrderItemResponses(result.Items)
	h.attachUPILink(r.Context(), &resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrdersHandler) createMulti(w http.ResponseWriter, r *http.Request, rid uuid.UUID, extra []string, svcReq service.PlaceOrderRequest) {
	targets := []uuid.UUID{rid}
	seen := map[uuid.UUID]bool{rid: true}
	for _, s := range extra {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid restaurant ID in also_place_in")
			return
		}
		if !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}

	results, err := h.svc.PlaceOrderMulti(r.Context(), targets, svcReq)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]placementResponse, len(results))
	anyOK := false
	for i, res := range results {
		pr := placementResponse{RestaurantID: res.RestaurantID}
		if res.Err != nil {
			pr.Error = res.Err.Error()
		} else {
			anyOK = true
			order := toOrderResponse(res.Result.Order)
			order.Items = toOrderItemResponses(res.Result.Items)
			pr.Order = &order
		}
		resp[i] = pr
	}

	status := http.StatusCreated
	if !anyOK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// List returns the order board, newest first, optionally filtered by status.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	status := pgtype.Text{}
	if s := r.URL.Query().Get("status"); s != "" {
		status = pgtype.Text{String: s, Valid: true}
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 200 {
		limit = 200
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		RestaurantID: rid,
		Status:       status,
		Limit:        int32(limit),
		Offset:       int32(offset),
	})
	if err != nil {
		slog.Error("list orders", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one order with its item snapshot and, for unpaid orders, a UPI
// payment link when the restaurant has a UPI ID configured.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	rid, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, RestaurantID: rid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		slog.Error("get order", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items, err := h.store.ListOrderItems(r.Context(), orderID)
	if err != nil {
		slog.Error("list order items", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toOrderResponse(order)
	resp.Items = toOrderItemResponses(items)
	h.attachUPILink(r.Context(), &resp)
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an order along the board.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	rid, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), rid, orderID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// MarkPaid settles an order's payment.
func (h *OrdersHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	rid, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}

	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.MarkPaid(r.Context(), rid, orderID, req.PaymentMethod)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Delete removes an order from the board.
func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rid, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), rid, orderID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *OrdersHandler) orderParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return uuid.Nil, uuid.Nil, false
	}
	return rid, orderID, true
}

// attachUPILink adds a upi:// deep link to unpaid orders when the restaurant
// has a UPI ID. Best-effort: a lookup failure just omits the link.
func (h *OrdersHandler) attachUPILink(ctx context.Context, resp *orderResponse) {
	if resp.PaymentStatus != enum.PaymentStatusPending {
		return
	}
	restaurant, err := h.store.GetRestaurant(ctx, resp.RestaurantID)
	if err != nil || !restaurant.UpiID.Valid {
		return
	}
	total, err := decimal.NewFromString(resp.Total)
	if err != nil {
		return
	}
	resp.UPILink = service.BuildUPILink(
		restaurant.UpiID.String,
		restaurant.Name,
		total,
		"Order "+resp.OrderNumber,
	)
}

func toServiceItems(items []createOrderItemRequest) []service.PlaceOrderItem {
	out := make([]service.PlaceOrderItem, len(items))
	for i, item := range items {
		out[i] = service.PlaceOrderItem{MenuItemID: item.MenuItemID, Quantity: item.Quantity}
	}
	return out
}

// writeServiceError maps order service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidOrderType),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidDeliveryFee),
		errors.Is(err, service.ErrNoTargets),
		errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrRestaurantNotFound),
		errors.Is(err, pgx.ErrNoRows):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMenuItemOffMenu),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("order operation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
