package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cravewave/api/internal/billing"
	"github.com/cravewave/api/internal/cart"
	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
	"github.com/cravewave/api/internal/service"
)

// sessionKeyHeader carries the opaque storefront session key. The server
// never mints keys; the client generates one and sends it on every request.
const sessionKeyHeader = "X-Session-Key"

// CartStore is the read-side database access cart handlers need.
type CartStore interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
}

// CheckoutService places the storefront order at checkout.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error)
}

// CartHandler handles the storefront basket endpoints.
type CartHandler struct {
	repo  cart.Repository
	store CartStore
	svc   CheckoutService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(repo cart.Repository, store CartStore, svc CheckoutService) *CartHandler {
	return &CartHandler{repo: repo, store: store, svc: svc}
}

// RegisterRoutes registers the unauthenticated storefront cart endpoints.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{itemID}", h.UpdateQuantity)
	r.Delete("/cart/items/{itemID}", h.RemoveItem)
	r.Delete("/cart", h.Clear)
	r.Post("/checkout", h.Checkout)
}

// --- Request / Response types ---

type addItemRequest struct {
	RestaurantID string `json:"restaurant_id"`
	MenuItemID   string `json:"menu_item_id"`

	// Replace confirms dropping an existing basket from another restaurant.
	Replace bool `json:"replace"`
}

type updateQuantityRequest struct {
	Delta int32 `json:"delta"`
}

type checkoutRequest struct {
	OrderType     string `json:"order_type"`
	PaymentMethod string `json:"payment_method"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	TableNo       string `json:"table_no"`
}

type billResponse struct {
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discount_amount"`
	TaxableAmount  string `json:"taxable_amount"`
	GSTRate        string `json:"gst_rate"`
	GSTAmount      string `json:"gst_amount"`
	ServiceRate    string `json:"service_rate"`
	ServiceAmount  string `json:"service_amount"`
	DeliveryFee    string `json:"delivery_fee"`
	Total          string `json:"total"`
}

type cartResponse struct {
	RestaurantID uuid.UUID     `json:"restaurant_id,omitempty"`
	Items        []cart.Item   `json:"items"`
	TotalItems   int32         `json:"total_items"`
	Bill         *billResponse `json:"bill,omitempty"`
}

type checkoutResponse struct {
	Order   orderResponse `json:"order"`
	UPILink string        `json:"upi_link,omitempty"`
}

func toBillResponse(b billing.Bill) *billResponse {
	return &billResponse{
		Subtotal:       billing.Format(b.Subtotal),
		DiscountAmount: billing.Format(b.DiscountAmount),
		TaxableAmount:  billing.Format(b.TaxableAmount),
		GSTRate:        billing.Format(b.GSTRate),
		GSTAmount:      billing.Format(b.GSTAmount),
		ServiceRate:    billing.Format(b.ServiceRate),
		ServiceAmount:  billing.Format(b.ServiceAmount),
		DeliveryFee:    billing.Format(b.DeliveryFee),
		Total:          billing.Format(b.Total),
	}
}

// --- Handlers ---

// Get returns the basket with a live bill preview. The optional mode query
// param (DINE_IN, TAKEAWAY, DELIVERY) drives the delivery fee line; it
// defaults to TAKEAWAY for the storefront.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := h.sessionKey(w, r)
	if !ok {
		return
	}

	c, err := h.repo.Load(r.Context(), key)
	if err != nil {
		slog.Error("load cart", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := cartResponse{
		RestaurantID: c.RestaurantID,
		Items:        c.Items,
		TotalItems:   c.TotalItems(),
	}

	if len(c.Items) > 0 {
		mode := billing.ModeTakeaway
		if s := r.URL.Query().Get("mode"); s != "" {
			m, err := billing.ParseMode(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid mode")
				return
			}
			mode = m
		}
		bill, err := h.previewBill(r.Context(), c, mode)
		if err != nil {
			slog.Error("preview bill", "restaurant_id", c.RestaurantID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp.Bill = bill
	}

	writeJSON(w, http.StatusOK, resp)
}

// AddItem puts one unit of a menu item into the basket. Items from a second
// restaurant are rejected with 409 unless replace is set, which clears the
// basket first.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	key, ok := h.sessionKey(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant_id")
		return
	}
	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu_item_id")
		return
	}

	menuItem, err := h.store.GetMenuItem(r.Context(), database.GetMenuItemParams{
		ID:           menuItemID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		slog.Error("get menu item", "item_id", menuItemID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !menuItem.Available {
		writeError(w, http.StatusConflict, "menu item is not available")
		return
	}

	c, err := h.repo.Load(r.Context(), key)
	if err != nil {
		slog.Error("load cart", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := c.Add(restaurantID, cart.Item{
		MenuItemID: menuItem.ID,
		Name:       menuItem.Name,
		UnitPrice:  database.NumericToDecimal(menuItem.Price),
	}, req.Replace); err != nil {
		if errors.Is(err, cart.ErrDifferentRestaurant) {
			writeError(w, http.StatusConflict, "cart holds items from another restaurant; set replace to start over")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.saveAndRespond(w, r, key, c)
}

// UpdateQuantity applies a delta to a basket line. A line clamped to zero is
// removed.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	key, ok := h.sessionKey(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.repo.Load(r.Context(), key)
	if err != nil {
		slog.Error("load cart", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := c.UpdateQuantity(itemID, req.Delta); err != nil {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}

	h.saveAndRespond(w, r, key, c)
}

// RemoveItem deletes a basket line entirely.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key, ok := h.sessionKey(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	c, err := h.repo.Load(r.Context(), key)
	if err != nil {
		slog.Error("load cart", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := c.Remove(itemID); err != nil {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}

	h.saveAndRespond(w, r, key, c)
}

// Clear empties the basket.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	key, ok := h.sessionKey(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), key); err != nil {
		slog.Error("delete cart", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Checkout places an online order from the basket. On success the basket is
// cleared; on failure it survives so the customer can retry.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	key, ok := h.sessionKey(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.repo.Load(r.Context(), key)
	if err != nil {
		slog.Error("load cart", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(c.Items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	items := make([]service.PlaceOrderItem, len(c.Items))
	for i, item := range c.Items {
		items[i] = service.PlaceOrderItem{
			MenuItemID: item.MenuItemID.String(),
			Quantity:   item.Quantity,
		}
	}

	result, err := h.svc.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		RestaurantID:  c.RestaurantID,
		Source:        enum.OrderSourceOnline,
		OrderType:     req.OrderType,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		TableNo:       req.TableNo,
		Items:         items,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), key); err != nil {
		slog.Warn("clear cart after checkout", "error", err)
	}

	resp := checkoutResponse{Order: toOrderResponse(result.Order)}
	resp.Order.Items = toOrderItemResponses(result.Items)
	if result.Order.PaymentStatus == enum.PaymentStatusPending {
		if restaurant, err := h.store.GetRestaurant(r.Context(), result.Order.RestaurantID); err == nil && restaurant.UpiID.Valid {
			resp.UPILink = service.BuildUPILink(
				restaurant.UpiID.String,
				restaurant.Name,
				result.Bill.Total,
				"Order "+result.Order.OrderNumber,
			)
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// --- Helpers ---

func (h *CartHandler) sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get(sessionKeyHeader)
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionKeyHeader+" header")
		return "", false
	}
	return key, true
}

func (h *CartHandler) saveAndRespond(w http.ResponseWriter, r *http.Request, key string, c *cart.Cart) {
	if err := h.repo.Save(r.Context(), key, c); err != nil {
		slog.Error("save cart", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := cartResponse{
		RestaurantID: c.RestaurantID,
		Items:        c.Items,
		TotalItems:   c.TotalItems(),
	}
	if len(c.Items) > 0 {
		if bill, err := h.previewBill(r.Context(), c, billing.ModeTakeaway); err == nil {
			resp.Bill = bill
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// previewBill recomputes the bill from the basket and the restaurant's
// current tax settings. Storefront previews never carry a discount.
func (h *CartHandler) previewBill(ctx context.Context, c *cart.Cart, mode billing.Mode) (*billResponse, error) {
	restaurant, err := h.store.GetRestaurant(ctx, c.RestaurantID)
	if err != nil {
		return nil, err
	}

	taxBase := billing.TaxBaseTaxable
	if restaurant.TaxBase == string(billing.TaxBaseSubtotal) {
		taxBase = billing.TaxBaseSubtotal
	}

	bill := billing.Compute(billing.Input{
		Items:       c.Lines(),
		Mode:        mode,
		DeliveryFee: database.NumericToDecimal(restaurant.DefaultDeliveryCharge),
		Tax: billing.TaxConfig{
			GSTPercent:           database.NumericToDecimal(restaurant.GstPercent),
			ServiceChargePercent: database.NumericToDecimal(restaurant.ServiceChargePercent),
			ApplyTax:             restaurant.ApplyTax,
			Base:                 taxBase,
		},
	})
	return toBillResponse(bill), nil
}
