package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cravewave/api/internal/cart"
	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
	"github.com/cravewave/api/internal/handler"
	"github.com/cravewave/api/internal/service"
)

// --- Mock cart store ---

type mockCartStore struct {
	restaurants map[uuid.UUID]database.Restaurant
	menuItems   map[uuid.UUID]database.MenuItem
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{
		restaurants: map[uuid.UUID]database.Restaurant{},
		menuItems:   map[uuid.UUID]database.MenuItem{},
	}
}

func (m *mockCartStore) GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error) {
	if r, ok := m.restaurants[id]; ok {
		return r, nil
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func (m *mockCartStore) GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
	if item, ok := m.menuItems[arg.ID]; ok && item.RestaurantID == arg.RestaurantID {
		return item, nil
	}
	return database.MenuItem{}, pgx.ErrNoRows
}

// --- Mock checkout service ---

type mockCheckout struct {
	lastReq service.PlaceOrderRequest
	result  *service.PlaceOrderResult
	err     error
}

func (m *mockCheckout) PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// --- Helper functions ---

func setupCartRouter(repo cart.Repository, store handler.CartStore, svc handler.CheckoutService) *chi.Mux {
	h := handler.NewCartHandler(repo, store, svc)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func cartRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewBuffer(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-Session-Key", "sess-1")
	return req
}

// --- Tests ---

func TestCartRequiresSessionKey(t *testing.T) {
	router := setupCartRouter(cart.NewMemoryRepository(), newMockCartStore(), &mockCheckout{})

	req := httptest.NewRequest("GET", "/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestAddItemComputesBillPreview(t *testing.T) {
	rid := uuid.New()
	itemID := uuid.New()

	store := newMockCartStore()
	store.restaurants[rid] = sampleRestaurant(rid)
	store.menuItems[itemID] = sampleMenuItem(itemID, rid)

	router := setupCartRouter(cart.NewMemoryRepository(), store, &mockCheckout{})

	body, _ := json.Marshal(map[string]string{
		"restaurant_id": rid.String(),
		"menu_item_id":  itemID.String(),
	})
	req := cartRequest("POST", "/cart/items", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["total_items"] != float64(1) {
		t.Errorf("expected 1 item, got %v", resp["total_items"])
	}

	// 250 subtotal, 5% GST and 10% service on the taxable base, takeaway so
	// no delivery fee: 250 + 12.50 + 25 = 287.50
	bill, _ := resp["bill"].(map[string]interface{})
	if bill == nil {
		t.Fatalf("expected bill preview in response")
	}
	if bill["subtotal"] != "250.00" {
		t.Errorf("expected subtotal 250.00, got %v", bill["subtotal"])
	}
	if bill["gst_amount"] != "12.50" {
		t.Errorf("expected gst_amount 12.50, got %v", bill["gst_amount"])
	}
	if bill["service_amount"] != "25.00" {
		t.Errorf("expected service_amount 25.00, got %v", bill["service_amount"])
	}
	if bill["delivery_fee"] != "0.00" {
		t.Errorf("expected delivery_fee 0.00, got %v", bill["delivery_fee"])
	}
	if bill["total"] != "287.50" {
		t.Errorf("expected total 287.50, got %v", bill["total"])
	}
}

func TestGetCartDeliveryModeAddsFee(t *testing.T) {
	rid := uuid.New()
	itemID := uuid.New()

	store := newMockCartStore()
	store.restaurants[rid] = sampleRestaurant(rid)
	store.menuItems[itemID] = sampleMenuItem(itemID, rid)

	repo := cart.NewMemoryRepository()
	router := setupCartRouter(repo, store, &mockCheckout{})

	body, _ := json.Marshal(map[string]string{
		"restaurant_id": rid.String(),
		"menu_item_id":  itemID.String(),
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("GET", "/cart?mode=DELIVERY", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	bill, _ := resp["bill"].(map[string]interface{})
	if bill["delivery_fee"] != "30.00" {
		t.Errorf("expected delivery_fee 30.00, got %v", bill["delivery_fee"])
	}
	if bill["total"] != "317.50" {
		t.Errorf("expected total 317.50, got %v", bill["total"])
	}
}

func TestAddItemFromAnotherRestaurantConflicts(t *testing.T) {
	ridA := uuid.New()
	ridB := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()

	store := newMockCartStore()
	store.restaurants[ridA] = sampleRestaurant(ridA)
	store.restaurants[ridB] = sampleRestaurant(ridB)
	store.menuItems[itemA] = sampleMenuItem(itemA, ridA)
	store.menuItems[itemB] = sampleMenuItem(itemB, ridB)

	repo := cart.NewMemoryRepository()
	router := setupCartRouter(repo, store, &mockCheckout{})

	body, _ := json.Marshal(map[string]string{"restaurant_id": ridA.String(), "menu_item_id": itemA.String()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("first add failed: %d", rec.Code)
	}

	// Second restaurant without replace is refused
	body, _ = json.Marshal(map[string]string{"restaurant_id": ridB.String(), "menu_item_id": itemB.String()})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/cart/items", body))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}

	// With replace the basket starts over at the new restaurant
	body, _ = json.Marshal(map[string]interface{}{
		"restaurant_id": ridB.String(),
		"menu_item_id":  itemB.String(),
		"replace":       true,
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 after replace, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["restaurant_id"] != ridB.String() {
		t.Errorf("expected cart bound to %s, got %v", ridB, resp["restaurant_id"])
	}
	if resp["total_items"] != float64(1) {
		t.Errorf("expected 1 item after replace, got %v", resp["total_items"])
	}
}

func TestAddUnavailableItem(t *testing.T) {
	rid := uuid.New()
	itemID := uuid.New()

	item := sampleMenuItem(itemID, rid)
	item.Available = false

	store := newMockCartStore()
	store.restaurants[rid] = sampleRestaurant(rid)
	store.menuItems[itemID] = item

	router := setupCartRouter(cart.NewMemoryRepository(), store, &mockCheckout{})

	body, _ := json.Marshal(map[string]string{"restaurant_id": rid.String(), "menu_item_id": itemID.String()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/cart/items", body))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestUpdateQuantityRemovesLineAtZero(t *testing.T) {
	rid := uuid.New()
	itemID := uuid.New()

	store := newMockCartStore()
	store.restaurants[rid] = sampleRestaurant(rid)
	store.menuItems[itemID] = sampleMenuItem(itemID, rid)

	repo := cart.NewMemoryRepository()
	router := setupCartRouter(repo, store, &mockCheckout{})

	body, _ := json.Marshal(map[string]string{"restaurant_id": rid.String(), "menu_item_id": itemID.String()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item failed: %d", rec.Code)
	}

	body, _ = json.Marshal(map[string]int{"delta": -1})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("PATCH", "/cart/items/"+itemID.String(), body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["total_items"] != float64(0) {
		t.Errorf("expected empty cart, got %v items", resp["total_items"])
	}
	if _, ok := resp["bill"]; ok {
		t.Errorf("empty cart should not carry a bill preview")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	router := setupCartRouter(cart.NewMemoryRepository(), newMockCartStore(), &mockCheckout{})

	body, _ := json.Marshal(map[string]string{"order_type": "TAKEAWAY"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/checkout", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCheckoutPlacesOnlineOrderAndClearsCart(t *testing.T) {
	rid := uuid.New()
	itemID := uuid.New()

	store := newMockCartStore()
	store.restaurants[rid] = sampleRestaurant(rid)
	store.menuItems[itemID] = sampleMenuItem(itemID, rid)

	order := sampleOrder(uuid.New(), rid)
	order.Source = enum.OrderSourceOnline
	checkout := &mockCheckout{result: &service.PlaceOrderResult{Order: order}}

	repo := cart.NewMemoryRepository()
	router := setupCartRouter(repo, store, checkout)

	body, _ := json.Marshal(map[string]string{"restaurant_id": rid.String(), "menu_item_id": itemID.String()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item failed: %d", rec.Code)
	}

	body, _ = json.Marshal(map[string]string{
		"order_type":     "TAKEAWAY",
		"payment_method": "UPI",
		"customer_name":  "Asha",
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/checkout", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if checkout.lastReq.Source != enum.OrderSourceOnline {
		t.Errorf("expected source ONLINE, got %s", checkout.lastReq.Source)
	}
	if checkout.lastReq.RestaurantID != rid {
		t.Errorf("expected restaurant %s, got %s", rid, checkout.lastReq.RestaurantID)
	}
	if checkout.lastReq.Discount != "" {
		t.Errorf("storefront checkout must not carry a discount, got %q", checkout.lastReq.Discount)
	}
	if len(checkout.lastReq.Items) != 1 || checkout.lastReq.Items[0].Quantity != 1 {
		t.Errorf("unexpected checkout items: %+v", checkout.lastReq.Items)
	}

	// Cart is cleared after a successful checkout
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("GET", "/cart", nil))
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["total_items"] != float64(0) {
		t.Errorf("expected cart cleared after checkout, got %v items", resp["total_items"])
	}
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	rid := uuid.New()
	itemID := uuid.New()

	store := newMockCartStore()
	store.restaurants[rid] = sampleRestaurant(rid)
	store.menuItems[itemID] = sampleMenuItem(itemID, rid)

	checkout := &mockCheckout{err: service.ErrMenuItemOffMenu}
	repo := cart.NewMemoryRepository()
	router := setupCartRouter(repo, store, checkout)

	body, _ := json.Marshal(map[string]string{"restaurant_id": rid.String(), "menu_item_id": itemID.String()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/cart/items", body))

	body, _ = json.Marshal(map[string]string{"order_type": "TAKEAWAY"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("POST", "/checkout", body))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest("GET", "/cart", nil))
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["total_items"] != float64(1) {
		t.Errorf("expected cart to survive a failed checkout, got %v items", resp["total_items"])
	}
}
