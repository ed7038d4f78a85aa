package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/handler"
)

// --- Mock menu store ---

type mockMenuStore struct {
	items []database.MenuItem

	// failCreateFor makes CreateMenuItem fail for one restaurant, to exercise
	// fan-out partial failures.
	failCreateFor uuid.UUID

	created []database.CreateMenuItemParams
}

func (m *mockMenuStore) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error) {
	return m.items, nil
}

func (m *mockMenuStore) ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error) {
	var out []database.MenuItem
	for _, item := range m.items {
		if item.Available {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockMenuStore) GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
	for _, item := range m.items {
		if item.ID == arg.ID && item.RestaurantID == arg.RestaurantID {
			return item, nil
		}
	}
	return database.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	if m.failCreateFor != uuid.Nil && arg.RestaurantID == m.failCreateFor {
		return database.MenuItem{}, errors.New("insert failed")
	}
	m.created = append(m.created, arg)
	return database.MenuItem{
		ID:           uuid.New(),
		RestaurantID: arg.RestaurantID,
		Name:         arg.Name,
		Description:  arg.Description,
		Price:        arg.Price,
		ImageURL:     arg.ImageURL,
		Category:     arg.Category,
		IsBestseller: arg.IsBestseller,
		Rating:       makePgNumeric("0"),
		Available:    arg.Available,
	}, nil
}

func (m *mockMenuStore) UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	for _, item := range m.items {
		if item.ID == arg.ID && item.RestaurantID == arg.RestaurantID {
			item.Name = arg.Name
			item.Price = arg.Price
			item.Category = arg.Category
			item.Available = arg.Available
			return item, nil
		}
	}
	return database.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error) {
	for _, item := range m.items {
		if item.ID == arg.ID && item.RestaurantID == arg.RestaurantID {
			item.Available = arg.Available
			return item, nil
		}
	}
	return database.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) DeleteMenuItem(ctx context.Context, arg database.DeleteMenuItemParams) error {
	for _, item := range m.items {
		if item.ID == arg.ID && item.RestaurantID == arg.RestaurantID {
			return nil
		}
	}
	return pgx.ErrNoRows
}

// --- Helper functions ---

// setupMenuRouter mirrors the production mounts: storefront reads live under
// /store, the admin menu endpoints under the restaurant-scoped group.
func setupMenuRouter(store handler.MenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	r.Route("/store", func(r chi.Router) {
		h.RegisterPublicRoutes(r)
	})
	r.Route("/restaurants/{rid}/menu", h.RegisterAdminRoutes)
	return r
}

// --- Tests ---

func TestPublicMenuListsOnlyAvailableItems(t *testing.T) {
	rid := uuid.New()

	hidden := sampleMenuItem(uuid.New(), rid)
	hidden.Name = "Seasonal Special"
	hidden.Available = false

	store := &mockMenuStore{items: []database.MenuItem{sampleMenuItem(uuid.New(), rid), hidden}}
	router := setupMenuRouter(store)

	req := httptest.NewRequest("GET", fmt.Sprintf("/store/restaurants/%s/menu", rid), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 available item, got %d", len(resp))
	}
	if resp[0]["name"] != "Paneer Tikka" {
		t.Errorf("expected Paneer Tikka, got %v", resp[0]["name"])
	}
	if resp[0]["price"] != "250.00" {
		t.Errorf("expected price 250.00, got %v", resp[0]["price"])
	}
}

func TestCreateMenuItem(t *testing.T) {
	rid := uuid.New()
	store := &mockMenuStore{}
	router := setupMenuRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Masala Chai",
		"price":    "40.00",
		"category": "DRINKS",
	})
	req := httptest.NewRequest("POST", fmt.Sprintf("/restaurants/%s/menu/", rid), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["name"] != "Masala Chai" {
		t.Errorf("expected name 'Masala Chai', got %v", resp["name"])
	}
	if resp["available"] != true {
		t.Errorf("new items default to available, got %v", resp["available"])
	}
	if len(store.created) != 1 || store.created[0].RestaurantID != rid {
		t.Errorf("expected item created for %s, got %+v", rid, store.created)
	}
}

func TestCreateMenuItemInvalidCategory(t *testing.T) {
	rid := uuid.New()
	router := setupMenuRouter(&mockMenuStore{})

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Mystery Dish",
		"price":    "100.00",
		"category": "FUSION",
	})
	req := httptest.NewRequest("POST", fmt.Sprintf("/restaurants/%s/menu/", rid), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCreateMenuItemNegativePrice(t *testing.T) {
	rid := uuid.New()
	router := setupMenuRouter(&mockMenuStore{})

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Free Lunch",
		"price":    "-5.00",
		"category": "VEG",
	})
	req := httptest.NewRequest("POST", fmt.Sprintf("/restaurants/%s/menu/", rid), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCreateMenuItemFanOut(t *testing.T) {
	rid := uuid.New()
	okTarget := uuid.New()
	badTarget := uuid.New()

	store := &mockMenuStore{failCreateFor: badTarget}
	router := setupMenuRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Gulab Jamun",
		"price":    "90.00",
		"category": "DESSERT",
		"also_create_in": []string{
			okTarget.String(),
			badTarget.String(),
			rid.String(), // self is skipped, not duplicated
		},
	})
	req := httptest.NewRequest("POST", fmt.Sprintf("/restaurants/%s/menu/", rid), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Item     map[string]interface{}   `json:"item"`
		Copies   []map[string]interface{} `json:"copies"`
		Failures []map[string]interface{} `json:"failures"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Item["name"] != "Gulab Jamun" {
		t.Errorf("expected primary item, got %v", resp.Item)
	}
	if len(resp.Copies) != 1 {
		t.Fatalf("expected 1 copy, got %d", len(resp.Copies))
	}
	if resp.Copies[0]["restaurant_id"] != okTarget.String() {
		t.Errorf("expected copy in %s, got %v", okTarget, resp.Copies[0]["restaurant_id"])
	}
	if len(resp.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(resp.Failures))
	}
	if resp.Failures[0]["restaurant_id"] != badTarget.String() {
		t.Errorf("expected failure for %s, got %v", badTarget, resp.Failures[0])
	}

	// primary + one successful copy
	if len(store.created) != 2 {
		t.Errorf("expected 2 creates, got %d", len(store.created))
	}
}

func TestSetAvailability(t *testing.T) {
	rid := uuid.New()
	itemID := uuid.New()

	store := &mockMenuStore{items: []database.MenuItem{sampleMenuItem(itemID, rid)}}
	router := setupMenuRouter(store)

	body, _ := json.Marshal(map[string]bool{"available": false})
	req := httptest.NewRequest("PATCH", fmt.Sprintf("/restaurants/%s/menu/%s/availability", rid, itemID), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["available"] != false {
		t.Errorf("expected available false, got %v", resp["available"])
	}
}

func TestDeleteMenuItemNotFound(t *testing.T) {
	rid := uuid.New()
	router := setupMenuRouter(&mockMenuStore{})

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/restaurants/%s/menu/%s", rid, uuid.New()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
