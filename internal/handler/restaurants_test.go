package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/handler"
)

// --- Mock restaurant store ---

type mockRestaurantStore struct {
	restaurants []database.Restaurant
	createErr   error

	taxParams database.UpdateTaxSettingsParams
}

func (m *mockRestaurantStore) ListRestaurants(ctx context.Context) ([]database.Restaurant, error) {
	return m.restaurants, nil
}

func (m *mockRestaurantStore) GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error) {
	for _, r := range m.restaurants {
		if r.ID == id {
			return r, nil
		}
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func (m *mockRestaurantStore) GetRestaurantBySlug(ctx context.Context, slug string) (database.Restaurant, error) {
	for _, r := range m.restaurants {
		if r.Slug == slug {
			return r, nil
		}
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func (m *mockRestaurantStore) CreateRestaurant(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error) {
	if m.createErr != nil {
		return database.Restaurant{}, m.createErr
	}
	r := database.Restaurant{
		ID:                    uuid.New(),
		Name:                  arg.Name,
		Slug:                  arg.Slug,
		Cuisine:               arg.Cuisine,
		Location:              arg.Location,
		UpiID:                 arg.UpiID,
		DefaultDeliveryCharge: arg.DefaultDeliveryCharge,
		GstPercent:            makePgNumeric("0"),
		ServiceChargePercent:  makePgNumeric("0"),
		Rating:                makePgNumeric("0"),
		TaxBase:               "TAXABLE",
		Theme:                 []byte(`{}`),
		IsActive:              true,
	}
	m.restaurants = append(m.restaurants, r)
	return r, nil
}

func (m *mockRestaurantStore) UpdateRestaurant(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error) {
	for i, r := range m.restaurants {
		if r.ID == arg.ID {
			m.restaurants[i].Name = arg.Name
			m.restaurants[i].Slug = arg.Slug
			return m.restaurants[i], nil
		}
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func (m *mockRestaurantStore) UpdateTaxSettings(ctx context.Context, arg database.UpdateTaxSettingsParams) (database.Restaurant, error) {
	m.taxParams = arg
	for i, r := range m.restaurants {
		if r.ID == arg.ID {
			m.restaurants[i].GstPercent = arg.GstPercent
			m.restaurants[i].ServiceChargePercent = arg.ServiceChargePercent
			m.restaurants[i].ApplyTax = arg.ApplyTax
			m.restaurants[i].TaxBase = arg.TaxBase
			return m.restaurants[i], nil
		}
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func (m *mockRestaurantStore) UpdateTheme(ctx context.Context, arg database.UpdateThemeParams) (database.Restaurant, error) {
	for i, r := range m.restaurants {
		if r.ID == arg.ID {
			m.restaurants[i].Theme = arg.Theme
			return m.restaurants[i], nil
		}
	}
	return database.Restaurant{}, pgx.ErrNoRows
}

func (m *mockRestaurantStore) SoftDeleteRestaurant(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	for _, r := range m.restaurants {
		if r.ID == id {
			return id, nil
		}
	}
	return uuid.Nil, pgx.ErrNoRows
}

// --- Helper functions ---

func setupRestaurantsRouter(store handler.RestaurantStore) *chi.Mux {
	h := handler.NewRestaurantsHandler(store)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Post("/admin/restaurants", h.Create)
	r.Route("/admin/restaurants/{rid}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Put("/tax-settings", h.UpdateTaxSettings)
		r.Put("/theme", h.UpdateTheme)
		r.Delete("/", h.Delete)
	})
	return r
}

// --- Tests ---

func TestGetRestaurantBySlug(t *testing.T) {
	rid := uuid.New()
	store := &mockRestaurantStore{restaurants: []database.Restaurant{sampleRestaurant(rid)}}
	router := setupRestaurantsRouter(store)

	req := httptest.NewRequest("GET", "/restaurants/spice-route", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["name"] != "Spice Route" {
		t.Errorf("expected Spice Route, got %v", resp["name"])
	}
	if resp["gst_percent"] != "5.00" {
		t.Errorf("expected gst_percent 5.00, got %v", resp["gst_percent"])
	}
	if resp["tax_base"] != "TAXABLE" {
		t.Errorf("expected tax_base TAXABLE, got %v", resp["tax_base"])
	}
}

func TestGetRestaurantBySlugNotFound(t *testing.T) {
	router := setupRestaurantsRouter(&mockRestaurantStore{})

	req := httptest.NewRequest("GET", "/restaurants/no-such-place", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestCreateRestaurant(t *testing.T) {
	store := &mockRestaurantStore{}
	router := setupRestaurantsRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"name":                    "Dosa Corner",
		"slug":                    "dosa-corner",
		"cuisine":                 []string{"South Indian"},
		"upi_id":                  "dosacorner@upi",
		"default_delivery_charge": "25.00",
	})
	req := httptest.NewRequest("POST", "/admin/restaurants", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["slug"] != "dosa-corner" {
		t.Errorf("expected slug dosa-corner, got %v", resp["slug"])
	}
	if resp["default_delivery_charge"] != "25.00" {
		t.Errorf("expected delivery charge 25.00, got %v", resp["default_delivery_charge"])
	}
}

func TestCreateRestaurantInvalidSlug(t *testing.T) {
	router := setupRestaurantsRouter(&mockRestaurantStore{})

	for _, slug := range []string{"Dosa Corner", "UPPER", "trailing-", "-leading", "double--dash"} {
		body, _ := json.Marshal(map[string]string{"name": "X", "slug": slug})
		req := httptest.NewRequest("POST", "/admin/restaurants", bytes.NewBuffer(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("slug %q: expected status 400, got %d", slug, rec.Code)
		}
	}
}

func TestCreateRestaurantSlugConflict(t *testing.T) {
	store := &mockRestaurantStore{createErr: &pgconn.PgError{Code: "23505"}}
	router := setupRestaurantsRouter(store)

	body, _ := json.Marshal(map[string]string{"name": "Copy Cat", "slug": "spice-route"})
	req := httptest.NewRequest("POST", "/admin/restaurants", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestUpdateTaxSettings(t *testing.T) {
	rid := uuid.New()
	store := &mockRestaurantStore{restaurants: []database.Restaurant{sampleRestaurant(rid)}}
	router := setupRestaurantsRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"gst_percent":            "12.00",
		"service_charge_percent": "0",
		"apply_tax":              true,
		"tax_base":               "SUBTOTAL",
	})
	req := httptest.NewRequest("PUT", fmt.Sprintf("/admin/restaurants/%s/tax-settings", rid), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["gst_percent"] != "12.00" {
		t.Errorf("expected gst_percent 12.00, got %v", resp["gst_percent"])
	}
	if resp["tax_base"] != "SUBTOTAL" {
		t.Errorf("expected tax_base SUBTOTAL, got %v", resp["tax_base"])
	}
}

func TestUpdateTaxSettingsDefaultsTaxBase(t *testing.T) {
	rid := uuid.New()
	store := &mockRestaurantStore{restaurants: []database.Restaurant{sampleRestaurant(rid)}}
	router := setupRestaurantsRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"gst_percent": "5.00",
		"apply_tax":   true,
	})
	req := httptest.NewRequest("PUT", fmt.Sprintf("/admin/restaurants/%s/tax-settings", rid), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.taxParams.TaxBase != "TAXABLE" {
		t.Errorf("expected omitted tax_base to default to TAXABLE, got %q", store.taxParams.TaxBase)
	}
}

func TestUpdateTaxSettingsRejectsBadBase(t *testing.T) {
	rid := uuid.New()
	store := &mockRestaurantStore{restaurants: []database.Restaurant{sampleRestaurant(rid)}}
	router := setupRestaurantsRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"gst_percent": "5.00",
		"tax_base":    "TOTAL",
	})
	req := httptest.NewRequest("PUT", fmt.Sprintf("/admin/restaurants/%s/tax-settings", rid), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUpdateTheme(t *testing.T) {
	rid := uuid.New()
	store := &mockRestaurantStore{restaurants: []database.Restaurant{sampleRestaurant(rid)}}
	router := setupRestaurantsRouter(store)

	body := []byte(`{"primary_color":"#e23744","dark_mode":true}`)
	req := httptest.NewRequest("PUT", fmt.Sprintf("/admin/restaurants/%s/theme", rid), bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	theme, _ := resp["theme"].(map[string]interface{})
	if theme["primary_color"] != "#e23744" {
		t.Errorf("expected theme to round-trip, got %v", resp["theme"])
	}
}

func TestDeleteRestaurant(t *testing.T) {
	rid := uuid.New()
	store := &mockRestaurantStore{restaurants: []database.Restaurant{sampleRestaurant(rid)}}
	router := setupRestaurantsRouter(store)

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/admin/restaurants/%s/", rid), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
}
