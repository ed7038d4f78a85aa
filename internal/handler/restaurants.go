package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/cravewave/api/internal/billing"
	"github.com/cravewave/api/internal/database"
)

// RestaurantStore defines the database methods needed by restaurant handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RestaurantStore interface {
	ListRestaurants(ctx context.Context) ([]database.Restaurant, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	GetRestaurantBySlug(ctx context.Context, slug string) (database.Restaurant, error)
	CreateRestaurant(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error)
	UpdateRestaurant(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error)
	UpdateTaxSettings(ctx context.Context, arg database.UpdateTaxSettingsParams) (database.Restaurant, error)
	UpdateTheme(ctx context.Context, arg database.UpdateThemeParams) (database.Restaurant, error)
	SoftDeleteRestaurant(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// RestaurantsHandler handles restaurant catalog and settings endpoints.
type RestaurantsHandler struct {
	store RestaurantStore
}

// NewRestaurantsHandler creates a new RestaurantsHandler.
func NewRestaurantsHandler(store RestaurantStore) *RestaurantsHandler {
	return &RestaurantsHandler{store: store}
}

// RegisterPublicRoutes registers the unauthenticated storefront catalog.
func (h *RestaurantsHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/restaurants", h.List)
	r.Get("/restaurants/{slug}", h.GetBySlug)
}

// --- Request / Response types ---

type restaurantRequest struct {
	Name                  string   `json:"name"`
	Slug                  string   `json:"slug"`
	Cuisine               []string `json:"cuisine"`
	Location              string   `json:"location"`
	Contact               string   `json:"contact"`
	OpeningHours          string   `json:"opening_hours"`
	DeliveryTime          string   `json:"delivery_time"`
	BannerImage           string   `json:"banner_image"`
	Logo                  string   `json:"logo"`
	WhatsappNumber        string   `json:"whatsapp_number"`
	UpiID                 string   `json:"upi_id"`
	ReceiptFooter         string   `json:"receipt_footer"`
	DefaultDeliveryCharge string   `json:"default_delivery_charge"`
}

type taxSettingsRequest struct {
	GSTPercent           string `json:"gst_percent"`
	ServiceChargePercent string `json:"service_charge_percent"`
	ApplyTax             bool   `json:"apply_tax"`
	TaxBase              string `json:"tax_base"`
}

type restaurantResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Name                  string          `json:"name"`
	Slug                  string          `json:"slug"`
	Cuisine               []string        `json:"cuisine"`
	Location              string          `json:"location,omitempty"`
	Contact               string          `json:"contact,omitempty"`
	OpeningHours          string          `json:"opening_hours,omitempty"`
	DeliveryTime          string          `json:"delivery_time,omitempty"`
	Rating                string          `json:"rating"`
	BannerImage           string          `json:"banner_image,omitempty"`
	Logo                  string          `json:"logo,omitempty"`
	WhatsappNumber        string          `json:"whatsapp_number,omitempty"`
	UpiID                 string          `json:"upi_id,omitempty"`
	ReceiptFooter         string          `json:"receipt_footer,omitempty"`
	DefaultDeliveryCharge string          `json:"default_delivery_charge"`
	GSTPercent            string          `json:"gst_percent"`
	ServiceChargePercent  string          `json:"service_charge_percent"`
	ApplyTax              bool            `json:"apply_tax"`
	TaxBase               string          `json:"tax_base"`
	Theme                 json.RawMessage `json:"theme"`
}

func toRestaurantResponse(r database.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:                    r.ID,
		Name:                  r.Name,
		Slug:                  r.Slug,
		Cuisine:               r.Cuisine,
		Location:              textOrEmpty(r.Location),
		Contact:               textOrEmpty(r.Contact),
		OpeningHours:          textOrEmpty(r.OpeningHours),
		DeliveryTime:          textOrEmpty(r.DeliveryTime),
		Rating:                numericToString(r.Rating),
		BannerImage:           textOrEmpty(r.BannerImage),
		Logo:                  textOrEmpty(r.Logo),
		WhatsappNumber:        textOrEmpty(r.WhatsappNumber),
		UpiID:                 textOrEmpty(r.UpiID),
		ReceiptFooter:         textOrEmpty(r.ReceiptFooter),
		DefaultDeliveryCharge: numericToString(r.DefaultDeliveryCharge),
		GSTPercent:            numericToString(r.GstPercent),
		ServiceChargePercent:  numericToString(r.ServiceChargePercent),
		ApplyTax:              r.ApplyTax,
		TaxBase:               r.TaxBase,
		Theme:                 r.Theme,
	}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// --- Handlers ---

// List returns all active restaurants for the storefront landing page.
func (h *RestaurantsHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.store.ListRestaurants(r.Context())
	if err != nil {
		slog.Error("list restaurants", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]restaurantResponse, len(restaurants))
	for i, rest := range restaurants {
		resp[i] = toRestaurantResponse(rest)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBySlug returns one restaurant by its storefront slug.
func (h *RestaurantsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	restaurant, err := h.store.GetRestaurantBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "restaurant not found")
			return
		}
		slog.Error("get restaurant by slug", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// Get returns one restaurant by ID for the back office.
func (h *RestaurantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	restaurant, err := h.store.GetRestaurant(r.Context(), rid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "restaurant not found")
			return
		}
		slog.Error("get restaurant", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// Create adds a restaurant to the platform. Owner only.
func (h *RestaurantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		writeError(w, http.StatusBadRequest, "slug must be lowercase letters, digits, and hyphens")
		return
	}

	deliveryCharge, err := parseNonNegativeAmount(req.DefaultDeliveryCharge)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid default_delivery_charge")
		return
	}

	restaurant, err := h.store.CreateRestaurant(r.Context(), database.CreateRestaurantParams{
		Name:                  req.Name,
		Slug:                  req.Slug,
		Cuisine:               req.Cuisine,
		Location:              textFromString(req.Location),
		Contact:               textFromString(req.Contact),
		OpeningHours:          textFromString(req.OpeningHours),
		DeliveryTime:          textFromString(req.DeliveryTime),
		BannerImage:           textFromString(req.BannerImage),
		Logo:                  textFromString(req.Logo),
		WhatsappNumber:        textFromString(req.WhatsappNumber),
		UpiID:                 textFromString(req.UpiID),
		ReceiptFooter:         textFromString(req.ReceiptFooter),
		DefaultDeliveryCharge: database.DecimalToNumeric(deliveryCharge),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "slug already in use")
			return
		}
		slog.Error("create restaurant", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toRestaurantResponse(restaurant))
}

// Update replaces a restaurant's profile fields.
func (h *RestaurantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req restaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		writeError(w, http.StatusBadRequest, "slug must be lowercase letters, digits, and hyphens")
		return
	}

	deliveryCharge, err := parseNonNegativeAmount(req.DefaultDeliveryCharge)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid default_delivery_charge")
		return
	}

	restaurant, err := h.store.UpdateRestaurant(r.Context(), database.UpdateRestaurantParams{
		ID:                    rid,
		Name:                  req.Name,
		Slug:                  req.Slug,
		Cuisine:               req.Cuisine,
		Location:              textFromString(req.Location),
		Contact:               textFromString(req.Contact),
		OpeningHours:          textFromString(req.OpeningHours),
		DeliveryTime:          textFromString(req.DeliveryTime),
		BannerImage:           textFromString(req.BannerImage),
		Logo:                  textFromString(req.Logo),
		WhatsappNumber:        textFromString(req.WhatsappNumber),
		UpiID:                 textFromString(req.UpiID),
		ReceiptFooter:         textFromString(req.ReceiptFooter),
		DefaultDeliveryCharge: database.DecimalToNumeric(deliveryCharge),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "restaurant not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "slug already in use")
			return
		}
		slog.Error("update restaurant", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// UpdateTaxSettings changes the billing configuration. Existing orders keep
// their frozen amounts; only future bills see the new rates.
func (h *RestaurantsHandler) UpdateTaxSettings(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req taxSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gst, err := parseNonNegativeAmount(req.GSTPercent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid gst_percent")
		return
	}
	service, err := parseNonNegativeAmount(req.ServiceChargePercent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service_charge_percent")
		return
	}

	taxBase := req.TaxBase
	if taxBase == "" {
		taxBase = string(billing.TaxBaseTaxable)
	}
	if taxBase != string(billing.TaxBaseSubtotal) && taxBase != string(billing.TaxBaseTaxable) {
		writeError(w, http.StatusBadRequest, "tax_base must be SUBTOTAL or TAXABLE")
		return
	}

	restaurant, err := h.store.UpdateTaxSettings(r.Context(), database.UpdateTaxSettingsParams{
		ID:                   rid,
		GstPercent:           database.DecimalToNumeric(gst),
		ServiceChargePercent: database.DecimalToNumeric(service),
		ApplyTax:             req.ApplyTax,
		TaxBase:              taxBase,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "restaurant not found")
			return
		}
		slog.Error("update tax settings", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// UpdateTheme replaces the storefront theme document.
func (h *RestaurantsHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var theme json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&theme); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	restaurant, err := h.store.UpdateTheme(r.Context(), database.UpdateThemeParams{
		ID:    rid,
		Theme: theme,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "restaurant not found")
			return
		}
		slog.Error("update theme", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// Delete deactivates a restaurant. Orders and expenses survive for reporting.
func (h *RestaurantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	if _, err := h.store.SoftDeleteRestaurant(r.Context(), rid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "restaurant not found")
			return
		}
		slog.Error("delete restaurant", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func parseNonNegativeAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("amount must not be negative")
	}
	return d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
