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
	"github.com/shopspring/decimal"

	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
	ListAvailableMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, arg database.DeleteMenuItemParams) error
}

// MenuHandler handles menu management endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterPublicRoutes registers the storefront menu listing.
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/restaurants/{rid}/menu", h.ListAvailable)
}

// RegisterAdminRoutes registers back-office menu management.
// Mounted inside the restaurant-scoped authenticated group.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{itemID}", h.Update)
	r.Patch("/{itemID}/availability", h.SetAvailability)
	r.Delete("/{itemID}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	ImageURL     string `json:"image_url"`
	Category     string `json:"category"`
	IsBestseller bool   `json:"is_bestseller"`
	Available    *bool  `json:"available"`

	// AlsoCreateIn lists additional restaurant IDs that receive their own
	// copy of the item (create only). Each copy is independent afterwards.
	AlsoCreateIn []string `json:"also_create_in,omitempty"`
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

type menuItemResponse struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        string    `json:"price"`
	ImageURL     string    `json:"image_url,omitempty"`
	Category     string    `json:"category"`
	IsBestseller bool      `json:"is_bestseller"`
	Rating       string    `json:"rating"`
	Votes        int32     `json:"votes"`
	Available    bool      `json:"available"`
}

type menuItemFanOutResponse struct {
	Item     menuItemResponse   `json:"item"`
	Copies   []menuItemResponse `json:"copies,omitempty"`
	Failures []fanOutFailure    `json:"failures,omitempty"`
}

type fanOutFailure struct {
	RestaurantID string `json:"restaurant_id"`
	Error        string `json:"error"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		Description:  textOrEmpty(m.Description),
		Price:        numericToString(m.Price),
		ImageURL:     textOrEmpty(m.ImageURL),
		Category:     m.Category,
		IsBestseller: m.IsBestseller,
		Rating:       numericToString(m.Rating),
		Votes:        m.Votes,
		Available:    m.Available,
	}
}

func validCategory(c string) bool {
	switch c {
	case enum.MenuCategoryVeg, enum.MenuCategoryNonVeg, enum.MenuCategoryDrinks, enum.MenuCategoryDessert:
		return true
	}
	return false
}

// --- Handlers ---

// ListAvailable returns only orderable items, for the storefront.
func (h *MenuHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	items, err := h.store.ListAvailableMenuItems(r.Context(), rid)
	if err != nil {
		slog.Error("list available menu items", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// List returns the full menu including hidden items, for management.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	items, err := h.store.ListMenuItems(r.Context(), rid)
	if err != nil {
		slog.Error("list menu items", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a menu item. When also_create_in names other restaurants, each
// gets an independent copy; a failure in one copy does not undo the others,
// and all outcomes are reported.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	req, params, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	params.RestaurantID = rid

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		slog.Error("create menu item", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if len(req.AlsoCreateIn) == 0 {
		writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
		return
	}

	resp := menuItemFanOutResponse{Item: toMenuItemResponse(item)}
	for _, target := range req.AlsoCreateIn {
		targetID, err := uuid.Parse(target)
		if err != nil {
			resp.Failures = append(resp.Failures, fanOutFailure{RestaurantID: target, Error: "invalid restaurant ID"})
			continue
		}
		if targetID == rid {
			continue
		}
		copyParams := params
		copyParams.RestaurantID = targetID
		created, err := h.store.CreateMenuItem(r.Context(), copyParams)
		if err != nil {
			slog.Error("fan out menu item", "restaurant_id", targetID, "error", err)
			resp.Failures = append(resp.Failures, fanOutFailure{RestaurantID: target, Error: "create failed"})
			continue
		}
		resp.Copies = append(resp.Copies, toMenuItemResponse(created))
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Update replaces a menu item's fields.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	_, params, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:           itemID,
		RestaurantID: rid,
		Name:         params.Name,
		Description:  params.Description,
		Price:        params.Price,
		ImageURL:     params.ImageURL,
		Category:     params.Category,
		IsBestseller: params.IsBestseller,
		Available:    params.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		slog.Error("update menu item", "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// SetAvailability toggles whether the storefront and POS may sell the item.
func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.SetMenuItemAvailability(r.Context(), database.SetMenuItemAvailabilityParams{
		ID:           itemID,
		RestaurantID: rid,
		Available:    req.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		slog.Error("set menu item availability", "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes a menu item. Past orders keep their frozen snapshots.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	if err := h.store.DeleteMenuItem(r.Context(), database.DeleteMenuItemParams{
		ID:           itemID,
		RestaurantID: rid,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		slog.Error("delete menu item", "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// decodeItem parses and validates the shared create/update body. On failure it
// writes the error response and returns ok=false.
func (h *MenuHandler) decodeItem(w http.ResponseWriter, r *http.Request) (menuItemRequest, database.CreateMenuItemParams, bool) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, database.CreateMenuItemParams{}, false
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return req, database.CreateMenuItemParams{}, false
	}
	if !validCategory(req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return req, database.CreateMenuItemParams{}, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "price must be a non-negative amount")
		return req, database.CreateMenuItemParams{}, false
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	return req, database.CreateMenuItemParams{
		Name:         req.Name,
		Description:  textFromString(req.Description),
		Price:        database.DecimalToNumeric(price),
		ImageURL:     textFromString(req.ImageURL),
		Category:     req.Category,
		IsBestseller: req.IsBestseller,
		Available:    available,
	}, true
}
