package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
)

// UsersStore defines the database methods needed by user handlers.
type UsersStore interface {
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	ListUsersByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.User, error)
}

// UsersHandler handles staff account management.
type UsersHandler struct {
	store UsersStore
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(store UsersStore) *UsersHandler {
	return &UsersHandler{store: store}
}

// RegisterRoutes registers user endpoints inside the restaurant-scoped
// authenticated group.
func (h *UsersHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// --- Handlers ---

// List returns the restaurant's active staff accounts.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	users, err := h.store.ListUsersByRestaurant(r.Context(), rid)
	if err != nil {
		slog.Error("list users", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		var restaurantID uuid.UUID
		if u.RestaurantID.Valid {
			restaurantID = u.RestaurantID.Bytes
		}
		resp[i] = userResponse{
			ID:           u.ID,
			RestaurantID: restaurantID,
			FullName:     u.FullName,
			Email:        u.Email,
			Role:         u.Role,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a staff account. Only MANAGER and CASHIER can be created here;
// OWNER accounts are provisioned out of band.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "email, password, and full_name are required")
		return
	}
	if req.Role != enum.UserRoleManager && req.Role != enum.UserRoleCashier {
		writeError(w, http.StatusBadRequest, "role must be MANAGER or CASHIER")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		RestaurantID: pgtype.UUID{Bytes: rid, Valid: true},
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		slog.Error("create user", "restaurant_id", rid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:           user.ID,
		RestaurantID: rid,
		FullName:     user.FullName,
		Email:        user.Email,
		Role:         user.Role,
	})
}
