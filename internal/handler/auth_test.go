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
	"golang.org/x/crypto/bcrypt"

	"github.com/cravewave/api/internal/auth"
	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/handler"
)

const testJWTSecret = "test-secret"

// --- Mock auth store ---

type mockAuthStore struct {
	users []database.User
}

func (m *mockAuthStore) GetUserByEmail(ctx context.Context, email string) (database.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUser(ctx context.Context, id uuid.UUID) (database.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

// --- Helper functions ---

func setupAuthRouter(store handler.AuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func testUser(t *testing.T, email, password string) database.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.User{
		ID:           uuid.New(),
		RestaurantID: makePgUUID(uuid.New()),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test Manager",
		Role:         "MANAGER",
		IsActive:     true,
	}
}

// --- Tests ---

func TestLogin(t *testing.T) {
	user := testUser(t, "manager@spiceroute.in", "s3cret-pass")
	store := &mockAuthStore{users: []database.User{user}}
	router := setupAuthRouter(store)

	body, _ := json.Marshal(map[string]string{
		"email":    "manager@spiceroute.in",
		"password": "s3cret-pass",
	})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Errorf("expected access token")
	}
	if resp["refresh_token"] == "" || resp["refresh_token"] == nil {
		t.Errorf("expected refresh token")
	}

	u, _ := resp["user"].(map[string]interface{})
	if u["role"] != "MANAGER" {
		t.Errorf("expected role MANAGER, got %v", u["role"])
	}

	// The access token must validate and carry the user's identity.
	claims, err := auth.ValidateToken(testJWTSecret, resp["access_token"].(string))
	if err != nil {
		t.Fatalf("returned access token did not validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected token for %s, got %s", user.ID, claims.UserID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := &mockAuthStore{users: []database.User{testUser(t, "manager@spiceroute.in", "s3cret-pass")}}
	router := setupAuthRouter(store)

	body, _ := json.Marshal(map[string]string{
		"email":    "manager@spiceroute.in",
		"password": "wrong",
	})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	body, _ := json.Marshal(map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRefresh(t *testing.T) {
	user := testUser(t, "manager@spiceroute.in", "s3cret-pass")
	store := &mockAuthStore{users: []database.User{user}}
	router := setupAuthRouter(store)

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	req := httptest.NewRequest("POST", "/auth/refresh", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Errorf("expected fresh access token")
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	body, _ := json.Marshal(map[string]string{"refresh_token": "not-a-jwt"})
	req := httptest.NewRequest("POST", "/auth/refresh", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
