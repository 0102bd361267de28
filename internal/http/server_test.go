package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tiffin/internal/auth"
	"tiffin/internal/core"
	"tiffin/internal/services"
	"tiffin/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tiffin.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenManager("access", "refresh", 15*time.Minute, 24*time.Hour)
	prices := services.NewPriceService(repo)
	srv := NewServer(Options{Addr: ":0", RateLimitPerMinute: 1000},
		services.NewAuthService(repo, tokens),
		services.NewUserService(repo),
		prices,
		services.NewMealService(repo, prices, nil),
		services.NewDashboardService(repo),
		services.NewAdminService(repo),
		tokens,
	)
	t.Cleanup(srv.Stop)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, srv *Server, email string) services.AuthResult {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "name": "Test User", "password": "secret-password",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}
	var res services.AuthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return res
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestAuthFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	reg := registerUser(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "secret-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": reg.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "a@example.com", "name": "Dup", "password": "secret-password",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/meals", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/meals", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}
}

func TestMealLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	user := registerUser(t, srv, "a@example.com")
	token := user.Tokens.AccessToken

	// set a lunch price first
	rec := doJSON(t, srv, http.MethodPatch, "/prices", token, map[string]any{"lunch": 80.00})
	if rec.Code != http.StatusOK {
		t.Fatalf("update prices status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodPost, "/meals", token, map[string]any{
		"date": "2024-01-15", "mealType": "LUNCH", "count": 2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create meal status = %d, body %s", rec.Code, rec.Body)
	}
	var meal core.MealRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &meal); err != nil {
		t.Fatalf("decode meal: %v", err)
	}
	if meal.PriceAtTime.Paise != 8000 {
		t.Fatalf("captured price = %d paise, want 8000", meal.PriceAtTime.Paise)
	}

	rec = doJSON(t, srv, http.MethodGet, "/meals?startDate=2024-01-01&endDate=2024-01-31", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var meals []core.MealRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &meals); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("list returned %d meals", len(meals))
	}

	count := 3
	rec = doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/meals/%d", meal.ID), token, map[string]any{"count": count})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/meals/%d", meal.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodGet, "/meals", token, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &meals); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("cancelled meal still listed: %+v", meals)
	}

	rec = doJSON(t, srv, http.MethodPatch, "/meals/9999", token, map[string]any{"count": 1})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing meal status = %d", rec.Code)
	}
}

func TestOwnershipIsForbiddenOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	owner := registerUser(t, srv, "owner@example.com")
	other := registerUser(t, srv, "other@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/meals", owner.Tokens.AccessToken, map[string]any{
		"date": "2024-01-15", "mealType": "LUNCH", "count": 1,
	})
	var meal core.MealRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &meal); err != nil {
		t.Fatalf("decode meal: %v", err)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/meals/%d", meal.ID), other.Tokens.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign cancel status = %d", rec.Code)
	}
}

func TestBulkEndpoints(t *testing.T) {
	srv := newTestServer(t)
	user := registerUser(t, srv, "a@example.com")
	token := user.Tokens.AccessToken

	rec := doJSON(t, srv, http.MethodPost, "/meals/bulk", token, map[string]any{
		"startDate": "2024-01-15", "endDate": "2024-01-19",
		"mealType": "LUNCH", "count": 1, "skipWeekends": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("bulk create status = %d, body %s", rec.Code, rec.Body)
	}
	var res services.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode bulk result: %v", err)
	}
	if res.Created != 5 {
		t.Fatalf("created = %d, want 5", res.Created)
	}

	rec = doJSON(t, srv, http.MethodPatch, "/meals/bulk", token, map[string]any{
		"startDate": "2024-01-15", "endDate": "2024-01-19", "count": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk update status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/meals/bulk?startDate=2024-01-15&endDate=2024-01-19", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk cancel status = %d, body %s", rec.Code, rec.Body)
	}

	// repeating the cancel matches nothing
	rec = doJSON(t, srv, http.MethodDelete, "/meals/bulk?startDate=2024-01-15&endDate=2024-01-19", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty bulk cancel status = %d", rec.Code)
	}

	// oversized range
	rec = doJSON(t, srv, http.MethodPost, "/meals/bulk", token, map[string]any{
		"startDate": "2024-01-01", "endDate": "2024-06-01", "mealType": "LUNCH", "count": 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized range status = %d", rec.Code)
	}
}

func TestDashboardCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)
	user := registerUser(t, srv, "a@example.com")
	token := user.Tokens.AccessToken

	create := func(date string) {
		rec := doJSON(t, srv, http.MethodPost, "/meals", token, map[string]any{
			"date": date, "mealType": "LUNCH", "count": 1,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d", date, rec.Code)
		}
	}
	overview := func() core.Totals {
		rec := doJSON(t, srv, http.MethodGet, "/dashboard/overview?startDate=2024-01-01&endDate=2024-01-31", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("overview status = %d, body %s", rec.Code, rec.Body)
		}
		var totals core.Totals
		if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
			t.Fatalf("decode overview: %v", err)
		}
		return totals
	}

	create("2024-01-10")
	if got := overview(); got.TotalMeals != 1 {
		t.Fatalf("totalMeals = %d, want 1", got.TotalMeals)
	}

	// a write after the cached read must show up in the next read
	create("2024-01-11")
	if got := overview(); got.TotalMeals != 2 {
		t.Fatalf("totalMeals after write = %d, want 2 (stale cache)", got.TotalMeals)
	}
}

func TestDashboardsWithoutPeriodParams(t *testing.T) {
	srv := newTestServer(t)
	user := registerUser(t, srv, "a@example.com")
	token := user.Tokens.AccessToken

	for _, path := range []string{
		"/dashboard/overview",
		"/dashboard/monthly",
		"/dashboard/weekly",
		"/meals/calendar",
	} {
		rec := doJSON(t, srv, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body %s", path, rec.Code, rec.Body)
		}
	}

	adminPair, err := srv.tokens.IssuePair(999, "admin@example.com", core.RoleAdmin)
	if err != nil {
		t.Fatalf("issue admin pair: %v", err)
	}
	rec := doJSON(t, srv, http.MethodGet, "/admin/stats", adminPair.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/admin/stats status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	srv := newTestServer(t)
	user := registerUser(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/admin/users", user.Tokens.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin route status = %d for USER", rec.Code)
	}
}

func TestAdminStats(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "a@example.com")

	// mint an admin token directly; registration never produces admins
	adminPair, err := srv.tokens.IssuePair(999, "admin@example.com", core.RoleAdmin)
	if err != nil {
		t.Fatalf("issue admin pair: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, "/admin/stats?startDate=2024-01-01&endDate=2024-01-31", adminPair.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin stats status = %d, body %s", rec.Code, rec.Body)
	}
	var stats []services.UserSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats for %d users, want 1", len(stats))
	}
}

func TestAdminUserSummary(t *testing.T) {
	srv := newTestServer(t)
	user := registerUser(t, srv, "a@example.com")

	adminPair, err := srv.tokens.IssuePair(999, "admin@example.com", core.RoleAdmin)
	if err != nil {
		t.Fatalf("issue admin pair: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/admin/users/%d/summary", user.User.ID), adminPair.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %s", rec.Code, rec.Body)
	}
	var summary services.UserSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.User.Email != "a@example.com" {
		t.Fatalf("summary user = %+v", summary.User)
	}

	rec = doJSON(t, srv, http.MethodGet, "/admin/users/9999/summary", adminPair.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing user status = %d", rec.Code)
	}
}

func TestRateLimitOnMutatingRequests(t *testing.T) {
	srv := newTestServer(t)
	srv.rateLimiter = newRateLimiter(2)
	t.Cleanup(srv.rateLimiter.stop)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{}`))
		req.Header.Set("X-Real-IP", "10.0.0.1")
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}

	// reads are never rate limited
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("read status = %d", rec.Code)
	}
}
