// Package http exposes the REST API. Handlers stay thin: they parse the
// request, call one service method and translate the result or error.
package http

import (
	"net/http"
	"time"

	"tiffin/internal/auth"
	"tiffin/internal/cache"
	"tiffin/internal/services"
)

type Server struct {
	http.Server

	authSvc  *services.AuthService
	userSvc  *services.UserService
	priceSvc *services.PriceService
	mealSvc  *services.MealService
	dashSvc  *services.DashboardService
	adminSvc *services.AdminService

	tokens      *auth.TokenManager
	rateLimiter *rateLimiter

	// dashboard responses are cached per user and invalidated by version
	// bump on every meal or price write
	dashCache    *cache.LRU[any]
	dashVersions *cache.Versions
}

type Options struct {
	Addr               string
	RateLimitPerMinute int
	DashboardCacheTTL  time.Duration
}

func NewServer(opts Options,
	authSvc *services.AuthService,
	userSvc *services.UserService,
	priceSvc *services.PriceService,
	mealSvc *services.MealService,
	dashSvc *services.DashboardService,
	adminSvc *services.AdminService,
	tokens *auth.TokenManager,
) *Server {
	mux := http.NewServeMux()

	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}
	if opts.DashboardCacheTTL <= 0 {
		opts.DashboardCacheTTL = 30 * time.Second
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		authSvc:      authSvc,
		userSvc:      userSvc,
		priceSvc:     priceSvc,
		mealSvc:      mealSvc,
		dashSvc:      dashSvc,
		adminSvc:     adminSvc,
		tokens:       tokens,
		rateLimiter:  newRateLimiter(opts.RateLimitPerMinute),
		dashCache:    cache.NewLRU[any](500, opts.DashboardCacheTTL),
		dashVersions: cache.NewVersions(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /auth/register", s.with(s.handleRegister))
	mux.HandleFunc("POST /auth/login", s.with(s.handleLogin))
	mux.HandleFunc("POST /auth/refresh", s.with(s.handleRefresh))

	mux.HandleFunc("GET /me", s.with(s.requireAuth(s.handleProfile)))
	mux.HandleFunc("PATCH /me", s.with(s.requireAuth(s.handleUpdateProfile)))

	mux.HandleFunc("GET /prices", s.with(s.requireAuth(s.handleGetPrices)))
	mux.HandleFunc("PATCH /prices", s.with(s.requireAuth(s.handleUpdatePrices)))

	mux.HandleFunc("POST /meals", s.with(s.requireAuth(s.handleCreateMeal)))
	mux.HandleFunc("GET /meals", s.with(s.requireAuth(s.handleListMeals)))
	mux.HandleFunc("POST /meals/bulk", s.with(s.requireAuth(s.handleBulkCreate)))
	mux.HandleFunc("PATCH /meals/bulk", s.with(s.requireAuth(s.handleBulkUpdate)))
	mux.HandleFunc("DELETE /meals/bulk", s.with(s.requireAuth(s.handleBulkCancel)))
	mux.HandleFunc("GET /meals/calendar", s.with(s.requireAuth(s.handleCalendar)))
	mux.HandleFunc("PATCH /meals/{id}", s.with(s.requireAuth(s.handleUpdateMeal)))
	mux.HandleFunc("DELETE /meals/{id}", s.with(s.requireAuth(s.handleCancelMeal)))

	mux.HandleFunc("GET /dashboard/overview", s.with(s.requireAuth(s.handleOverview)))
	mux.HandleFunc("GET /dashboard/monthly", s.with(s.requireAuth(s.handleMonthly)))
	mux.HandleFunc("GET /dashboard/weekly", s.with(s.requireAuth(s.handleWeekly)))

	mux.HandleFunc("GET /admin/users", s.with(s.requireAdmin(s.handleAdminListUsers)))
	mux.HandleFunc("GET /admin/users/{id}/summary", s.with(s.requireAdmin(s.handleAdminUserSummary)))
	mux.HandleFunc("GET /admin/stats", s.with(s.requireAdmin(s.handleAdminStats)))

	return s
}

// invalidateDashboards drops every cached dashboard view for the user.
func (s *Server) invalidateDashboards(userID int64) {
	s.dashVersions.Bump(userID)
}

func (s *Server) Stop() {
	s.rateLimiter.stop()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// principalFrom returns the request's authenticated principal. Only reachable
// behind requireAuth, so absence is a programming error handled as 500.
func principalFrom(r *http.Request) (auth.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(auth.Principal)
	return p, ok
}
