package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/signaldesk/signaldesk/internal/auth"
)

// RouterDeps holds everything SetupRoutes wires into the mux.
type RouterDeps struct {
	Handler        *Handler
	Sessions       SessionRegistry
	Authenticator  *auth.Authenticator
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, deps RouterDeps) {
	h := deps.Handler
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	timeout := func(next http.HandlerFunc) http.Handler {
		return withTimeout(deps.RequestTimeout, next)
	}

	mux.HandleFunc("GET /healthz", h.Healthz)

	// Public read routes
	mux.Handle("GET /api/analysis", cors(timeout(h.GetAnalysis)))
	mux.Handle("GET /api/sentiment", cors(timeout(h.GetSentiment)))
	mux.Handle("GET /api/coins", cors(timeout(h.GetCoins)))
	mux.Handle("GET /api/search", cors(timeout(h.SearchCoins)))
	mux.Handle("GET /api/coin-details", cors(timeout(h.GetCoinDetails)))
	mux.Handle("GET /api/coins-by-category", cors(timeout(h.GetCoinsByCategory)))
	mux.Handle("POST /api/similar-by-category", cors(timeout(h.SimilarByCategory)))
	mux.Handle("GET /api/health", cors(timeout(h.GetHealth)))
	mux.Handle("OPTIONS /api/", cors(http.NotFoundHandler()))

	if deps.Authenticator == nil {
		deps.Logger.Warn("admin routes disabled: no JWT secret configured")
		return
	}

	authHandler := NewAuthHandler(deps.Authenticator, deps.Logger)
	adminHandler := NewAdminHandler(deps.Sessions, h.health, deps.Logger)
	protected := func(next http.HandlerFunc) http.Handler {
		return deps.Authenticator.Middleware(timeout(next))
	}

	mux.Handle("POST /api/auth/login", cors(http.HandlerFunc(authHandler.Login)))
	mux.Handle("GET /api/auth/validate", protected(authHandler.ValidateToken))

	// Admin routes (protected)
	mux.Handle("GET /api/admin/sessions", protected(adminHandler.ListSessions))
	mux.Handle("POST /api/admin/sessions/{provider}/reset", protected(adminHandler.ResetSession))
	mux.Handle("GET /api/admin/sessions/{provider}/tools", protected(adminHandler.ListTools))
	mux.Handle("POST /api/admin/health/check", protected(adminHandler.CheckHealth))
}

// cors sets permissive CORS headers and answers preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withTimeout bounds the request context. Non-positive durations disable it.
func withTimeout(d time.Duration, next http.HandlerFunc) http.Handler {
	if d <= 0 {
		return next
	}
	return http.TimeoutHandler(next, d, `{"success":false,"error":"request timed out"}`)
}
