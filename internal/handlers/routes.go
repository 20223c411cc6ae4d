package handlers

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// Deps is everything the router needs.
type Deps struct {
	Logger      *zap.Logger
	Orders      OrderService
	Auth        Authenticator
	Health      Pinger
	Sessions    *SessionGate
	Templates   *TemplateCache
	Static      fs.FS
	RateLimiter *RateLimiter
	// CSRF is applied around the mux when set.
	CSRF Middleware
}

func NewRouter(d Deps) http.Handler {
	orderHandler := &OrderHandler{Orders: d.Orders, Templates: d.Templates}
	adminHandler := &AdminHandler{
		Auth:      d.Auth,
		Orders:    d.Orders,
		Sessions:  d.Sessions,
		Templates: d.Templates,
	}
	gate := d.Sessions.RequireAdmin
	limit := d.RateLimiter.Middleware

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(d.Static)))
	mux.Handle("GET /healthz", &HealthHandler{Store: d.Health})

	// Public routes
	mux.HandleFunc("GET /{$}", orderHandler.Form)
	mux.HandleFunc("POST /contact-form", limit(orderHandler.Submit))
	mux.HandleFunc("GET /edit-thanks", orderHandler.EditThanks)
	mux.HandleFunc("GET /admin-login", adminHandler.LoginGet)
	mux.HandleFunc("POST /loginForm", limit(adminHandler.LoginPost))
	mux.HandleFunc("GET /logout", adminHandler.Logout)

	// Protected routes
	mux.HandleFunc("GET /admin-home", gate(adminHandler.Home))
	mux.HandleFunc("GET /details/{id}", gate(orderHandler.Details))
	mux.HandleFunc("GET /delete/{id}", gate(orderHandler.Delete))

	var h http.Handler = mux
	if d.CSRF != nil {
		h = d.CSRF(h)
	}

	// Chain: RequestID -> Logger -> Recovery -> Access log -> Security headers -> Session -> [CSRF] -> Mux
	return Wrap(h,
		RequestID(),
		InjectLogger(d.Logger),
		Recovery(),
		LoggingMiddleware(),
		SecurityHeadersMiddleware(),
		d.Sessions.Load(),
	)
}

// CSRFProtect wraps gorilla/csrf. Plain HTTP deployments must pass
// secure=false so the origin check does not assume https.
func CSRFProtect(key []byte, secure bool, trustedOrigins []string) Middleware {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.TrustedOrigins(trustedOrigins),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
