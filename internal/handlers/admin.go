package handlers

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/alextreichler/orderdesk/internal/auth"
	"github.com/alextreichler/orderdesk/internal/models"
)

const loginFailedMessage = "Login details not correct"

// Authenticator verifies admin credentials.
type Authenticator interface {
	Verify(ctx context.Context, username, password string) (*models.Admin, error)
}

var _ Authenticator = (*auth.Authenticator)(nil)

type AdminHandler struct {
	Auth      Authenticator
	Orders    OrderService
	Sessions  *SessionGate
	Templates *TemplateCache
}

func (h *AdminHandler) LoginGet(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Templates, "login.html", http.StatusOK, nil)
}

// LoginPost authenticates the session and answers with the order listing.
func (h *AdminHandler) LoginPost(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	admin, err := h.Auth.Verify(r.Context(), username, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		lg.Info("Login failed", zap.String("username", username))
		render(w, r, h.Templates, "login.html", http.StatusOK, map[string]any{
			"Error":    loginFailedMessage,
			"Username": username,
		})
		return
	case err != nil:
		serverError(w, r, h.Templates, "Failed to verify credentials", err)
		return
	}

	r, err = h.Sessions.Login(w, r, admin.Username)
	if err != nil {
		serverError(w, r, h.Templates, "Failed to save session", err)
		return
	}
	lg.Info("Login successful", zap.String("username", admin.Username))
	h.listOrders(w, r)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(w, r); err != nil {
		zctx.From(r.Context()).Error("Failed to reset session", zap.Error(err))
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// Home lists every order. Callers must be wrapped in RequireAdmin.
func (h *AdminHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.List(r.Context())
	if err != nil {
		serverError(w, r, h.Templates, "Failed to list orders", err)
		return
	}
	render(w, r, h.Templates, "admin-home.html", http.StatusOK, map[string]any{"Orders": list})
}
