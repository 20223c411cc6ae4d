package handlers

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	sessionName     = "admin-session"
	keyLoggedIn     = "logged_in"
	keyUsername     = "username"
	loginPath       = "/admin-login"
	adminSessionTTL = 8 * 60 * 60
)

// AdminSession is the per-browser login state. The zero value is anonymous.
type AdminSession struct {
	LoggedIn bool
	Username string
}

type sessionKey struct{}

// SessionFrom returns the session state loaded for this request.
func SessionFrom(ctx context.Context) AdminSession {
	s, _ := ctx.Value(sessionKey{}).(AdminSession)
	return s
}

func withSession(ctx context.Context, s AdminSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionGate reads and writes the admin session cookie.
type SessionGate struct {
	Store sessions.Store
}

// Load decodes the session cookie once and stores the state in the request
// context. Undecodable cookies are treated as anonymous.
func (g *SessionGate) Load() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var state AdminSession
			session, err := g.Store.Get(r, sessionName)
			if err != nil {
				zctx.From(r.Context()).Debug("Discarding unreadable session", zap.Error(err))
			} else {
				state.LoggedIn, _ = session.Values[keyLoggedIn].(bool)
				state.Username, _ = session.Values[keyUsername].(string)
				if !state.LoggedIn {
					state.Username = ""
				}
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), state)))
		})
	}
}

// RequireAdmin redirects anonymous requests to the login page.
func (g *SessionGate) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).LoggedIn {
			zctx.From(r.Context()).Debug("Anonymous request to admin view", zap.String("path", r.URL.Path))
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// Login marks the session authenticated and returns a request carrying the
// new state.
func (g *SessionGate) Login(w http.ResponseWriter, r *http.Request, username string) (*http.Request, error) {
	session, _ := g.Store.Get(r, sessionName)
	session.Values[keyLoggedIn] = true
	session.Values[keyUsername] = username
	session.Options.Path = "/"
	session.Options.MaxAge = adminSessionTTL
	if err := session.Save(r, w); err != nil {
		return r, errors.Wrap(err, "save session")
	}
	state := AdminSession{LoggedIn: true, Username: username}
	return r.WithContext(withSession(r.Context(), state)), nil
}

// Logout resets the session and expires the cookie.
func (g *SessionGate) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := g.Store.Get(r, sessionName)
	session.Values[keyLoggedIn] = false
	session.Values[keyUsername] = ""
	session.Options.Path = "/"
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return errors.Wrap(err, "save session")
	}
	return nil
}
