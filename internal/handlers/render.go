package handlers

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// render adds the values every page needs and writes the page. Failures are
// logged and answered with a bare 500.
func render(w http.ResponseWriter, r *http.Request, tc *TemplateCache, name string, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Session"] = SessionFrom(r.Context())
	data["CsrfField"] = csrf.TemplateField(r)
	data["RequestID"] = RequestIDFromContext(r.Context())

	if err := tc.Render(w, name, status, data); err != nil {
		zctx.From(r.Context()).Error("Failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// serverError logs err and renders the generic error page.
func serverError(w http.ResponseWriter, r *http.Request, tc *TemplateCache, msg string, err error) {
	zctx.From(r.Context()).Error(msg, zap.Error(err))
	render(w, r, tc, "error.html", http.StatusInternalServerError, nil)
}
