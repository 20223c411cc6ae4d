package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/alextreichler/orderdesk/internal/models"
	"github.com/alextreichler/orderdesk/internal/orders"
)

// OrderService is the order intake and lookup API the handlers depend on.
type OrderService interface {
	Submit(ctx context.Context, sub orders.Submission) (*orders.SubmitResult, error)
	List(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	Delete(ctx context.Context, id string) (bool, error)
}

var _ OrderService = (*orders.Service)(nil)

type OrderHandler struct {
	Orders    OrderService
	Templates *TemplateCache
}

func (h *OrderHandler) Form(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Templates, "requestform.html", http.StatusOK, map[string]any{
		"Form": orders.Submission{},
	})
}

func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	sub := submissionFromForm(r.PostForm)

	res, err := h.Orders.Submit(r.Context(), sub)
	var violations orders.Violations
	switch {
	case errors.As(err, &violations):
		render(w, r, h.Templates, "requestform.html", http.StatusOK, map[string]any{
			"Errors": violations,
			"Form":   sub,
		})
		return
	case err != nil:
		serverError(w, r, h.Templates, "Failed to submit order", err)
		return
	}

	if res.Order != nil {
		zctx.From(r.Context()).Info("Order created",
			zap.String("order_id", res.Order.ID),
			zap.String("amount_after_tax", res.Order.AmountAfterTax.StringFixed(2)),
		)
	}
	render(w, r, h.Templates, "requestthanks.html", http.StatusOK, map[string]any{
		"Order": res.Order,
	})
}

// Details shows one order, or the not-found page.
func (h *OrderHandler) Details(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	order, err := h.Orders.Get(r.Context(), id)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		render(w, r, h.Templates, "notfound.html", http.StatusNotFound, map[string]any{"ID": id})
		return
	case err != nil:
		serverError(w, r, h.Templates, "Failed to get order", err)
		return
	}
	render(w, r, h.Templates, "product.html", http.StatusOK, map[string]any{"Order": order})
}

// Delete renders the same confirmation whether or not the order existed.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := h.Orders.Delete(r.Context(), id)
	if err != nil {
		serverError(w, r, h.Templates, "Failed to delete order", err)
		return
	}
	zctx.From(r.Context()).Info("Order delete",
		zap.String("order_id", id),
		zap.Bool("deleted", deleted),
		zap.String("admin", SessionFrom(r.Context()).Username),
	)
	render(w, r, h.Templates, "delete.html", http.StatusOK, nil)
}

func (h *OrderHandler) EditThanks(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Templates, "edit-thanks.html", http.StatusOK, nil)
}

func submissionFromForm(form url.Values) orders.Submission {
	field := func(key string) orders.Field {
		_, ok := form[key]
		return orders.Field{Value: form.Get(key), Present: ok}
	}
	return orders.Submission{
		Name:       form.Get("name"),
		Email:      form.Get("email"),
		CustomerID: form.Get("customerId"),
		Product1:   field("product1"),
		Product2:   field("product2"),
		Product3:   field("product3"),
	}
}
