package orders

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/alextreichler/orderdesk/internal/models"
)

// ErrNotFound is returned by repositories when no order has the given id.
var ErrNotFound = errors.New("order not found")

// Repository defines persistence operations for orders.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	// ListOrders returns every order, oldest first.
	ListOrders(ctx context.Context) ([]models.Order, error)
	// GetOrder returns ErrNotFound when id matches nothing.
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// DeleteOrder reports whether a row was removed. A missing id is not an error.
	DeleteOrder(ctx context.Context, id string) (bool, error)
}

// SubmitResult is the outcome of an accepted submission. Order is nil when
// the form carried no product fields; nothing is stored in that case.
type SubmitResult struct {
	Order *models.Order
}

// Service encapsulates order intake and admin lookups.
type Service struct {
	repo      Repository
	validator *Validator
	now       func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		validator: NewValidator(),
		now:       time.Now,
	}
}

// Submit validates s and, when at least one product field is present, prices
// and persists a new order. Rejected submissions return Violations.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	q, violations := s.validator.Validate(sub)
	if len(violations) > 0 {
		return nil, violations
	}

	// A form with every product field absent or blank is acknowledged but not stored.
	if !sub.HasProducts() {
		return &SubmitResult{}, nil
	}

	totals := Calculate(q)
	order := &models.Order{
		ID:              uuid.New().String(),
		Name:            sub.Name,
		Email:           sub.Email,
		CustomerID:      sub.CustomerID,
		Product1:        q.Product1,
		Product2:        q.Product2,
		Product3:        q.Product3,
		AmountBeforeTax: totals.BeforeTax,
		AmountAfterTax:  totals.AfterTax,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return &SubmitResult{Order: order}, nil
}

func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	list, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return order, nil
}

// Delete removes the order if it exists and reports whether it did.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		return false, errors.Wrap(err, "delete order")
	}
	return deleted, nil
}
