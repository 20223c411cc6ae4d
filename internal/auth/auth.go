package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/alextreichler/orderdesk/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminExists        = errors.New("admin already exists")
	ErrEmptyCredentials   = errors.New("username and password are required")
)

// AdminRepository is the persistence the authenticator needs.
type AdminRepository interface {
	// GetAdminByUsername returns nil, nil when no admin has that username.
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	// CreateAdmin returns ErrAdminExists on a duplicate username.
	CreateAdmin(ctx context.Context, admin *models.Admin) error
}

type Authenticator struct {
	repo AdminRepository
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

type Option func(*Authenticator)

// WithCost overrides the bcrypt cost used for new hashes.
func WithCost(cost int) Option {
	return func(a *Authenticator) { a.cost = cost }
}

func New(repo AdminRepository, opts ...Option) *Authenticator {
	a := &Authenticator{repo: repo, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Verify checks username and password. Unknown usernames and wrong passwords
// both return ErrInvalidCredentials after a full bcrypt comparison.
func (a *Authenticator) Verify(ctx context.Context, username, password string) (*models.Admin, error) {
	admin, err := a.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "get admin")
	}

	hash := a.dummy()
	if admin != nil {
		hash = []byte(admin.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || admin == nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// Provision hashes password and stores a new admin.
func (a *Authenticator) Provision(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	admin := &models.Admin{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.repo.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, ErrAdminExists) {
			return nil, ErrAdminExists
		}
		return nil, errors.Wrap(err, "create admin")
	}
	return admin, nil
}

func (a *Authenticator) dummy() []byte {
	a.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("orderdesk-dummy-password"), a.cost)
		if err != nil {
			panic(err)
		}
		a.dummyHash = h
	})
	return a.dummyHash
}
