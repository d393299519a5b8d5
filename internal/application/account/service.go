package account

import (
	"context"
	"fmt"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/id"
)

// Resolver finds and creates accounts by login identifier.
type Resolver interface {
	Find(ctx context.Context, method domain.Method, identifier string) (*domain.Account, error)
	Create(ctx context.Context, method domain.Method, identifier string) (*domain.Account, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	MarkVerified(ctx context.Context, accountID string) error
}

type accountStore interface {
	FindBy(ctx context.Context, method domain.Method, value string) (*domain.Account, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	MarkVerified(ctx context.Context, accountID string, at time.Time) error
}

type service struct {
	repo accountStore
	now  func() time.Time
}

func NewService(repo accountStore) Resolver {
	return &service{repo: repo, now: time.Now}
}

// Find returns domain.ErrNotFound when no account owns identifier.
func (s *service) Find(ctx context.Context, method domain.Method, identifier string) (*domain.Account, error) {
	return s.repo.FindBy(ctx, method, identifier)
}

func (s *service) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.Get(ctx, accountID)
}

// Create registers an account reachable through identifier. Only contact
// methods can register; the username is generated.
func (s *service) Create(ctx context.Context, method domain.Method, identifier string) (*domain.Account, error) {
	now := s.now().UTC()
	a := &domain.Account{
		AccountID: id.New(),
		Username:  id.NewUsername(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch method {
	case domain.MethodEmail:
		a.Email = &identifier
	case domain.MethodPhone:
		a.Phone = &identifier
	case domain.MethodUsername:
		return nil, fmt.Errorf("username cannot register without a contact method: %w", domain.ErrInvalidRegisterData)
	default:
		return nil, fmt.Errorf("method %q: %w", method, domain.ErrUnsupportedMethod)
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) MarkVerified(ctx context.Context, accountID string) error {
	return s.repo.MarkVerified(ctx, accountID, s.now())
}
