package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/token"
)

const (
	// CodeLength is the number of digits of an issued passcode.
	CodeLength = 5
	// DefaultTTL is how long a passcode stays live.
	DefaultTTL = 2 * time.Minute
	// DefaultMaxAttempts is how many codes may be tried against one passcode.
	DefaultMaxAttempts = 5
)

// Issuer creates and checks the single live passcode of an account.
type Issuer interface {
	Issue(ctx context.Context, accountID string) (*domain.OneTimePasscode, error)
	Verify(ctx context.Context, accountID, code string) error
}

type otpStore interface {
	Upsert(ctx context.Context, accountID, code string, expiresAt int64) (*domain.OneTimePasscode, error)
	Attempt(ctx context.Context, accountID string, maxAttempts int) (*domain.OneTimePasscode, error)
	Consume(ctx context.Context, accountID, code string, now int64) error
	Delete(ctx context.Context, accountID string) error
}

type service struct {
	repo        otpStore
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	newCode     func() (string, error)
}

func NewService(repo otpStore, ttl time.Duration, maxAttempts int) Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &service{
		repo:        repo,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
		newCode: func() (string, error) {
			return token.NewNumericCode(CodeLength)
		},
	}
}

// Issue replaces any existing passcode of accountID with a fresh one.
func (s *service) Issue(ctx context.Context, accountID string) (*domain.OneTimePasscode, error) {
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(s.ttl).Unix()
	o, err := s.repo.Upsert(ctx, accountID, code, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	slog.Debug("otp issued", "account_id", accountID, "expires_at", expiresAt)
	return o, nil
}

// Verify consumes the passcode when code matches and it is still live.
// Every call spends one attempt before the comparison; once maxAttempts are
// spent the passcode is deleted and the account needs a new one.
func (s *service) Verify(ctx context.Context, accountID, code string) error {
	o, err := s.repo.Attempt(ctx, accountID, s.maxAttempts)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no live otp: %w", domain.ErrOtpExpired)
	}
	if err != nil {
		return err
	}
	now := s.now()
	if o.Expired(now) {
		return fmt.Errorf("otp expired at %s: %w", o.ExpiresTime().Format(time.RFC3339), domain.ErrOtpExpired)
	}
	if subtle.ConstantTimeCompare([]byte(o.Code), []byte(code)) != 1 {
		if o.Attempts >= s.maxAttempts {
			slog.Warn("otp attempts exhausted", "account_id", accountID, "attempts", o.Attempts)
			if err := s.repo.Delete(ctx, accountID); err != nil {
				slog.Error("delete exhausted otp", "account_id", accountID, "err", err)
			}
		}
		return fmt.Errorf("invalid otp: %w", domain.ErrOtpMismatch)
	}
	// Lost race with a concurrent verify or a re-issue: treat as no live code.
	if err := s.repo.Consume(ctx, accountID, code, now.Unix()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("otp no longer live: %w", domain.ErrOtpExpired)
		}
		return err
	}
	return nil
}
