package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-otp-auth/internal/domain"
)

// Service drives the two-step passcode flow: BeginAuth resolves or registers
// the account and issues a code plus correlation token, CheckOtp redeems them.
type Service interface {
	BeginAuth(ctx context.Context, req domain.AuthRequest) (*domain.AuthResult, error)
	CheckOtp(ctx context.Context, token, code string) (*domain.Account, error)
}

type identityNormalizer interface {
	Normalize(method domain.Method, raw string) (string, error)
}

type accountResolver interface {
	Find(ctx context.Context, method domain.Method, identifier string) (*domain.Account, error)
	Create(ctx context.Context, method domain.Method, identifier string) (*domain.Account, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	MarkVerified(ctx context.Context, accountID string) error
}

type otpIssuer interface {
	Issue(ctx context.Context, accountID string) (*domain.OneTimePasscode, error)
	Verify(ctx context.Context, accountID, code string) error
}

type tokenService interface {
	Issue(accountID string) (string, error)
	Verify(token string) (string, error)
}

type codeSender interface {
	Send(ctx context.Context, method domain.Method, address, code string)
}

type ServiceDeps struct {
	Normalizer identityNormalizer
	Accounts   accountResolver
	OTPs       otpIssuer
	Tokens     tokenService
	Delivery   codeSender
}

type service struct {
	normalizer identityNormalizer
	accounts   accountResolver
	otps       otpIssuer
	tokens     tokenService
	delivery   codeSender
}

func NewService(deps ServiceDeps) Service {
	return &service{
		normalizer: deps.Normalizer,
		accounts:   deps.Accounts,
		otps:       deps.OTPs,
		tokens:     deps.Tokens,
		delivery:   deps.Delivery,
	}
}

// BeginAuth validates the identifier, then logs in or registers depending on
// req.Type. Every rejection happens before anything is written.
func (s *service) BeginAuth(ctx context.Context, req domain.AuthRequest) (*domain.AuthResult, error) {
	method, err := domain.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	identifier, err := s.normalizer.Normalize(method, req.Username)
	if err != nil {
		return nil, err
	}
	authType, err := domain.ParseAuthType(req.Type)
	if err != nil {
		return nil, err
	}

	var acc *domain.Account
	switch authType {
	case domain.AuthTypeLogin:
		acc, err = s.login(ctx, method, identifier)
	case domain.AuthTypeRegister:
		acc, err = s.register(ctx, method, identifier)
	default:
		err = fmt.Errorf("auth type %q: %w", authType, domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, acc, method, authType)
}

func (s *service) login(ctx context.Context, method domain.Method, identifier string) (*domain.Account, error) {
	acc, err := s.accounts.Find(ctx, method, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no account for %s: %w", method, domain.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acc, nil
}

func (s *service) register(ctx context.Context, method domain.Method, identifier string) (*domain.Account, error) {
	_, err := s.accounts.Find(ctx, method, identifier)
	if err == nil {
		return nil, fmt.Errorf("%s already registered: %w", method, domain.ErrAccountAlreadyExists)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if !method.IsContact() {
		return nil, fmt.Errorf("%s cannot register: %w", method, domain.ErrInvalidRegisterData)
	}

	acc, err := s.accounts.Create(ctx, method, identifier)
	if errors.Is(err, domain.ErrDuplicateAccount) {
		// Lost the race between Find and Create to an identical request.
		return nil, fmt.Errorf("%w: %w", domain.ErrAccountAlreadyExists, err)
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	slog.Info("account registered", "account_id", acc.AccountID, "method", method)
	return acc, nil
}

func (s *service) issue(ctx context.Context, acc *domain.Account, method domain.Method, authType domain.AuthType) (*domain.AuthResult, error) {
	token, err := s.tokens.Issue(acc.AccountID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	otp, err := s.otps.Issue(ctx, acc.AccountID)
	if err != nil {
		return nil, err
	}

	channel, address := method, acc.Identifier(method)
	if !method.IsContact() {
		var ok bool
		if channel, address, ok = acc.ContactAddress(); !ok {
			slog.Warn("account has no contact address, otp not delivered", "account_id", acc.AccountID)
		}
	}
	if address != "" {
		s.delivery.Send(ctx, channel, address, otp.Code)
	}

	slog.Info("otp issued", "account_id", acc.AccountID, "type", authType, "method", method)
	return &domain.AuthResult{
		Code:      otp.Code,
		Token:     token,
		ExpiresAt: otp.ExpiresTime(),
		Account:   acc,
	}, nil
}

// CheckOtp resolves the account from token and redeems code for it.
// A redeemed code cannot be used again, and a code stops accepting guesses
// once its attempts are spent.
func (s *service) CheckOtp(ctx context.Context, token, code string) (*domain.Account, error) {
	accountID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if err := s.otps.Verify(ctx, accountID, code); err != nil {
		if !errors.Is(err, domain.ErrOtpMismatch) && !errors.Is(err, domain.ErrOtpExpired) {
			return nil, fmt.Errorf("verify otp: %w", err)
		}
		slog.Info("otp rejected", "account_id", accountID, "err", err)
		return nil, err
	}
	// The code is already consumed; a failed stamp is logged, not returned.
	if err := s.accounts.MarkVerified(ctx, accountID); err != nil {
		slog.Error("mark account verified", "account_id", accountID, "err", err)
	}
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	slog.Info("otp verified", "account_id", accountID)
	return acc, nil
}
