package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "otp-auth"
	audience = "check-otp"
)

// Claims holds the correlation token payload. The account id travels in sub.
type Claims struct {
	jwt.RegisteredClaims
}

// Provider signs and verifies the HS256 correlation tokens that tie a
// check-otp request back to the account of the preceding user-existence call.
// It holds no state besides the key and is safe for concurrent use.
type Provider struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewProvider(secret string, expiry time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("jwt expiry must be positive, got %s", expiry)
	}
	return &Provider{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Issue returns a signed token embedding accountID.
func (p *Provider) Issue(accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("jwt: empty account id")
	}
	now := p.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Verify checks signature, expiry, issuer and audience and returns the
// embedded account id. Every failure wraps domain.ErrInvalidOrExpiredToken.
func (p *Provider) Verify(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidOrExpiredToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token claims: %w", domain.ErrInvalidOrExpiredToken)
	}
	return claims.Subject, nil
}
