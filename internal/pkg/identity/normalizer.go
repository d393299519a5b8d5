// Package identity validates login identifiers against their claimed method
// and puts them in the canonical form used as storage keys.
package identity

import (
	"fmt"
	"strings"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/validate"
	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used to parse phone numbers written without a country code.
const DefaultRegion = "IR"

// Normalizer is safe for concurrent use.
type Normalizer struct {
	region string
}

func NewNormalizer(region string) *Normalizer {
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{region: strings.ToUpper(region)}
}

// Normalize returns the canonical identifier for method. E-mail addresses and
// usernames come back unchanged; phone numbers come back in E.164.
func (n *Normalizer) Normalize(method domain.Method, raw string) (string, error) {
	switch method {
	case domain.MethodEmail:
		if err := validate.Var(raw, "required,email"); err != nil {
			return "", fmt.Errorf("email format is invalid: %w", domain.ErrInvalidFormat)
		}
		return raw, nil
	case domain.MethodPhone:
		return n.phone(raw)
	case domain.MethodUsername:
		return raw, nil
	}
	return "", fmt.Errorf("username data is not valid: %w", domain.ErrUnsupportedMethod)
}

func (n *Normalizer) phone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, n.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("phone number is invalid: %w", domain.ErrInvalidFormat)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
