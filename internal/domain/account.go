package domain

import "time"

// Account is an identity that can log in with an OTP.
// Exactly one of Email/Phone is set at creation; Username is always set.
type Account struct {
	AccountID  string     `json:"id" dynamodbav:"account_id"`
	Username   string     `json:"username" dynamodbav:"username"`
	Email      *string    `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Phone      *string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty" dynamodbav:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Identifier returns the account's value for the given method, or "" when unset.
func (a *Account) Identifier(m Method) string {
	switch m {
	case MethodEmail:
		if a.Email != nil {
			return *a.Email
		}
	case MethodPhone:
		if a.Phone != nil {
			return *a.Phone
		}
	case MethodUsername:
		return a.Username
	}
	return ""
}

// ContactAddress picks where an OTP for this account should go: email first, then phone.
func (a *Account) ContactAddress() (Method, string, bool) {
	if a.Email != nil && *a.Email != "" {
		return MethodEmail, *a.Email, true
	}
	if a.Phone != nil && *a.Phone != "" {
		return MethodPhone, *a.Phone, true
	}
	return "", "", false
}
