package domain

import "time"

// OneTimePasscode is the single live code of an account.
// PK: account_id. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OneTimePasscode struct {
	AccountID string `json:"account_id" dynamodbav:"account_id"`
	Code      string `json:"-" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Attempts  int    `json:"-" dynamodbav:"attempts"`             // verifications tried against Code
}

func (o *OneTimePasscode) Expired(now time.Time) bool {
	return now.Unix() >= o.ExpiresAt
}

func (o *OneTimePasscode) ExpiresTime() time.Time {
	return time.Unix(o.ExpiresAt, 0).UTC()
}
