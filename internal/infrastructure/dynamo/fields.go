package dynamo

// DynamoDB attribute names used in keys, conditions and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldAccountID  = "account_id"
	fieldIdentifier = "identifier"
	fieldCode       = "code"
	fieldExpiresAt  = "expires_at"
	fieldAttempts   = "attempts"
	fieldVerifiedAt = "verified_at"
	fieldUpdatedAt  = "updated_at"
)
