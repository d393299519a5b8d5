package id

import (
	"crypto/rand"
	"strings"

	"github.com/oklog/ulid/v2"
)

// generatedUsernamePrefix marks usernames the service made up for accounts
// registered by email or phone.
const generatedUsernamePrefix = "m_"

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewUsername returns a time-derived username that is unique across processes.
func NewUsername() string {
	return generatedUsernamePrefix + strings.ToLower(New())
}
