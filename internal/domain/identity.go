package domain

import (
	"strings"
	"time"
)

// FieldIdentityID is the identity key attribute, as it appears in stored items
// and change-feed keys.
const FieldIdentityID = "identity_id"

// EmailClaimPrefix marks the item that reserves an email for exactly one
// identity. Claim items live beside identities but are not identities.
const EmailClaimPrefix = "email#"

func EmailClaimKey(email string) string { return EmailClaimPrefix + email }

func IsEmailClaim(key string) bool { return strings.HasPrefix(key, EmailClaimPrefix) }

// Identity is the identity-provider record for a user.
// PK: identity_id. GSI: email-index. Each identity has an email claim item.
type Identity struct {
	IdentityID string    `json:"id" dynamodbav:"identity_id"`
	Email      string    `json:"email" dynamodbav:"email"`
	Disabled   bool      `json:"disabled" dynamodbav:"disabled"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}
