package domain

import "time"

// OneTimePasscode is the single live passcode for an email address.
// PK: email. TTL is a Unix timestamp so DynamoDB can reap stale rows;
// verification never relies on the reaper and compares Expires itself.
type OneTimePasscode struct {
	Email   string    `json:"email" dynamodbav:"email"`
	Code    string    `json:"otp" dynamodbav:"otp"`
	Expires time.Time `json:"expires" dynamodbav:"expires"`
	TTL     int64     `json:"-" dynamodbav:"ttl"`
}

// Expired reports whether the passcode expired strictly before now.
func (p *OneTimePasscode) Expired(now time.Time) bool {
	return p.Expires.Before(now)
}
