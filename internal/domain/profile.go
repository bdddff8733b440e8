package domain

import "time"

// Document attribute names shared by the three profile layers.
// Layer 1 (public): users/{id}. Layer 2 (private): user_details/{id}.
// Layer 3 (admin): mentor_verifications/{id}.
const (
	FieldUserID            = "user_id"
	FieldRoles             = "roles"
	FieldRole              = "role"
	FieldIsActive          = "is_active"
	FieldProfilePictureURL = "profile_picture_url"
	FieldCreatedAt         = "created_at"
	FieldUpdatedAt         = "updated_at"
)

// VerificationStatusPending is forced on every profile save.
const VerificationStatusPending = "pending"

// Document is a schemaless profile document as supplied by the client.
type Document map[string]interface{}

// Certificate is one credential or achievement entry on the verification record.
// Two entries are the same entry only when every field matches exactly.
type Certificate struct {
	Title          *string `json:"title" dynamodbav:"title"`
	Year           *string `json:"year" dynamodbav:"year"`
	CertificateURL *string `json:"certificateUrl,omitempty" dynamodbav:"certificateUrl,omitempty"`
}

// MentorVerification is the extended verification record (layer 3).
// Credentials and Achievements only ever grow; see the dynamo profile repo.
type MentorVerification struct {
	UserID             string        `json:"user_id" dynamodbav:"user_id"`
	IDType             *string       `json:"id_type" dynamodbav:"id_type"`
	IDFileName         *string       `json:"id_file_name" dynamodbav:"id_file_name"`
	IDFileURL          *string       `json:"id_file_url" dynamodbav:"id_file_url"`
	SelfieURL          *string       `json:"selfie_url" dynamodbav:"selfie_url"`
	VerificationStatus string        `json:"verification_status" dynamodbav:"verification_status"`
	InstitutionalEmail *string       `json:"institutional_email" dynamodbav:"institutional_email"`
	Credentials        []Certificate `json:"credentials,omitempty" dynamodbav:"-"`
	Achievements       []Certificate `json:"achievements,omitempty" dynamodbav:"-"`
	UpdatedAt          time.Time     `json:"updated_at" dynamodbav:"updated_at"`
}

// ProfileWrite is the atomic three-document write produced by one profile save.
// Public and Private are merged attribute by attribute; Verification is merged
// and its certificate lists are union-appended.
type ProfileWrite struct {
	UserID       string
	Public       Document
	Private      Document
	Verification MentorVerification
}

// PublicProfile is the subset of users/{id} read back by the server.
type PublicProfile struct {
	UserID   string   `json:"user_id" dynamodbav:"user_id"`
	Roles    []string `json:"roles" dynamodbav:"roles"`
	IsActive *bool    `json:"is_active" dynamodbav:"is_active"`
}

// HasRole reports whether role appears in the profile's role list.
func (p *PublicProfile) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TimestampBackfill marks which timestamps a public profile is missing.
type TimestampBackfill struct {
	UserID     string
	SetCreated bool
	SetUpdated bool
}
