package dynamo

import "github.com/turo-backend/internal/domain"

// DynamoDB attribute names used in key and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	keyEmail      = "email"
	keyIdentityID = domain.FieldIdentityID
	keyUserID     = "user_id"
	keyStatID     = "stat_id"
	keyDate       = "date"
	keyActivityID = "activity_id"

	fieldOwnerID            = "owner_id"
	fieldDisabled           = "disabled"
	fieldUpdatedAt          = "updated_at"
	fieldCreatedAt          = "created_at"
	fieldIsActive           = "is_active"
	fieldCredentials        = "credentials"
	fieldAchievements       = "achievements"
	fieldTotalUsers         = "total_users"
	fieldNewUsers24h        = "new_users_24h"
	fieldLastUpdated        = "last_updated"
	fieldTotalRegistrations = "total_registrations"
)

// emailIndex is the identities GSI used for lookup-by-email.
const emailIndex = "email-index"

// maxTransactItems is the DynamoDB limit on actions in one TransactWriteItems call.
const maxTransactItems = 100
