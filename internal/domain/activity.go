package domain

import "time"

// Activity event types written by administrative actions.
const (
	EventUserBanned   = "user_banned"
	EventUserUnbanned = "user_unbanned"
	EventUserDeleted  = "user_deleted"
)

// Activity is an append-only audit entry. PK: activity_id.
type Activity struct {
	ActivityID  string    `json:"id" dynamodbav:"activity_id"`
	EventType   string    `json:"event_type" dynamodbav:"event_type"`
	Description string    `json:"description" dynamodbav:"description"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	ActorID     string    `json:"actor_id" dynamodbav:"actor_id"`
	Timestamp   time.Time `json:"timestamp" dynamodbav:"timestamp"`
}
