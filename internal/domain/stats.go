package domain

import "time"

// DashboardCountersID is the key of the singleton counters document in sys_stats.
const DashboardCountersID = "dashboard_counters"

// DashboardCounters is sys_stats/dashboard_counters.
type DashboardCounters struct {
	StatID       string    `json:"id" dynamodbav:"stat_id"`
	TotalUsers   int64     `json:"total_users" dynamodbav:"total_users"`
	NewUsers24h  int64     `json:"new_users_24h" dynamodbav:"new_users_24h"`
	TotalMentors int64     `json:"total_mentors" dynamodbav:"total_mentors"`
	TotalMentees int64     `json:"total_mentees" dynamodbav:"total_mentees"`
	LastUpdated  time.Time `json:"last_updated" dynamodbav:"last_updated"`
}

// DailyStatsBucket is daily_stats/{YYYY-MM-DD}, keyed by UTC calendar day.
type DailyStatsBucket struct {
	Date               string `json:"date" dynamodbav:"date"`
	TotalRegistrations int64  `json:"total_registrations" dynamodbav:"total_registrations"`
	NewMentors         int64  `json:"new_mentors" dynamodbav:"new_mentors"`
	NewMentees         int64  `json:"new_mentees" dynamodbav:"new_mentees"`
}

// DateKey formats t as the UTC day key used by daily_stats.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
