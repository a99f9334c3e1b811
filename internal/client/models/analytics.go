package models

type MethodCount struct {
	VerificationMethod string `json:"verification_method"`
	Count              int64  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Analytics is the aggregate returned by GET /api/analytics.
type Analytics struct {
	TotalVerifications  int64         `json:"total_verifications"`
	RecentVerifications int64         `json:"recent_verifications"`
	WeeklyVerifications int64         `json:"weekly_verifications"`
	TotalUsers          int64         `json:"total_users"`
	VerificationMethods []MethodCount `json:"verification_methods"`
	DailyVerifications  []DailyCount  `json:"daily_verifications"`
}

// Activity is a single audit log row.
type Activity struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	ActivityData *string   `json:"activity_data"`
	CreatedAt    Timestamp `json:"created_at"`
	Username     string    `json:"username"`
}

type ActivityList struct {
	Activities []Activity `json:"activities"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}
