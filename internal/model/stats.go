package model

import "github.com/shopspring/decimal"

// AnonymousUserID groups expenses that carry no owner (legacy file data).
const AnonymousUserID = "anonymous"

// DefaultCategory groups expenses with an empty category in stats.
const DefaultCategory = "Other"

// LeaderboardEntry is one ranked row of GET /api/leaderboard
type LeaderboardEntry struct {
	UserID      string          `json:"userId"`
	Username    string          `json:"username"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// UserTotals is the per-user breakdown inside Stats.
type UserTotals struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Stats represents the admin statistics over every expense
type Stats struct {
	TotalExpenses  int                        `json:"totalExpenses"`
	TotalAmount    decimal.Decimal            `json:"totalAmount"`
	AverageAmount  decimal.Decimal            `json:"averageAmount"`
	ByCategory     map[string]decimal.Decimal `json:"byCategory"`
	ByUser         map[string]UserTotals      `json:"byUser"`
	RecentExpenses []Expense                  `json:"recentExpenses"`
}
