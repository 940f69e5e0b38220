package service

import (
	"slices"

	"expense_tribute/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// LeaderboardSize is how many users GET /api/leaderboard returns.
	LeaderboardSize = 5
	// RecentExpensesLimit caps Stats.RecentExpenses.
	RecentExpensesLimit = 50
)

func ownerKey(userID string) string {
	if userID == "" {
		return model.AnonymousUserID
	}
	return userID
}

func fallbackUsername(userID string) string {
	if len(userID) > 6 {
		userID = userID[len(userID)-6:]
	}
	return "User " + userID
}

// BuildLeaderboard ranks users by total spend, highest first, keeping at most
// limit entries. Users with equal totals keep the order in which they first
// appear in expenses.
func BuildLeaderboard(users []model.User, expenses []model.Expense, limit int) []model.LeaderboardEntry {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	index := map[string]int{}
	entries := []model.LeaderboardEntry{}
	for _, e := range expenses {
		key := ownerKey(e.UserID)
		i, ok := index[key]
		if !ok {
			username, known := names[key]
			if !known {
				username = fallbackUsername(key)
			}
			i = len(entries)
			index[key] = i
			entries = append(entries, model.LeaderboardEntry{UserID: key, Username: username, TotalAmount: decimal.Zero})
		}
		entries[i].Count++
		entries[i].TotalAmount = entries[i].TotalAmount.Add(e.Amount)
	}

	slices.SortStableFunc(entries, func(a, b model.LeaderboardEntry) int {
		return b.TotalAmount.Cmp(a.TotalAmount)
	})
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// BuildStats summarizes every expense. The average is zero when there are none.
func BuildStats(expenses []model.Expense, recentLimit int) model.Stats {
	stats := model.Stats{
		TotalExpenses:  len(expenses),
		TotalAmount:    decimal.Zero,
		AverageAmount:  decimal.Zero,
		ByCategory:     map[string]decimal.Decimal{},
		ByUser:         map[string]model.UserTotals{},
		RecentExpenses: []model.Expense{},
	}

	for _, e := range expenses {
		stats.TotalAmount = stats.TotalAmount.Add(e.Amount)

		category := e.Category
		if category == "" {
			category = model.DefaultCategory
		}
		stats.ByCategory[category] = stats.ByCategory[category].Add(e.Amount)

		key := ownerKey(e.UserID)
		totals := stats.ByUser[key]
		totals.Count++
		totals.Total = totals.Total.Add(e.Amount)
		stats.ByUser[key] = totals
	}

	if len(expenses) > 0 {
		stats.AverageAmount = stats.TotalAmount.Div(decimal.NewFromInt(int64(len(expenses))))
	}

	recent := slices.Clone(expenses)
	slices.SortStableFunc(recent, func(a, b model.Expense) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	if recent != nil {
		stats.RecentExpenses = recent
	}
	return stats
}
