package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"expense_tribute/internal/events"
	"expense_tribute/internal/log"
	"expense_tribute/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann", "ann@example.com").User

	amount := decimal.RequireFromString("4.50")
	created, err := f.expense.Create(ctx, ann.ID, model.CreateExpenseRequest{
		Description: "Coffee", Amount: &amount, Category: "Food", Date: "2024-01-01",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, ann.ID, created.UserID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.UpdatedAt)

	list, err := f.expense.ListForUser(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "Coffee", list[0].Description)
	assert.True(t, amount.Equal(list[0].Amount))
	assert.Equal(t, "Food", list[0].Category)
	assert.Equal(t, "2024-01-01", list[0].Date)

	assert.Equal(t, []string{events.TypeExpenseCreated}, f.publisher.types())
}

func TestExpenseService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	negative := decimal.NewFromInt(-1)

	_, err := f.expense.Create(context.Background(), "u1", model.CreateExpenseRequest{
		Description: "x", Amount: &negative, Category: "Food", Date: "2024-01-01",
	})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, f.publisher.types())
}

func TestExpenseService_UpdateOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann", "ann@example.com").User
	bob := f.register(t, "bob", "bob@example.com").User
	e := f.addExpense(t, ann.ID, "10", "Food")

	desc := "Dinner"
	_, err := f.expense.Update(ctx, e.ID, bob.ID, model.ExpensePatch{Description: &desc})
	assert.ErrorIs(t, err, ErrEditForbidden)

	assert.ErrorIs(t, f.expense.Delete(ctx, e.ID, bob.ID), ErrDeleteForbidden)

	_, err = f.expense.Update(ctx, "missing", ann.ID, model.ExpensePatch{Description: &desc})
	assert.ErrorIs(t, err, ErrExpenseNotFound)

	updated, err := f.expense.Update(ctx, e.ID, ann.ID, model.ExpensePatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", updated.Description)
	assert.Equal(t, ann.ID, updated.UserID)
	require.NotNil(t, updated.UpdatedAt)

	require.NoError(t, f.expense.Delete(ctx, e.ID, ann.ID))
	assert.ErrorIs(t, f.expense.Delete(ctx, e.ID, ann.ID), ErrExpenseNotFound)

	assert.Equal(t, []string{events.TypeExpenseCreated, events.TypeExpenseUpdated, events.TypeExpenseDeleted}, f.publisher.types())
}

func TestExpenseService_UpdateRejectsInvalidPatch(t *testing.T) {
	f := newFixture(t)
	ann := f.register(t, "ann", "ann@example.com").User
	e := f.addExpense(t, ann.ID, "10", "Food")

	badDate := "01/02/2024"
	_, err := f.expense.Update(context.Background(), e.ID, ann.ID, model.ExpensePatch{Date: &badDate})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestExpenseService_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errBroker
	ann := f.register(t, "ann", "ann@example.com").User

	e := f.addExpense(t, ann.ID, "3", "Food")
	assert.NotEmpty(t, e.ID)

	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelWarn, JSON: true, Output: &buf})
	svc := NewExpenseService(f.expenses, f.users, f.publisher, logger)
	require.NoError(t, svc.Delete(context.Background(), e.ID, ann.ID))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Failed to publish expense event", entry["msg"])
	assert.Equal(t, log.OpPublish, entry[log.FieldOperation])
	assert.Equal(t, events.TypeExpenseDeleted, entry[log.FieldEventType])
	assert.Equal(t, e.ID, entry[log.FieldExpenseID])
}

func TestExpenseService_Leaderboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		u := f.register(t, fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i)).User
		ids = append(ids, u.ID)
	}
	for i, id := range ids {
		f.addExpense(t, id, fmt.Sprintf("%d", (i+1)*10), "Food")
		f.addExpense(t, id, "1.5", "Bills")
	}

	board, err := f.expense.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, LeaderboardSize)
	assert.Equal(t, "user5", board[0].Username)
	assert.Equal(t, 2, board[0].Count)
	assert.True(t, decimal.RequireFromString("61.5").Equal(board[0].TotalAmount))
	for i := 1; i < len(board); i++ {
		assert.True(t, board[i-1].TotalAmount.GreaterThanOrEqual(board[i].TotalAmount))
	}
}

func TestAdminService(t *testing.T) {
	f := newFixture(t, "ann@example.com")
	ctx := context.Background()
	ann := f.register(t, "ann", "ann@example.com").User
	bob := f.register(t, "bob", "bob@example.com").User
	f.addExpense(t, ann.ID, "10", "Food")
	f.addExpense(t, bob.ID, "5", "Bills")

	users, err := f.admin.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	admins := map[string]bool{}
	for _, u := range users {
		admins[u.Username] = u.IsAdmin
		assert.NotNil(t, u.CreatedAt)
	}
	assert.True(t, admins["ann"])
	assert.False(t, admins["bob"])

	all, err := f.admin.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stats, err := f.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalExpenses)
	assert.True(t, decimal.NewFromInt(15).Equal(stats.TotalAmount))
	assert.True(t, decimal.RequireFromString("7.5").Equal(stats.AverageAmount))
	assert.True(t, decimal.NewFromInt(10).Equal(stats.ByCategory["Food"]))
	assert.True(t, decimal.NewFromInt(5).Equal(stats.ByCategory["Bills"]))
	assert.Equal(t, 1, stats.ByUser[bob.ID].Count)
	assert.Len(t, stats.RecentExpenses, 2)
}

func TestAdminService_LegacyFileData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := `{"expenses":[
		{"id":"1700000000001","userId":"1700000000999","description":"old","amount":"12.5","category":"","date":"2023-11-14","createdAt":"2023-11-14T22:13:20Z"},
		{"id":"1700000000002","description":"orphan","amount":3,"category":"Food","date":"2023-11-14","createdAt":"2023-11-14T22:13:21Z"},
		{"id":"1700000000003","userId":"1700000000999","description":"refund","amount":-4,"category":"Food","date":"2023-11-14","createdAt":"2023-11-14T22:13:22Z"}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "expenses.json"), []byte(doc), 0o644))

	stats, err := f.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalExpenses)
	assert.True(t, decimal.RequireFromString("15.5").Equal(stats.TotalAmount))
	assert.True(t, decimal.RequireFromString("12.5").Equal(stats.ByCategory[model.DefaultCategory]))
	assert.True(t, decimal.NewFromInt(3).Equal(stats.ByCategory["Food"]))
	assert.Equal(t, 1, stats.ByUser[model.AnonymousUserID].Count)
	assert.True(t, decimal.RequireFromString("12.5").Equal(stats.ByUser["1700000000999"].Total))

	board, err := f.expense.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "User 000999", board[0].Username)
	assert.True(t, decimal.RequireFromString("12.5").Equal(board[0].TotalAmount))
	assert.Equal(t, "User nymous", board[1].Username)
	for _, entry := range board {
		assert.False(t, entry.TotalAmount.IsNegative())
	}
}
