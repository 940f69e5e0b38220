package repository

import (
	"context"
	"testing"
	"time"

	"expense_tribute/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expenseRowColumns = []string{"id", "user_id", "description", "amount", "category", "date", "created_at", "updated_at"}

func TestExpenseRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewExpenseRepository(mock)
	amount := decimal.RequireFromString("4.50")
	e := &model.Expense{ID: "e1", UserID: "u1", Description: "Coffee", Amount: amount, Category: "Food", Date: "2024-01-01", CreatedAt: time.Now()}

	mock.ExpectExec("INSERT INTO expenses").
		WithArgs("e1", "u1", "Coffee", amount, "Food", "2024-01-01", e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_FindByUser(t *testing.T) {
	mock := newMockPool(t)
	repo := NewExpenseRepository(mock)
	now := time.Now()
	edited := now.Add(time.Minute)

	mock.ExpectQuery(`FROM expenses WHERE user_id = (.+) ORDER BY created_at DESC, id DESC`).
		WithArgs("u1").
		WillReturnRows(mock.NewRows(expenseRowColumns).
			AddRow("e2", "u1", "Lunch", decimal.RequireFromString("12"), "Food", "2024-01-02", now, &edited).
			AddRow("e1", "u1", "Coffee", decimal.RequireFromString("4.5"), "Food", "2024-01-01", now.Add(-time.Hour), nil))

	expenses, err := repo.FindByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "e2", expenses[0].ID)
	require.NotNil(t, expenses[0].UpdatedAt)
	assert.Equal(t, edited, *expenses[0].UpdatedAt)
	assert.Nil(t, expenses[1].UpdatedAt)
	assert.True(t, decimal.RequireFromString("4.5").Equal(expenses[1].Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_FindAll_Empty(t *testing.T) {
	mock := newMockPool(t)
	repo := NewExpenseRepository(mock)

	mock.ExpectQuery(`FROM expenses ORDER BY created_at DESC, id DESC`).
		WillReturnRows(mock.NewRows(expenseRowColumns))

	expenses, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, expenses)
	assert.Empty(t, expenses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_FindByID_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewExpenseRepository(mock)

	mock.ExpectQuery("FROM expenses WHERE id").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_Update(t *testing.T) {
	mock := newMockPool(t)
	repo := NewExpenseRepository(mock)
	now := time.Now()
	e := &model.Expense{ID: "e1", Description: "Tea", Amount: decimal.NewFromInt(3), Category: "Food", Date: "2024-01-01", UpdatedAt: &now}

	mock.ExpectExec("UPDATE expenses").
		WithArgs("Tea", e.Amount, "Food", "2024-01-01", e.UpdatedAt, "e1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_Delete_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewExpenseRepository(mock)

	mock.ExpectExec("DELETE FROM expenses").
		WithArgs("e1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "e1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
