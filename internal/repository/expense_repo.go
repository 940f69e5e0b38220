package repository

import (
	"context"
	"errors"
	"fmt"

	"expense_tribute/internal/model"

	"github.com/jackc/pgx/v5"
)

const expenseColumns = `id, user_id, description, amount, category, date, created_at, updated_at`

type expenseRepository struct {
	db PgxDB
}

// NewExpenseRepository creates a Postgres-backed ExpenseRepository
func NewExpenseRepository(db PgxDB) ExpenseRepository {
	return &expenseRepository{db: db}
}

// Create inserts a new expense into the database
func (r *expenseRepository) Create(ctx context.Context, e *model.Expense) error {
	sql := `INSERT INTO expenses (id, user_id, description, amount, category, date, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, sql, e.ID, e.UserID, e.Description, e.Amount, e.Category, e.Date, e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create expense: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// FindByID retrieves an expense by its ID
func (r *expenseRepository) FindByID(ctx context.Context, id string) (*model.Expense, error) {
	sql := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	e, err := scanExpense(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}
	return e, nil
}

// FindByUser retrieves the expenses owned by userID, newest first
func (r *expenseRepository) FindByUser(ctx context.Context, userID string) ([]model.Expense, error) {
	sql := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, sql, userID)
}

// FindAll retrieves every expense, newest first
func (r *expenseRepository) FindAll(ctx context.Context) ([]model.Expense, error) {
	sql := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY created_at DESC, id DESC`
	return r.list(ctx, sql)
}

func (r *expenseRepository) list(ctx context.Context, sql string, args ...any) ([]model.Expense, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []model.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", err)
	}
	return expenses, nil
}

// Update writes the editable fields and updated_at of an existing expense
func (r *expenseRepository) Update(ctx context.Context, e *model.Expense) error {
	sql := `UPDATE expenses
            SET description = $1, amount = $2, category = $3, date = $4, updated_at = $5
            WHERE id = $6`
	cmdTag, err := r.db.Exec(ctx, sql, e.Description, e.Amount, e.Category, e.Date, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an expense from the database
func (r *expenseRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	e := &model.Expense{}
	err := row.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &e.Category, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
