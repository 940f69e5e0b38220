package service

import (
	"context"
	"fmt"

	"expense_tribute/internal/model"
	"expense_tribute/internal/repository"
)

// AdminService serves the admin-only views over every user and expense
type AdminService interface {
	ListUsers(ctx context.Context) ([]model.UserView, error)
	ListExpenses(ctx context.Context) ([]model.Expense, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

type adminService struct {
	users     repository.UserRepository
	expenses  repository.ExpenseRepository
	allowlist model.Allowlist
}

// NewAdminService creates a new AdminService
func NewAdminService(users repository.UserRepository, expenses repository.ExpenseRepository, allowlist model.Allowlist) AdminService {
	return &adminService{users: users, expenses: expenses, allowlist: allowlist}
}

// ListUsers returns every user, newest first, without password hashes
func (s *adminService) ListUsers(ctx context.Context) ([]model.UserView, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users from repo: %w", err)
	}
	views := make([]model.UserView, 0, len(users))
	for i := range users {
		views = append(views, model.NewUserView(&users[i], s.allowlist))
	}
	return views, nil
}

func (s *adminService) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	expenses, err := s.expenses.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses from repo: %w", err)
	}
	return expenses, nil
}

// Stats recomputes the statistics over every expense
func (s *adminService) Stats(ctx context.Context) (*model.Stats, error) {
	expenses, err := s.expenses.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses from repo: %w", err)
	}
	stats := BuildStats(expenses, RecentExpensesLimit)
	return &stats, nil
}
