package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense_tribute/internal/events"
	"expense_tribute/internal/log"
	"expense_tribute/internal/metrics"
	"expense_tribute/internal/model"
	"expense_tribute/internal/repository"
	"expense_tribute/internal/utils"

	"golang.org/x/sync/errgroup"
)

var (
	ErrExpenseNotFound = errors.New("Expense not found")
	ErrEditForbidden   = errors.New("You can only edit your own expenses")
	ErrDeleteForbidden = errors.New("You can only delete your own expenses")
)

// ExpenseService defines the owner-scoped expense operations
type ExpenseService interface {
	Create(ctx context.Context, userID string, req model.CreateExpenseRequest) (*model.Expense, error)
	ListForUser(ctx context.Context, userID string) ([]model.Expense, error)
	Update(ctx context.Context, expenseID, userID string, patch model.ExpensePatch) (*model.Expense, error)
	Delete(ctx context.Context, expenseID, userID string) error
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

type expenseService struct {
	expenses  repository.ExpenseRepository
	users     repository.UserRepository
	publisher events.Publisher
	logger    *log.Logger
}

// NewExpenseService creates a new ExpenseService. A nil publisher disables events.
func NewExpenseService(expenses repository.ExpenseRepository, users repository.UserRepository, publisher events.Publisher, logger *log.Logger) ExpenseService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &expenseService{
		expenses:  expenses,
		users:     users,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

// Create stores a new expense owned by userID
func (s *expenseService) Create(ctx context.Context, userID string, req model.CreateExpenseRequest) (*model.Expense, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	expense := &model.Expense{
		ID:          utils.NewID(),
		UserID:      userID,
		Description: strings.TrimSpace(req.Description),
		Amount:      *req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Date:        strings.TrimSpace(req.Date),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense in repo: %w", err)
	}
	s.mutated(ctx, log.OpCreate, events.TypeExpenseCreated, expense)
	return expense, nil
}

// ListForUser returns the caller's expenses, newest first
func (s *expenseService) ListForUser(ctx context.Context, userID string) ([]model.Expense, error) {
	expenses, err := s.expenses.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user expenses from repo: %w", err)
	}
	return expenses, nil
}

// Update applies patch to an expense owned by userID
func (s *expenseService) Update(ctx context.Context, expenseID, userID string, patch model.ExpensePatch) (*model.Expense, error) {
	expense, err := s.findOwned(ctx, expenseID, userID, ErrEditForbidden)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	patch.Apply(expense)
	now := time.Now().UTC()
	expense.UpdatedAt = &now

	if err := s.expenses.Update(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to update expense in repo: %w", err)
	}
	s.mutated(ctx, log.OpUpdate, events.TypeExpenseUpdated, expense)
	return expense, nil
}

// Delete removes an expense owned by userID
func (s *expenseService) Delete(ctx context.Context, expenseID, userID string) error {
	expense, err := s.findOwned(ctx, expenseID, userID, ErrDeleteForbidden)
	if err != nil {
		return err
	}
	if err := s.expenses.Delete(ctx, expenseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("failed to delete expense from repo: %w", err)
	}
	s.mutated(ctx, log.OpDelete, events.TypeExpenseDeleted, expense)
	return nil
}

// Leaderboard ranks every user by total spend
func (s *expenseService) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var users []model.User
	var expenses []model.Expense

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if users, err = s.users.FindAll(gctx); err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if expenses, err = s.expenses.FindAll(gctx); err != nil {
			return fmt.Errorf("failed to load expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return BuildLeaderboard(users, expenses, LeaderboardSize), nil
}

// findOwned loads an expense: not found first, then ownership.
func (s *expenseService) findOwned(ctx context.Context, expenseID, userID string, forbidden error) (*model.Expense, error) {
	expense, err := s.expenses.FindByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}
	if expense.UserID != userID {
		return nil, forbidden
	}
	return expense, nil
}

// mutated records a successful mutation. Publish failures are logged only.
func (s *expenseService) mutated(ctx context.Context, op, eventType string, expense *model.Expense) {
	metrics.ExpenseMutationsTotal.WithLabelValues(op).Inc()

	err := s.publisher.Publish(ctx, events.NewExpenseEvent(eventType, expense))
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(eventType, metrics.ResultFailure).Inc()
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			log.FieldOperation, log.OpPublish, log.FieldEventType, eventType, log.FieldExpenseID, expense.ID, log.FieldError, err)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(eventType, metrics.ResultSuccess).Inc()
}
