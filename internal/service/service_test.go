package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"expense_tribute/internal/events"
	"expense_tribute/internal/log"
	"expense_tribute/internal/model"
	"expense_tribute/internal/repository"
	"expense_tribute/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	dir       string
	users     repository.UserRepository
	expenses  repository.ExpenseRepository
	jwt       *utils.JWTUtil
	publisher *recordingPublisher
	auth      AuthService
	expense   ExpenseService
	admin     AdminService
}

func newFixture(t *testing.T, adminEmails ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := repository.NewFileStore(dir)
	require.NoError(t, err)

	allowlist := model.NewAllowlist(adminEmails)
	f := &fixture{
		dir:       dir,
		users:     store.Users(),
		expenses:  store.Expenses(),
		jwt:       utils.NewJWTUtil(testSecret, utils.TokenTTL),
		publisher: &recordingPublisher{},
	}
	f.auth = NewAuthService(f.users, f.jwt, allowlist, log.Nop())
	f.expense = NewExpenseService(f.expenses, f.users, f.publisher, log.Nop())
	f.admin = NewAdminService(f.users, f.expenses, allowlist)
	return f
}

func (f *fixture) register(t *testing.T, username, email string) *model.AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), model.RegisterRequest{Username: username, Email: email, Password: "secret1"})
	require.NoError(t, err)
	return resp
}

func (f *fixture) addExpense(t *testing.T, userID, amount, category string) *model.Expense {
	t.Helper()
	a := decimal.RequireFromString(amount)
	e, err := f.expense.Create(context.Background(), userID, model.CreateExpenseRequest{
		Description: "item", Amount: &a, Category: category, Date: "2024-01-01",
	})
	require.NoError(t, err)
	return e
}

var errBroker = errors.New("broker down")
