package repository

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"expense_tribute/internal/model"

	"github.com/shopspring/decimal"
)

const (
	usersFile    = "users.json"
	expensesFile = "expenses.json"
)

// FileStore keeps users and expenses in two JSON documents under one
// directory. A single mutex serializes every read-modify-write cycle, so
// concurrent writers in other processes can still lose updates.
type FileStore struct {
	mu           sync.Mutex
	usersPath    string
	expensesPath string
}

type usersDoc struct {
	Users []userRecord `json:"users"`
}

type expensesDoc struct {
	Expenses []expenseRecord `json:"expenses"`
}

// userRecord is the on-disk user shape. The hash lives under "password".
type userRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// expenseRecord keeps the amount raw so malformed legacy values load as zero.
// Keys it does not map are kept in extra and written back unchanged.
type expenseRecord struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`

	extra map[string]json.RawMessage
}

// expenseRecordFields has the mapped fields of expenseRecord without its codec.
type expenseRecordFields expenseRecord

var expenseRecordKeys = []string{"id", "userId", "description", "amount", "category", "date", "createdAt", "updatedAt"}

func (rec *expenseRecord) UnmarshalJSON(data []byte) error {
	var fields expenseRecordFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range expenseRecordKeys {
		delete(all, key)
	}

	*rec = expenseRecord(fields)
	if len(all) > 0 {
		rec.extra = all
	}
	return nil
}

func (rec expenseRecord) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(expenseRecordFields(rec))
	if err != nil || len(rec.extra) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key, value := range rec.extra {
		if _, mapped := all[key]; !mapped {
			all[key] = value
		}
	}
	return json.Marshal(all)
}

// NewFileStore creates dir and both documents when they are missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &FileStore{
		usersPath:    filepath.Join(dir, usersFile),
		expensesPath: filepath.Join(dir, expensesFile),
	}
	if err := ensureDoc(s.usersPath, usersDoc{Users: []userRecord{}}); err != nil {
		return nil, err
	}
	if err := ensureDoc(s.expensesPath, expensesDoc{Expenses: []expenseRecord{}}); err != nil {
		return nil, err
	}
	return s, nil
}

func ensureDoc(path string, empty any) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	return writeJSON(path, empty)
}

// Users returns the user repository view of the store.
func (s *FileStore) Users() UserRepository { return &fileUserRepository{store: s} }

// Expenses returns the expense repository view of the store.
func (s *FileStore) Expenses() ExpenseRepository { return &fileExpenseRepository{store: s} }

// Ping checks that both documents are still readable.
func (s *FileStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.readUsers(); err != nil {
		return err
	}
	_, err := s.readExpenses()
	return err
}

func (s *FileStore) readUsers() ([]userRecord, error) {
	var doc usersDoc
	if err := readJSON(s.usersPath, &doc); err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (s *FileStore) writeUsers(users []userRecord) error {
	return writeJSON(s.usersPath, usersDoc{Users: users})
}

func (s *FileStore) readExpenses() ([]expenseRecord, error) {
	var doc expensesDoc
	if err := readJSON(s.expensesPath, &doc); err != nil {
		return nil, err
	}
	return doc.Expenses, nil
}

func (s *FileStore) writeExpenses(expenses []expenseRecord) error {
	return writeJSON(s.expensesPath, expensesDoc{Expenses: expenses})
}

// readJSON treats a missing file as an empty document. A file that does not
// parse is an error, never silently empty.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path atomically through a temp file in the same directory.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func newestFirst(aCreated, bCreated time.Time, aID, bID string) int {
	if c := bCreated.Compare(aCreated); c != 0 {
		return c
	}
	return cmp.Compare(bID, aID)
}

type fileUserRepository struct {
	store *FileStore
}

func (r *fileUserRepository) Create(_ context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.readUsers()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	for _, u := range users {
		if u.ID == user.ID || u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
	}
	users = append(users, toUserRecord(user))
	if err := r.store.writeUsers(users); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *fileUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.findOne(func(u userRecord) bool { return u.ID == id })
}

func (r *fileUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findOne(func(u userRecord) bool { return u.Email == email })
}

func (r *fileUserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.findOne(func(u userRecord) bool { return u.Username == username })
}

func (r *fileUserRepository) findOne(match func(userRecord) bool) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.readUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	for _, u := range users {
		if match(u) {
			return u.toModel(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileUserRepository) FindAll(context.Context) ([]model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	records, err := r.store.readUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users := make([]model.User, 0, len(records))
	for _, rec := range records {
		users = append(users, *rec.toModel())
	}
	slices.SortStableFunc(users, func(a, b model.User) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return users, nil
}

func (r *fileUserRepository) Update(_ context.Context, id string, patch model.UserPatch) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.readUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	idx := slices.IndexFunc(users, func(u userRecord) bool { return u.ID == id })
	if idx < 0 {
		return nil, ErrNotFound
	}

	updated := users[idx].toModel()
	patch.Apply(updated)
	for i, u := range users {
		if i != idx && (u.Email == updated.Email || u.Username == updated.Username) {
			return nil, fmt.Errorf("failed to update user: %w", ErrDuplicate)
		}
	}
	users[idx] = toUserRecord(updated)
	if err := r.store.writeUsers(users); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

func toUserRecord(u *model.User) userRecord {
	return userRecord{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.PasswordHash,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

func (u userRecord) toModel() *model.User {
	return &model.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.Password,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
	}
}

type fileExpenseRepository struct {
	store *FileStore
}

func (r *fileExpenseRepository) Create(_ context.Context, e *model.Expense) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	expenses, err := r.store.readExpenses()
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	if slices.ContainsFunc(expenses, func(rec expenseRecord) bool { return rec.ID == e.ID }) {
		return fmt.Errorf("failed to create expense: %w", ErrDuplicate)
	}
	rec, err := toExpenseRecord(e)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	if err := r.store.writeExpenses(append(expenses, rec)); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (r *fileExpenseRepository) FindByID(_ context.Context, id string) (*model.Expense, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	expenses, err := r.store.readExpenses()
	if err != nil {
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}
	for _, rec := range expenses {
		if rec.ID == id {
			e := rec.toModel()
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileExpenseRepository) FindByUser(_ context.Context, userID string) ([]model.Expense, error) {
	return r.list(func(rec expenseRecord) bool { return rec.UserID == userID })
}

func (r *fileExpenseRepository) FindAll(context.Context) ([]model.Expense, error) {
	return r.list(func(expenseRecord) bool { return true })
}

func (r *fileExpenseRepository) list(keep func(expenseRecord) bool) ([]model.Expense, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	records, err := r.store.readExpenses()
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	expenses := []model.Expense{}
	for _, rec := range records {
		if keep(rec) {
			expenses = append(expenses, rec.toModel())
		}
	}
	slices.SortStableFunc(expenses, func(a, b model.Expense) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return expenses, nil
}

func (r *fileExpenseRepository) Update(_ context.Context, e *model.Expense) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	expenses, err := r.store.readExpenses()
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	idx := slices.IndexFunc(expenses, func(rec expenseRecord) bool { return rec.ID == e.ID })
	if idx < 0 {
		return ErrNotFound
	}
	rec, err := toExpenseRecord(e)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	// Owner and creation time are immutable.
	rec.UserID = expenses[idx].UserID
	rec.CreatedAt = expenses[idx].CreatedAt
	rec.extra = expenses[idx].extra
	expenses[idx] = rec
	if err := r.store.writeExpenses(expenses); err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

func (r *fileExpenseRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	expenses, err := r.store.readExpenses()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	idx := slices.IndexFunc(expenses, func(rec expenseRecord) bool { return rec.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	if err := r.store.writeExpenses(slices.Delete(expenses, idx, idx+1)); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func toExpenseRecord(e *model.Expense) (expenseRecord, error) {
	amount, err := e.Amount.MarshalJSON()
	if err != nil {
		return expenseRecord{}, fmt.Errorf("encode amount: %w", err)
	}
	return expenseRecord{
		ID:          e.ID,
		UserID:      e.UserID,
		Description: e.Description,
		Amount:      amount,
		Category:    e.Category,
		Date:        e.Date,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

func (rec expenseRecord) toModel() model.Expense {
	return model.Expense{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Description: rec.Description,
		Amount:      parseLegacyAmount(rec.Amount),
		Category:    rec.Category,
		Date:        rec.Date,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

// parseLegacyAmount accepts a non-negative JSON number or numeric string.
// Anything else is zero.
func parseLegacyAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
