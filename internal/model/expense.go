package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, the shape the client formats.
	decimal.MarshalJSONWithoutQuotes = true
}

// DateLayout is the calendar date format of Expense.Date.
const DateLayout = "2006-01-02"

// Expense represents a single spending record owned by one user
type Expense struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"` // YYYY-MM-DD as entered by the user
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"` // nil until the first edit
}

// CreateExpenseRequest is the body of POST /api/expenses. Any userId in the
// body is dropped; the owner is always the caller.
type CreateExpenseRequest struct {
	Description string           `json:"description" binding:"required"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	Date        string           `json:"date" binding:"required"`
}

func (r CreateExpenseRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return NewValidationError("description", "description is required")
	}
	if r.Amount == nil {
		return NewValidationError("amount", "amount is required")
	}
	if err := validateAmount(*r.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return NewValidationError("category", "category is required")
	}
	return validateDate(r.Date)
}

// ExpensePatch holds the editable expense fields; nil means unchanged.
type ExpensePatch struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Date        *string          `json:"date"`
}

func (p ExpensePatch) Validate() error {
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return NewValidationError("description", "description cannot be empty")
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return NewValidationError("category", "category cannot be empty")
	}
	if p.Date != nil {
		return validateDate(*p.Date)
	}
	return nil
}

// Apply copies the set fields onto e. It does not touch UpdatedAt.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	if p.Date != nil {
		e.Date = strings.TrimSpace(*p.Date)
	}
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return NewValidationError("amount", "amount must not be negative")
	}
	return nil
}

func validateDate(date string) error {
	date = strings.TrimSpace(date)
	if date == "" {
		return NewValidationError("date", "date is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return NewValidationError("date", "date must use the YYYY-MM-DD format")
	}
	return nil
}
