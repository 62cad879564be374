package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	// TypeIncome marks money coming in.
	TypeIncome = "income"

	// TypeExpense marks money going out.
	TypeExpense = "expense"
)

// RecommendedCategories is the closed set of category labels the clients
// offer and the receipt extractor is constrained to. The server accepts
// any non-empty category, so the set is advisory for manual entry.
var RecommendedCategories = []string{
	"Food & Drinks", "Transport", "Stationery & Books", "Mobile Recharge & Bills",
	"Entertainment", "Shopping (Personal)", "Fees & Dues", "Health & Medical",
	"Gifts & Social", "Miscellaneous", "Pocket Money", "Internship/Part-time",
	"Scholarship", "Other Income",
}

// FallbackCategory is used when the receipt extractor cannot pick a
// category from RecommendedCategories.
const FallbackCategory = "Miscellaneous"

// Transaction represents a single income or expense record owned by a user.
type Transaction struct {
	// ID is the unique identifier of the transaction.
	ID int64 `json:"id" db:"id"`

	// UserID identifies the user who owns this transaction. It is set
	// from the authenticated caller at creation and never changes.
	UserID int64 `json:"user_id" db:"user_id"`

	// Description is an optional free-form note.
	Description string `json:"description" db:"description"`

	// Amount is the transaction value in currency-agnostic units.
	// It is always positive; Type carries the direction.
	Amount decimal.Decimal `json:"amount" db:"amount"`

	// Category is the label the user filed this transaction under.
	Category string `json:"category" db:"category"`

	// Type is either "income" or "expense".
	Type string `json:"type" db:"type"`

	// Date is the calendar date the transaction occurred on.
	Date Date `json:"date" db:"date"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields a client may supply.
func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return errors.New("amount must be a positive number")
	}
	if strings.TrimSpace(t.Category) == "" {
		return errors.New("category is required")
	}
	if t.Type != TypeIncome && t.Type != TypeExpense {
		return fmt.Errorf("type must be %q or %q", TypeIncome, TypeExpense)
	}
	if t.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// TransactionPatch carries the optional fields of a partial update.
// Nil fields are left unchanged.
type TransactionPatch struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Type        *string          `json:"type"`
	Date        *Date            `json:"date"`
}

// Apply merges the patch into the transaction.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
}
