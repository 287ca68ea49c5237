package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	StatusPending   IncomeStatus = "pending"
	StatusPaid      IncomeStatus = "paid"
	StatusOverdue   IncomeStatus = "overdue"
	StatusCancelled IncomeStatus = "cancelled"
)

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCancelled ProjectStatus = "cancelled"
)

const maxDescriptionLen = 500

type (
	Kind          string
	IncomeStatus  string
	ProjectStatus string

	Money struct {
		Cents int64
	}

	// Transaction is either an income or an expense. Fields that only apply
	// to one kind are left at their zero value for the other.
	Transaction struct {
		ID          string    `json:"id"`
		OwnerID     string    `json:"owner_id"`
		Kind        Kind      `json:"kind"`
		Amount      Money     `json:"amount"`
		OccurredAt  time.Time `json:"date"`
		Description string    `json:"description"`
		ProjectID   string    `json:"project_id,omitempty"` // empty when not billed to a project

		// Expense only
		CategoryID string `json:"category_id,omitempty"`
		IsBusiness bool   `json:"is_business"`

		// Income only
		Status        IncomeStatus `json:"status,omitempty"`
		PaymentMethod string       `json:"payment_method,omitempty"`

		CreatedAt time.Time `json:"created_at"`
	}

	Category struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Kind          Kind   `json:"type"`
		TaxDeductible bool   `json:"tax_deductible"`
		Description   string `json:"description"`
	}

	Project struct {
		ID          string        `json:"id"`
		OwnerID     string        `json:"owner_id"`
		Name        string        `json:"name"`
		ClientName  string        `json:"client_name"`
		Description string        `json:"description"`
		HourlyRate  *Money        `json:"hourly_rate,omitempty"`
		Status      ProjectStatus `json:"status"`
		CreatedAt   time.Time     `json:"created_at"`
	}
)

var (
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidRange     = errors.New("invalid range")
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrMissingOwner     = errors.New("missing owner")
	ErrMissingCategory  = errors.New("expense requires a category")
	ErrEmptyName        = errors.New("empty name")
	ErrDescriptionLimit = errors.New("description too long (max 500 characters)")
)

func (k Kind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

func (s IncomeStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Validate rejects negative amounts. Zero is a valid amount.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a transaction before it is persisted. Defaults for status
// are applied by Normalize, not here.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrMissingOwner
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionLimit
	}
	switch t.Kind {
	case KindExpense:
		if strings.TrimSpace(t.CategoryID) == "" {
			return ErrMissingCategory
		}
	case KindIncome:
		if !t.Status.IsValid() {
			return ErrInvalidStatus
		}
	}
	return nil
}

// Normalize trims the description and marks new incomes as pending.
func (t Transaction) Normalize() Transaction {
	t.Description = strings.TrimSpace(t.Description)
	if t.Kind == KindIncome && t.Status == "" {
		t.Status = StatusPending
	}
	return t
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !p.Status.IsValid() {
		return ErrInvalidStatus
	}
	if p.HourlyRate != nil {
		if err := p.HourlyRate.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}
