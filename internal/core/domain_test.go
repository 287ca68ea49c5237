package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero is a valid amount, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	at := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	good := []Transaction{
		{OwnerID: "u", Kind: KindIncome, Amount: Money{100}, OccurredAt: at, Status: StatusPending},
		{OwnerID: "u", Kind: KindExpense, Amount: Money{0}, OccurredAt: at, CategoryID: "c"},
	}
	for i, tx := range good {
		if err := tx.Validate(); err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Kind: KindIncome, Amount: Money{1}, OccurredAt: at, Status: StatusPaid}, ErrMissingOwner},
		{Transaction{OwnerID: "u", Kind: "transfer", Amount: Money{1}, OccurredAt: at}, ErrInvalidKind},
		{Transaction{OwnerID: "u", Kind: KindIncome, Amount: Money{-1}, OccurredAt: at, Status: StatusPaid}, ErrInvalidAmount},
		{Transaction{OwnerID: "u", Kind: KindIncome, Amount: Money{1}, Status: StatusPaid}, ErrInvalidDate},
		{Transaction{OwnerID: "u", Kind: KindExpense, Amount: Money{1}, OccurredAt: at}, ErrMissingCategory},
		{Transaction{OwnerID: "u", Kind: KindIncome, Amount: Money{1}, OccurredAt: at, Status: "lost"}, ErrInvalidStatus},
		{Transaction{OwnerID: "u", Kind: KindExpense, Amount: Money{1}, OccurredAt: at, CategoryID: "c", Description: strings.Repeat("x", 501)}, ErrDescriptionLimit},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestTransactionNormalize(t *testing.T) {
	tx := Transaction{Kind: KindIncome, Description: "  invoice 12 "}.Normalize()
	if tx.Status != StatusPending {
		t.Fatalf("expected default pending status, got %q", tx.Status)
	}
	if tx.Description != "invoice 12" {
		t.Fatalf("description not trimmed: %q", tx.Description)
	}
	exp := Transaction{Kind: KindExpense}.Normalize()
	if exp.Status != "" {
		t.Fatalf("expenses carry no status, got %q", exp.Status)
	}
}

func TestProjectValidate(t *testing.T) {
	p := Project{OwnerID: "u", Name: "Website", Status: ProjectActive}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	p.Name = " "
	if err := p.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	p.Name = "x"
	p.Status = "paused"
	if err := p.Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	p.Status = ProjectOnHold
	p.HourlyRate = &Money{Cents: -10}
	if err := p.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	if len(cats) != 21 {
		t.Fatalf("expected 21 default categories, got %d", len(cats))
	}
	seen := map[string]bool{}
	deductible := 0
	for _, c := range cats {
		if err := c.Validate(); err != nil {
			t.Fatalf("%s: %v", c.Name, err)
		}
		key := CategoryKey(c.Name)
		if seen[key] {
			t.Fatalf("duplicate category name %q", c.Name)
		}
		seen[key] = true
		if c.TaxDeductible {
			deductible++
		}
	}
	if deductible != 10 {
		t.Fatalf("expected 10 tax deductible categories, got %d", deductible)
	}
}

func TestCategoryKey(t *testing.T) {
	if CategoryKey("  Office   Supplies ") != CategoryKey("office supplies") {
		t.Fatalf("category keys should ignore case and spacing")
	}
}
