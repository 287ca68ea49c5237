package core

import "time"

// TransactionPatch is a partial update. Nil fields are left unchanged; an
// empty ProjectID detaches the transaction from its project.
type TransactionPatch struct {
	Amount        *Money
	OccurredAt    *time.Time
	Description   *string
	ProjectID     *string
	CategoryID    *string
	IsBusiness    *bool
	Status        *IncomeStatus
	PaymentMethod *string
}

// Apply returns t with the set fields of p. Identity fields are never
// touched.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.OccurredAt != nil {
		t.OccurredAt = *p.OccurredAt
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.IsBusiness != nil {
		t.IsBusiness = *p.IsBusiness
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
	return t
}

type ProjectPatch struct {
	Name        *string
	ClientName  *string
	Description *string
	HourlyRate  *Money
	Status      *ProjectStatus
}

func (p ProjectPatch) Apply(pr Project) Project {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.ClientName != nil {
		pr.ClientName = *p.ClientName
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.HourlyRate != nil {
		rate := *p.HourlyRate
		pr.HourlyRate = &rate
	}
	if p.Status != nil {
		pr.Status = *p.Status
	}
	return pr
}
