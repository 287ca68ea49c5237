package http

import (
	"errors"
	"net/http"
	"strings"

	"budgetbolt/internal/core"
	"budgetbolt/internal/log"
)

// transactionRequest is the create body of both incomes and expenses.
// Fields that do not apply to the route's kind must be left out.
type transactionRequest struct {
	Amount      *core.Money `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	ProjectID   string      `json:"project_id"`

	CategoryID string `json:"category_id"`
	IsBusiness *bool  `json:"is_business"`

	Status        core.IncomeStatus `json:"status"`
	PaymentMethod string            `json:"payment_method"`
}

func (req transactionRequest) toTransaction(ownerID string, kind core.Kind) (core.Transaction, error) {
	if req.Amount == nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	if strings.TrimSpace(req.Date) == "" {
		return core.Transaction{}, core.ErrInvalidDate
	}
	when, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		OwnerID:     ownerID,
		Kind:        kind,
		Amount:      *req.Amount,
		OccurredAt:  when,
		Description: sanitizeInput(req.Description),
		ProjectID:   sanitizeInput(req.ProjectID),
	}
	switch kind {
	case core.KindExpense:
		if req.Status != "" || req.PaymentMethod != "" {
			return core.Transaction{}, badRequest("status and payment_method apply to incomes only")
		}
		tx.CategoryID = sanitizeInput(req.CategoryID)
		tx.IsBusiness = true
		if req.IsBusiness != nil {
			tx.IsBusiness = *req.IsBusiness
		}
	case core.KindIncome:
		if req.CategoryID != "" || req.IsBusiness != nil {
			return core.Transaction{}, badRequest("category_id and is_business apply to expenses only")
		}
		tx.Status = req.Status
		tx.PaymentMethod = sanitizeInput(req.PaymentMethod)
	}
	return tx, nil
}

// transactionPatchRequest is the PUT body. Only the fields present are
// changed; an empty project_id detaches the transaction.
type transactionPatchRequest struct {
	Amount      *core.Money `json:"amount"`
	Date        *string     `json:"date"`
	Description *string     `json:"description"`
	ProjectID   *string     `json:"project_id"`

	CategoryID *string `json:"category_id"`
	IsBusiness *bool   `json:"is_business"`

	Status        *core.IncomeStatus `json:"status"`
	PaymentMethod *string            `json:"payment_method"`
}

func (req transactionPatchRequest) toPatch(kind core.Kind) (core.TransactionPatch, error) {
	switch kind {
	case core.KindExpense:
		if req.Status != nil || req.PaymentMethod != nil {
			return core.TransactionPatch{}, badRequest("status and payment_method apply to incomes only")
		}
	case core.KindIncome:
		if req.CategoryID != nil || req.IsBusiness != nil {
			return core.TransactionPatch{}, badRequest("category_id and is_business apply to expenses only")
		}
	}

	patch := core.TransactionPatch{
		Amount:        req.Amount,
		Description:   sanitized(req.Description),
		ProjectID:     sanitized(req.ProjectID),
		CategoryID:    sanitized(req.CategoryID),
		IsBusiness:    req.IsBusiness,
		Status:        req.Status,
		PaymentMethod: sanitized(req.PaymentMethod),
	}
	if req.Date != nil {
		when, err := parseDate(*req.Date)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		patch.OccurredAt = &when
	}
	return patch, nil
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

func (s *Server) handleListTransactions(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		q, page, err := ParseTransactionQuery(r.URL.Query(), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		txs, err := s.ledger.ListTransactions(r.Context(), ownerID, kind, q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		NewJSONResponse().Body(Apply(page, txs)).Write(w)
	}
}

func (s *Server) handleCreateTransaction(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req transactionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		tx, err := req.toTransaction(ownerID, kind)
		if err != nil {
			writeError(w, r, err)
			return
		}

		saved, err := s.ledger.RecordTransaction(r.Context(), tx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogTransactionCreated(r.Context(), ownerID, string(kind), saved.Amount.Cents, saved.CategoryID, saved.ProjectID)

		NewJSONResponse().
			Status(http.StatusCreated).
			Header("Location", collectionPath(kind)+"/"+saved.ID).
			Body(saved).
			Write(w)
	}
}

func (s *Server) handleGetTransaction(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tx, err := s.ledger.GetTransaction(r.Context(), ownerID, kind, r.PathValue("id"))
		if err != nil {
			writeTransactionError(w, r, kind, err)
			return
		}
		NewJSONResponse().Body(tx).Write(w)
	}
}

func (s *Server) handleUpdateTransaction(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req transactionPatchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		patch, err := req.toPatch(kind)
		if err != nil {
			writeError(w, r, err)
			return
		}

		id := r.PathValue("id")
		if _, err := s.ledger.GetTransaction(r.Context(), ownerID, kind, id); err != nil {
			writeTransactionError(w, r, kind, err)
			return
		}
		// A not found from here on is a dangling project or category reference.
		tx, err := s.ledger.UpdateTransaction(r.Context(), ownerID, kind, id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		NewJSONResponse().Body(tx).Write(w)
	}
}

func (s *Server) handleDeleteTransaction(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.ledger.DeleteTransaction(r.Context(), ownerID, kind, r.PathValue("id")); err != nil {
			writeTransactionError(w, r, kind, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeTransactionError(w http.ResponseWriter, r *http.Request, kind core.Kind, err error) {
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError(notFoundDetail(kind)).Write(w)
		return
	}
	writeError(w, r, err)
}

func collectionPath(kind core.Kind) string {
	if kind == core.KindIncome {
		return "/api/incomes"
	}
	return "/api/expenses"
}

func notFoundDetail(kind core.Kind) string {
	if kind == core.KindIncome {
		return "Income not found"
	}
	return "Expense not found"
}
