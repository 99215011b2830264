package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"gastos/internal/core"
	"gastos/internal/log"
)

// expenseRequest is a manually entered expense.
type expenseRequest struct {
	Fecha    string `json:"fecha"`
	N1       string `json:"n1"`
	N2       string `json:"n2"`
	N3       string `json:"n3"`
	N4       string `json:"n4"`
	Cantidad string `json:"cantidad"`
	Unidad   string `json:"unidad"`
	Monto    string `json:"monto"`
}

func (req expenseRequest) toExpense(userID string, today core.Date) (core.Expense, error) {
	date, err := ParseDate(req.Fecha)
	if err != nil {
		return core.Expense{}, err
	}
	if date.IsEmpty() {
		date = today
	}
	qty, err := core.ParseQuantity(req.Cantidad)
	if err != nil {
		return core.Expense{}, fmt.Errorf("cantidad %q: %w", req.Cantidad, err)
	}
	cents, err := core.ParseDecimalToCents(req.Monto)
	if err != nil {
		return core.Expense{}, fmt.Errorf("monto %q: %w", req.Monto, err)
	}
	e := core.Expense{
		UserID: userID,
		Date:   date,
		Path: core.CategoryPath{
			N1: sanitizeInput(req.N1),
			N2: sanitizeInput(req.N2),
			N3: sanitizeInput(req.N3),
			N4: sanitizeInput(req.N4),
		},
		Quantity: qty,
		Unit:     sanitizeInput(req.Unidad),
		Amount:   core.Money{Cents: cents},
		Source:   core.SourceManual,
	}
	return e, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		BadRequestError("Usuario inválido").Write(w)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w)
		return
	}
	e, err := req.toExpense(userID, s.today())
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	ref, err := s.deps.Expenses.CreateExpense(r.Context(), e)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)
	s.invalidateOverview(userID, e.Date)
	Created(confirmResponse{Ref: ref, Fecha: e.Date.Format("2006-01-02")}).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		BadRequestError("Usuario inválido").Write(w)
		return
	}
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError("Año o mes inválido").Write(w)
		return
	}

	out := make([]expenseResponse, 0)
	if s.deps.Lister != nil {
		ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
		defer cancel()
		items, err := s.deps.Lister.ListExpenses(ctx, userID, p.Year, p.Month)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("list month expenses (year=%d, month=%d): %w", p.Year, p.Month, err), log.OpList)
			return
		}
		for _, e := range items {
			out = append(out, toExpenseResponse(e))
		}
	}
	NewJSONResponse().Body(out).Write(w)
}
