package http

import (
	"errors"
	"net/http"
	"strconv"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/voice"
)

const msgRepeat = "No entendí el comando, intentá de nuevo"

type expenseResponse struct {
	ID         int64  `json:"id,omitempty"`
	Fecha      string `json:"fecha"`
	N1         string `json:"n1"`
	N2         string `json:"n2"`
	N3         string `json:"n3"`
	N4         string `json:"n4"`
	Cantidad   string `json:"cantidad"`
	Unidad     string `json:"unidad"`
	Monto      string `json:"monto"`
	Origen     string `json:"origen"`
	MatchLevel string `json:"matchLevel,omitempty"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:         e.ID,
		Fecha:      e.Date.Format("2006-01-02"),
		N1:         e.Path.N1,
		N2:         e.Path.N2,
		N3:         e.Path.N3,
		N4:         e.Path.N4,
		Cantidad:   e.Quantity.String(),
		Unidad:     e.Unit,
		Monto:      e.Amount.Euros().StringFixed(2),
		Origen:     e.Source,
		MatchLevel: e.MatchLevel,
	}
}

type categoryAmountResponse struct {
	Nombre string `json:"nombre"`
	Monto  string `json:"monto"`
}

type overviewResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Total      string                   `json:"total"`
	PorTipo    []categoryAmountResponse `json:"porTipo"`
	TotalCents int64                    `json:"totalCents"`
}

func toOverviewResponse(ov core.MonthOverview) overviewResponse {
	out := overviewResponse{
		Year:       ov.Year,
		Month:      ov.Month,
		Total:      ov.Total.Euros().StringFixed(2),
		TotalCents: ov.Total.Cents,
		PorTipo:    make([]categoryAmountResponse, 0, len(ov.ByCategory)),
	}
	for _, c := range ov.ByCategory {
		out.PorTipo = append(out.PorTipo, categoryAmountResponse{Nombre: c.Name, Monto: c.Amount.Euros().StringFixed(2)})
	}
	return out
}

// validationMessage maps domain validation errors to a user-facing message.
func validationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, voice.ErrEmptyQuery):
		return msgRepeat, true
	case errors.Is(err, core.ErrInvalidAmount):
		return "Monto inválido", true
	case errors.Is(err, core.ErrInvalidQuantity):
		return "Cantidad inválida", true
	case errors.Is(err, core.ErrEmptyType):
		return "Falta el tipo de gasto", true
	case errors.Is(err, core.ErrEmptyItem):
		return "Falta el ítem", true
	case errors.Is(err, core.ErrInvalidDay), errors.Is(err, core.ErrInvalidMonth), errors.Is(err, errBadDate):
		return "Fecha inválida", true
	}
	return "", false
}

// writeError answers with 422 for validation errors and 500 for everything
// else, logging the latter.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if msg, ok := validationMessage(err); ok {
		UnprocessableEntityError(msg).Write(w)
		return
	}
	s.events.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, operation,
		log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
	InternalServerError("Error interno, intentá más tarde").Write(w)
}

func overviewKey(userID string, year, month int) string {
	return userID + "|" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) invalidateOverview(userID string, d core.Date) {
	s.overviewCache.Delete(overviewKey(userID, d.Year(), d.Month()))
}

// today is the current day as a date.
func (s *Server) today() core.Date {
	now := s.now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}
