package http

import (
	"context"
	"fmt"
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
)

// handleOverview returns the month totals per type, served from cache when possible.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
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
	ov, err := s.getOverview(r.Context(), userID, p.Year, p.Month)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Body(toOverviewResponse(ov)).Write(w)
}

func (s *Server) getOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error) {
	key := overviewKey(userID, year, month)
	if data, found := s.overviewCache.Get(key); found {
		return data, nil
	}

	if s.deps.Dashboard == nil {
		return core.MonthOverview{Year: year, Month: month}, nil
	}
	cctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()
	data, err := s.deps.Dashboard.ReadMonthOverview(cctx, userID, year, month)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("read month overview (year=%d, month=%d): %w", year, month, err)
	}

	s.overviewCache.Set(key, data)
	log.FromContext(ctx).DebugContext(ctx, "Overview cached",
		log.FieldUserID, userID, log.FieldYear, year, log.FieldMonth, month,
		"total_cents", data.Total.Cents, "categories", len(data.ByCategory))
	return data, nil
}
