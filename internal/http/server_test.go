package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/cache"
	"gastos/internal/catalog"
	"gastos/internal/log"
	"gastos/internal/services"
	"gastos/internal/store/memory"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New(memory.DefaultSeed())
	cat := catalog.NewCache(st, 16, time.Minute)
	expenses := services.NewExpenseService(st, st, services.WithCatalogCache(cat), services.WithLogger(log.Discard()))
	voiceSvc := services.NewVoiceService(cat, expenses, log.Discard())

	deps := Deps{Voice: voiceSvc, Expenses: expenses, Catalog: cat, Lister: st, Dashboard: st}
	srv := NewServer(":0", deps, append([]Option{WithLogger(log.Discard())}, opts...)...)
	srv.now = func() time.Time { return time.Date(2025, 5, 20, 18, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, st
}

func do(t *testing.T, srv *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthReadyMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Contains(t, rr.Body.String(), "http_requests_total")
	assert.Contains(t, rr.Body.String(), `cache_entries{type="catalog"}`)
}

func TestReadyReportsBackendFailure(t *testing.T) {
	srv := NewServer(":0", Deps{Ready: func(context.Context) error { return errors.New("db locked") }}, WithLogger(log.Discard()))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "not_ready", body["status"])
	assert.Contains(t, body["checks"].(map[string]any)["backend"], "db locked")
}

func TestMiddlewareHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/healthz", "", "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Permissions-Policy"), "microphone=(self)")

	rr = do(t, srv, http.MethodGet, "/healthz", "")
	assert.True(t, strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_"))
}

func TestVoiceParse(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/voice/parse", `{"text":"nafta 10 litros 500"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"itemQuery":"nafta","cantidad":"10","monto":"500"}`, rr.Body.String())

	rr = do(t, srv, http.MethodPost, "/api/voice/parse", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/voice/parse", `{"text":"`+strings.Repeat("a", maxUtteranceLen+1)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/voice/parse", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestVoiceInterpret(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/voice/interpret", `{"text":"pollo dos kilos 300"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[services.Interpretation](t, rr)
	assert.Equal(t, "Pollo", got.Draft.N4)
	assert.Equal(t, "kg", got.Draft.Unidad)
	assert.Equal(t, "item", string(got.Draft.MatchLevel))
	assert.Equal(t, "2", got.Command.Quantity)
}

func TestVoiceInterpretEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/voice/interpret", `{"text":"un café 300"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "No entendí el comando, intentá de nuevo", body["error"])
	assert.Equal(t, "300", body["command"].(map[string]any)["monto"])
}

type brokenCatalog struct{}

func (brokenCatalog) Get(context.Context, string) (catalog.Snapshot, error) {
	return catalog.Snapshot{}, errors.New("db down")
}
func (brokenCatalog) Invalidate(string)  {}
func (brokenCatalog) Stats() cache.Stats { return cache.Stats{} }

func TestVoiceInterpretCatalogFailure(t *testing.T) {
	voiceSvc := services.NewVoiceService(brokenCatalog{}, nil, log.Discard())
	srv := NewServer(":0", Deps{Voice: voiceSvc, Catalog: brokenCatalog{}}, WithLogger(log.Discard()))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := do(t, srv, http.MethodPost, "/api/voice/interpret", `{"text":"pollo 300"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "db down")

	rr = do(t, srv, http.MethodGet, "/api/catalog", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestVoiceConfirmUpdatesListAndOverview(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/overview?year=2025&month=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0.00", decode[overviewResponse](t, rr).Total)

	draft := `{"n1":"Variables","n2":"Alimentación","n3":"Almacén","n4":"Mate cocido",
		"cantidad":"2","monto":"1500","unidad":"caja","matchLevel":"libre","matchLabel":"mate cocido"}`
	rr = do(t, srv, http.MethodPost, "/api/voice/confirm", draft)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[confirmResponse](t, rr)
	assert.NotEmpty(t, created.Ref)
	assert.Equal(t, "2025-05-20", created.Fecha)

	rr = do(t, srv, http.MethodGet, "/api/expenses?year=2025&month=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]expenseResponse](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "Mate cocido", list[0].N4)
	assert.Equal(t, "1500.00", list[0].Monto)
	assert.Equal(t, "voz", list[0].Origen)
	assert.Equal(t, "libre", list[0].MatchLevel)

	rr = do(t, srv, http.MethodGet, "/api/overview?year=2025&month=5", "")
	ov := decode[overviewResponse](t, rr)
	assert.Equal(t, "1500.00", ov.Total)
	require.Len(t, ov.PorTipo, 1)
	assert.Equal(t, "Variables", ov.PorTipo[0].Nombre)

	// The item was learned: the next utterance resolves at the item tier.
	rr = do(t, srv, http.MethodPost, "/api/voice/interpret", `{"text":"mate cocido 1 caja 800"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "item", string(decode[services.Interpretation](t, rr).Draft.MatchLevel))
}

func TestVoiceConfirmValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"zero amount", `{"n1":"Variables","n4":"Pan","monto":"0"}`, http.StatusUnprocessableEntity, "Monto inválido"},
		{"bad quantity", `{"n1":"Variables","n4":"Pan","cantidad":"dos","monto":"10"}`, http.StatusUnprocessableEntity, "Cantidad inválida"},
		{"missing type", `{"n4":"Pan","monto":"10"}`, http.StatusUnprocessableEntity, "Falta el tipo de gasto"},
		{"missing item", `{"n1":"Variables","monto":"10"}`, http.StatusUnprocessableEntity, "Falta el ítem"},
		{"bad date", `{"n1":"Variables","n4":"Pan","monto":"10","fecha":"20/05/2025"}`, http.StatusUnprocessableEntity, "Fecha inválida"},
		{"not json", `n1=Variables`, http.StatusBadRequest, "Formato de solicitud inválido"},
		{"trailing data", `{"n1":"Variables"} {}`, http.StatusBadRequest, "Formato de solicitud inválido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/voice/confirm", tt.body)
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.msg, decode[map[string]any](t, rr)["error"])
		})
	}
}

func TestCreateManualExpense(t *testing.T) {
	srv, st := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/expenses",
		`{"fecha":"2025-04-02","n1":"Fijos","n2":"Servicios","n3":"Luz","n4":"Factura luz","monto":"12.345"}`,
		"X-User-ID", "ana")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	got, err := st.ListExpenses(context.Background(), "ana", 2025, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1235), got[0].Amount.Cents)
	assert.Equal(t, "unidad", got[0].Unit)
	assert.Equal(t, "manual", got[0].Source)
	assert.Equal(t, 2, got[0].Date.Day())

	rr = do(t, srv, http.MethodPost, "/api/expenses", `{"n1":"Fijos","n4":"Luz","monto":"-3"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestUserScoping(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/expenses", `{"n1":"Variables","n4":"Pan","monto":"5"}`, "X-User-ID", "ana")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/expenses", "", "X-User-ID", "bruno")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = do(t, srv, http.MethodGet, "/api/expenses", "", "X-User-ID", "ana")
	assert.Len(t, decode[[]expenseResponse](t, rr), 1)

	rr = do(t, srv, http.MethodGet, "/api/expenses", "", "X-User-ID", "ana maría")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMonthParamsRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, q := range []string{"?month=13", "?month=abc", "?year=1999"} {
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/overview"+q, "").Code, q)
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/expenses"+q, "").Code, q)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/catalog", "", "X-User-ID", "ana")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[catalogResponse](t, rr)
	assert.Equal(t, "ana", body.UserID)
	assert.NotEmpty(t, body.Items)
	assert.NotEmpty(t, body.Categories)

	rr = do(t, srv, http.MethodPost, "/api/catalog/invalidate", "", "X-User-ID", "ana")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestRateLimitAppliesToPostOnly(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimit(2))

	for i := 0; i < 2; i++ {
		rr := do(t, srv, http.MethodPost, "/api/voice/parse", `{"text":"pan 100"}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/voice/parse", `{"text":"pan 100"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
	assert.Contains(t, do(t, srv, http.MethodGet, "/metrics", "").Body.String(), "rate_limit_hits_total 1")
}

func TestShutdownTwice(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Shutdown(context.Background()))
}
