package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseLevel(%q)", tt.in)
		} else {
			assert.NoError(t, err, "ParseLevel(%q)", tt.in)
		}
		assert.Equal(t, tt.want, got, "ParseLevel(%q)", tt.in)
	}
}

func TestNewJSONLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentVoice, Output: &buf})
	l.Debug("hidden")
	l.Info("hello", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "expected one record, got %q", buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, ComponentVoice, rec[FieldComponent])
	assert.Equal(t, "v", rec["k"])
	assert.Equal(t, ComponentVoice, l.Component())
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestMiddlewareAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	h := Middleware(base, func(*http.Request) string { return "req-42" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	ctx := context.Background()

	sl.LogVoiceResolved(ctx, "ana", "pollo", "item", "Pollo")
	sl.LogExpenseCreated(ctx, core.Expense{
		UserID:   "ana",
		Path:     core.CategoryPath{N1: "Variables", N4: "Pollo"},
		Quantity: decimal.NewFromInt(2),
		Amount:   core.Money{Cents: 30000},
	}, "7")
	sl.LogError(ctx, "boom", errors.New("disk full"), ComponentStorage, OpCreate, nil)
	sl.LogHTTPEnd(ctx, httptest.NewRequest(http.MethodPost, "/api/expenses", nil), 503, 12*time.Millisecond, "10.0.0.1")

	out := buf.String()
	for _, want := range []string{
		`"match_level":"item"`,
		`"category_path":"Variables / Pollo"`,
		`"ref":"7"`,
		`"error":"disk full"`,
		`"level":"ERROR","msg":"HTTP request completed"`,
		`"status_code":503`,
	} {
		assert.Contains(t, out, want)
	}
}
