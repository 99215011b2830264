package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		query   string
		want    MonthParams
		wantErr bool
	}{
		{"defaults", "", MonthParams{Year: 2025, Month: 5}, false},
		{"explicit", "year=2024&month=12", MonthParams{Year: 2024, Month: 12}, false},
		{"only month", "month=1", MonthParams{Year: 2025, Month: 1}, false},
		{"blank values", "year=%20&month=", MonthParams{Year: 2025, Month: 5}, false},
		{"month zero", "month=0", MonthParams{}, true},
		{"month 13", "month=13", MonthParams{}, true},
		{"non-numeric year", "year=next", MonthParams{}, true},
		{"year out of range", "year=3000", MonthParams{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParams(q, now)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-02-28 ")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, 2, d.Month())
	assert.Equal(t, 28, d.Day())

	empty, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty(), "blank input gives an empty date")

	for _, in := range []string{"2025-02-30", "28/02/2025", "ayer"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, errBadDate, "ParseDate(%q)", in)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Text string `json:"text"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"text":"pan 100"}`, false},
		{"unknown fields are ignored", `{"text":"pan","extra":1}`, false},
		{"malformed", `{"text":`, true},
		{"two documents", `{"text":"a"}{"text":"b"}`, true},
		{"too large", `{"text":"` + strings.Repeat("x", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if tt.wantErr {
				assert.ErrorIs(t, err, errBadBody)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUserID(t *testing.T) {
	s := &Server{defaultUser: "casa"}
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"", "casa", false},
		{"  ana ", "ana", false},
		{"ana.perez@example.com", "ana.perez@example.com", false},
		{"ana maría", "", true},
		{strings.Repeat("a", 65), "", true},
		{"<script>", "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set(headerUserID, tt.header)
		}
		got, err := s.userID(r)
		if tt.wantErr {
			assert.Error(t, err, "userID(%q)", tt.header)
		} else {
			assert.NoError(t, err, "userID(%q)", tt.header)
		}
		assert.Equal(t, tt.want, got, "userID(%q)", tt.header)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  pollo  ", "pollo"},
		{"pan\x00 integral\x07", "pan integral"},
		{"línea\tcon\ttabs", "línea\tcon\ttabs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeInput(tt.in), "sanitizeInput(%q)", tt.in)
	}
}
