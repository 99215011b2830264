package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gastos/internal/core"
)

const (
	maxBodyBytes    = 16 << 10
	maxUtteranceLen = 500
	headerUserID    = "X-User-ID"
)

var (
	errBadBody  = errors.New("invalid request body")
	errBadUser  = errors.New("invalid user id")
	errBadDate  = errors.New("invalid date")
	errBadMonth = errors.New("invalid year or month")

	userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,64}$`)
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, defaulting
// to the month of now. Present but malformed values are an error.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 2000 || y > 2100 {
			return MonthParams{}, errBadMonth
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, errBadMonth
		}
		params.Month = m
	}
	return params, nil
}

// ParseDate parses YYYY-MM-DD. Empty input returns the zero date.
func ParseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", errBadDate, s)
	}
	return core.Date{Time: t}, nil
}

// decodeJSON reads at most maxBodyBytes of JSON into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

// userID returns the X-User-ID header or the default user. Authentication
// happens in front of this service.
func (s *Server) userID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(headerUserID))
	if id == "" {
		return s.defaultUser, nil
	}
	if !userIDPattern.MatchString(id) {
		return "", errBadUser
	}
	return id, nil
}

// sanitizeInput removes control characters except tab and newlines, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
