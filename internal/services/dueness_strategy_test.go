package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/core"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestDuenessCheckers(t *testing.T) {
	tests := []struct {
		name    string
		checker DuenessChecker
		start   core.Date
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"daily never run", Daily, core.NewDate(2024, 1, 1), time.Time{}, day(2024, 1, 15, 12), true},
		{"daily ran this morning", Daily, core.NewDate(2024, 1, 1), day(2024, 1, 15, 8), day(2024, 1, 15, 12), false},
		{"daily ran yesterday", Daily, core.NewDate(2024, 1, 1), day(2024, 1, 14, 23), day(2024, 1, 15, 1), true},

		{"weekly six days", Weekly, core.NewDate(2024, 1, 1), day(2024, 1, 9, 12), day(2024, 1, 15, 12), false},
		{"weekly seven days", Weekly, core.NewDate(2024, 1, 1), day(2024, 1, 8, 12), day(2024, 1, 15, 12), true},

		{"monthly same month", Monthly, core.NewDate(2024, 1, 10), day(2024, 3, 10, 0), day(2024, 3, 28, 0), false},
		{"monthly before anchor", Monthly, core.NewDate(2024, 1, 10), day(2024, 2, 10, 0), day(2024, 3, 9, 0), false},
		{"monthly on anchor", Monthly, core.NewDate(2024, 1, 10), day(2024, 2, 10, 0), day(2024, 3, 10, 0), true},
		{"monthly 31st in february", Monthly, core.NewDate(2024, 1, 31), day(2024, 1, 31, 0), day(2024, 2, 29, 0), true},
		{"monthly 31st in april", Monthly, core.NewDate(2024, 1, 31), day(2024, 3, 31, 0), day(2024, 4, 29, 0), false},

		{"yearly same year", Yearly, core.NewDate(2023, 6, 1), day(2024, 6, 1, 0), day(2024, 12, 1, 0), false},
		{"yearly before month", Yearly, core.NewDate(2023, 6, 1), day(2024, 6, 1, 0), day(2025, 5, 30, 0), false},
		{"yearly after month", Yearly, core.NewDate(2023, 6, 15), day(2024, 6, 15, 0), day(2025, 7, 1, 0), true},
		{"yearly leap day", Yearly, core.NewDate(2024, 2, 29), day(2024, 2, 29, 0), day(2025, 2, 28, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.checker.IsDue(tt.lastRun, tt.now, tt.start))
		})
	}
}

func TestCheckerFor(t *testing.T) {
	for _, every := range []core.RepetitionTypes{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		c, err := CheckerFor(every)
		require.NoError(t, err)
		assert.NotNil(t, c)
	}

	_, err := CheckerFor("hourly")
	assert.Error(t, err)

	RegisterChecker("never", DuenessFunc(func(time.Time, time.Time, core.Date) bool { return false }))
	c, err := CheckerFor("never")
	require.NoError(t, err)
	assert.False(t, c.IsDue(time.Time{}, time.Now(), core.Date{}))
}
