package services

import (
	"fmt"
	"sync"
	"time"

	"gastos/internal/core"
)

// DuenessChecker decides whether a recurring template should produce an
// expense at now, given when it last did. A zero lastRun means never.
type DuenessChecker interface {
	IsDue(lastRun, now time.Time, start core.Date) bool
}

// DuenessFunc adapts a plain function to DuenessChecker.
type DuenessFunc func(lastRun, now time.Time, start core.Date) bool

func (f DuenessFunc) IsDue(lastRun, now time.Time, start core.Date) bool {
	return f(lastRun, now, start)
}

// Daily is due once per calendar day.
var Daily = DuenessFunc(func(lastRun, now time.Time, _ core.Date) bool {
	return lastRun.IsZero() || !sameDay(lastRun, now)
})

// Weekly is due when seven full days have passed.
var Weekly = DuenessFunc(func(lastRun, now time.Time, _ core.Date) bool {
	return lastRun.IsZero() || now.Sub(lastRun) >= 7*24*time.Hour
})

// Monthly is due once per month, on or after the start date's day. Days past
// the end of a short month fall on its last day.
var Monthly = DuenessFunc(func(lastRun, now time.Time, start core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}
	return now.Day() >= anchorDay(now.Year(), now.Month(), start.Day())
})

// Yearly is due once per year, on or after the start date's month and day.
var Yearly = DuenessFunc(func(lastRun, now time.Time, start core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() {
		return false
	}
	target := time.Month(start.Month())
	switch {
	case now.Month() < target:
		return false
	case now.Month() > target:
		return true
	}
	return now.Day() >= anchorDay(now.Year(), target, start.Day())
})

var (
	duenessMu       sync.RWMutex
	duenessCheckers = map[core.RepetitionTypes]DuenessChecker{
		core.Daily:   Daily,
		core.Weekly:  Weekly,
		core.Monthly: Monthly,
		core.Yearly:  Yearly,
	}
)

// CheckerFor returns the checker registered for a repetition type.
func CheckerFor(every core.RepetitionTypes) (DuenessChecker, error) {
	duenessMu.RLock()
	defer duenessMu.RUnlock()
	c, ok := duenessCheckers[every]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %q", every)
	}
	return c, nil
}

// RegisterChecker adds or replaces the checker for a repetition type.
func RegisterChecker(every core.RepetitionTypes, c DuenessChecker) {
	duenessMu.Lock()
	defer duenessMu.Unlock()
	duenessCheckers[every] = c
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// anchorDay clamps day to the length of the given month.
func anchorDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
