package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      Money
	ByCategory []CategoryAmount
}

// SummarizeByType aggregates expenses by N1, largest amount first.
func SummarizeByType(year, month int, expenses []Expense) MonthOverview {
	ov := MonthOverview{Year: year, Month: month}
	index := map[string]int{}
	for _, e := range expenses {
		ov.Total.Cents += e.Amount.Cents
		name := e.Path.N1
		if name == "" {
			name = UndefinedType
		}
		i, ok := index[name]
		if !ok {
			i = len(ov.ByCategory)
			index[name] = i
			ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: name})
		}
		ov.ByCategory[i].Amount.Cents += e.Amount.Cents
	}
	sort.SliceStable(ov.ByCategory, func(a, b int) bool {
		return ov.ByCategory[a].Amount.Cents > ov.ByCategory[b].Amount.Cents
	})
	return ov
}
