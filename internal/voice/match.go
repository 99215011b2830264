package voice

import "gastos/internal/core"

// MatchLevel records which catalog tier satisfied the item query.
type MatchLevel string

const (
	LevelItem MatchLevel = "item"
	LevelN3   MatchLevel = "n3"
	LevelN2   MatchLevel = "n2"
	LevelN1   MatchLevel = "n1"
	LevelFree MatchLevel = "libre"
)

// Valid reports whether l is one of the known tiers.
func (l MatchLevel) Valid() bool {
	switch l {
	case LevelItem, LevelN3, LevelN2, LevelN1, LevelFree:
		return true
	}
	return false
}

// Match is the catalog entry that justified a categorization. The concrete
// types are ItemMatch, N3Match, N2Match, N1Match and FreeformMatch.
type Match interface {
	Level() MatchLevel
	// Label is the human-readable name shown when asking the user to confirm.
	Label() string

	path() core.CategoryPath
	unit() string
}

// ItemMatch is a hit on a previously saved item.
type ItemMatch struct {
	Item core.CatalogItem
}

func (ItemMatch) Level() MatchLevel { return LevelItem }
func (m ItemMatch) Label() string   { return m.Item.Name }

func (m ItemMatch) path() core.CategoryPath {
	p := m.Item.Path()
	if p.N1 == "" {
		p.N1 = core.UndefinedType
	}
	return p
}

func (m ItemMatch) unit() string {
	if m.Item.DefaultUnit == "" {
		return core.DefaultUnit
	}
	return m.Item.DefaultUnit
}

// N3Match is a hit on a subcategory name.
type N3Match struct {
	Row core.CategoryRow
}

func (N3Match) Level() MatchLevel { return LevelN3 }
func (m N3Match) Label() string   { return m.Row.N3 }
func (N3Match) unit() string      { return "" }

func (m N3Match) path() core.CategoryPath {
	return core.CategoryPath{N1: m.Row.N1, N2: m.Row.N2, N3: m.Row.N3, N4: core.GeneralItem}
}

// N2Match is a hit on an area name.
type N2Match struct {
	Row core.CategoryRow
}

func (N2Match) Level() MatchLevel { return LevelN2 }
func (m N2Match) Label() string   { return m.Row.N2 }
func (N2Match) unit() string      { return "" }

func (m N2Match) path() core.CategoryPath {
	return core.CategoryPath{N1: m.Row.N1, N2: m.Row.N2, N4: core.GeneralItem}
}

// N1Match is a hit on a type name.
type N1Match struct {
	Row core.CategoryRow
}

func (N1Match) Level() MatchLevel { return LevelN1 }
func (m N1Match) Label() string   { return m.Row.N1 }
func (N1Match) unit() string      { return "" }

func (m N1Match) path() core.CategoryPath {
	return core.CategoryPath{N1: m.Row.N1, N4: core.GeneralItem}
}

// FreeformMatch means nothing in the catalog matched; the spoken phrase
// becomes an uncategorized item.
type FreeformMatch struct {
	Query string
}

func (FreeformMatch) Level() MatchLevel { return LevelFree }
func (m FreeformMatch) Label() string   { return m.Query }
func (FreeformMatch) unit() string      { return "" }

func (m FreeformMatch) path() core.CategoryPath {
	return core.CategoryPath{N1: core.UndefinedType, N4: m.Query}
}
