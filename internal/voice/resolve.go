package voice

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gastos/internal/core"
)

// ErrEmptyQuery is returned when there is no item phrase to resolve. Callers
// should ask the user to repeat the command instead of saving anything.
var ErrEmptyQuery = errors.New("voice: empty item query")

// Draft is a fully categorized expense ready to be confirmed by the user.
type Draft struct {
	core.CategoryPath
	Quantity string
	Amount   string
	Unit     string
	Match    Match
}

// DraftFields is the wire form of a Draft.
type DraftFields struct {
	N1         string     `json:"n1"`
	N2         string     `json:"n2"`
	N3         string     `json:"n3"`
	N4         string     `json:"n4"`
	Cantidad   string     `json:"cantidad"`
	Monto      string     `json:"monto"`
	Unidad     string     `json:"unidad,omitempty"`
	MatchLevel MatchLevel `json:"matchLevel"`
	MatchLabel string     `json:"matchLabel"`
}

// MatchLevel returns the tier that produced the draft.
func (d Draft) MatchLevel() MatchLevel {
	if d.Match == nil {
		return ""
	}
	return d.Match.Level()
}

// MatchLabel returns the name that justified the draft.
func (d Draft) MatchLabel() string {
	if d.Match == nil {
		return ""
	}
	return d.Match.Label()
}

func (d Draft) Fields() DraftFields {
	return DraftFields{
		N1:         d.N1,
		N2:         d.N2,
		N3:         d.N3,
		N4:         d.N4,
		Cantidad:   d.Quantity,
		Monto:      d.Amount,
		Unidad:     d.Unit,
		MatchLevel: d.MatchLevel(),
		MatchLabel: d.MatchLabel(),
	}
}

func (d Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Fields())
}

// Path returns the category path carried by the wire form.
func (f DraftFields) Path() core.CategoryPath {
	return core.CategoryPath{N1: f.N1, N2: f.N2, N3: f.N3, N4: f.N4}
}

// Resolve maps the parsed item phrase onto the catalog. Tiers are tried in
// order (saved items, then N3, N2 and N1 category names) and the first hit
// wins; with no hit the phrase is kept as a free-form item under "Sin definir".
// The only error is ErrEmptyQuery.
func Resolve(cmd ParsedCommand, items []core.CatalogItem, categories []core.CategoryRow) (Draft, error) {
	query := strings.TrimSpace(cmd.ItemQuery)
	if query == "" {
		return Draft{}, ErrEmptyQuery
	}

	m := findMatch(query, items, categories)
	return Draft{
		CategoryPath: m.path(),
		Quantity:     cmd.Quantity,
		Amount:       cmd.Amount,
		Unit:         m.unit(),
		Match:        m,
	}, nil
}

func findMatch(query string, items []core.CatalogItem, categories []core.CategoryRow) Match {
	q := strings.ToLower(query)

	if item, ok := matchItem(q, items); ok {
		return ItemMatch{Item: item}
	}
	if row, ok := matchLevel(q, categories, func(r core.CategoryRow) (string, string) { return r.N3ID, r.N3 }); ok {
		return N3Match{Row: row}
	}
	if row, ok := matchLevel(q, categories, func(r core.CategoryRow) (string, string) { return r.N2ID, r.N2 }); ok {
		return N2Match{Row: row}
	}
	if row, ok := matchLevel(q, categories, func(r core.CategoryRow) (string, string) { return r.N1ID, r.N1 }); ok {
		return N1Match{Row: row}
	}
	return FreeformMatch{Query: query}
}

// matchItem picks among items whose name contains q: names starting with q
// come first, then Spanish alphabetical order.
func matchItem(q string, items []core.CatalogItem) (core.CatalogItem, bool) {
	type candidate struct {
		item   core.CatalogItem
		prefix bool
	}
	var candidates []candidate
	for _, it := range items {
		name := strings.ToLower(it.Name)
		if strings.Contains(name, q) {
			candidates = append(candidates, candidate{item: it, prefix: strings.HasPrefix(name, q)})
		}
	}
	if len(candidates) == 0 {
		return core.CatalogItem{}, false
	}

	// Collators keep internal buffers and must not be shared between goroutines.
	col := collate.New(language.Spanish)
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.prefix != b.prefix {
			return a.prefix
		}
		return col.CompareString(a.item.Name, b.item.Name) < 0
	})
	return candidates[0].item, true
}

// matchLevel deduplicates rows by the level's id (first occurrence wins) and
// returns the first row whose level name contains q.
func matchLevel(q string, rows []core.CategoryRow, level func(core.CategoryRow) (id, name string)) (core.CategoryRow, bool) {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		id, name := level(r)
		if name == "" {
			continue
		}
		key := id
		if key == "" {
			key = "name:" + name
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if strings.Contains(strings.ToLower(name), q) {
			return r, true
		}
	}
	return core.CategoryRow{}, false
}
