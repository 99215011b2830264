package memory

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"gastos/internal/core"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// catalogNamespace derives stable category ids from their path, so the same
// seed always produces the same ids.
var catalogNamespace = uuid.MustParse("6f1c3a4e-8d2b-4f7a-9c5e-2b1d0a9e7f31")

// Seed is the YAML catalog format: the category tree plus saved items.
//
//	tipos:
//	  - nombre: Variables
//	    areas:
//	      - nombre: Alimentación
//	        subcategorias:
//	          - nombre: Carnes
//	            items:
//	              - nombre: Pollo
//	                unidad: kg
//	items:
//	  - nombre: Pollo
//	    n1: Variables
//	    n2: Alimentación
//	    n3: Carnes
//	    unidad_default: kg
type Seed struct {
	Types []SeedType           `yaml:"tipos"`
	Items []core.CatalogItem   `yaml:"items"`
	Users map[string]SeedItems `yaml:"usuarios,omitempty"`
}

// SeedItems holds items saved by one user.
type SeedItems struct {
	Items []core.CatalogItem `yaml:"items"`
}

type SeedType struct {
	Name  string     `yaml:"nombre"`
	Areas []SeedArea `yaml:"areas"`
}

type SeedArea struct {
	Name          string            `yaml:"nombre"`
	Subcategories []SeedSubcategory `yaml:"subcategorias"`
}

type SeedSubcategory struct {
	Name  string         `yaml:"nombre"`
	Items []SeedLeafItem `yaml:"items"`
}

type SeedLeafItem struct {
	Name string `yaml:"nombre"`
	Unit string `yaml:"unidad"`
}

// DefaultSeed returns the built-in catalog.
func DefaultSeed() Seed {
	s, err := ParseSeed(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return s
}

// ParseSeed decodes a YAML catalog.
func ParseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("decode catalog: %w", err)
	}
	for i, t := range s.Types {
		if strings.TrimSpace(t.Name) == "" {
			return Seed{}, fmt.Errorf("decode catalog: type %d has no name", i+1)
		}
	}
	return s, nil
}

// LoadSeedFile reads a YAML catalog from disk. An empty path yields the
// built-in catalog.
func LoadSeedFile(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseSeed(data)
}

// Rows flattens the tree into one row per leaf. Levels without children
// still produce a row so they can be matched by name.
func (s Seed) Rows() []core.CategoryRow {
	var rows []core.CategoryRow
	for _, t := range s.Types {
		base := core.CategoryRow{N1: t.Name, N1ID: levelID(t.Name)}
		if len(t.Areas) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, a := range t.Areas {
			area := base
			area.N2, area.N2ID = a.Name, levelID(t.Name, a.Name)
			if len(a.Subcategories) == 0 {
				rows = append(rows, area)
				continue
			}
			for _, sc := range a.Subcategories {
				sub := area
				sub.N3, sub.N3ID = sc.Name, levelID(t.Name, a.Name, sc.Name)
				if len(sc.Items) == 0 {
					rows = append(rows, sub)
					continue
				}
				for _, it := range sc.Items {
					leaf := sub
					leaf.N4, leaf.N4ID = it.Name, levelID(t.Name, a.Name, sc.Name, it.Name)
					leaf.Unit = it.Unit
					rows = append(rows, leaf)
				}
			}
		}
	}
	return rows
}

// SeedFromRows rebuilds a tree from flattened rows, keeping first-seen order.
func SeedFromRows(rows []core.CategoryRow) Seed {
	var s Seed
	typeIdx := map[string]int{}
	for _, r := range rows {
		if strings.TrimSpace(r.N1) == "" {
			continue
		}
		ti, ok := typeIdx[r.N1]
		if !ok {
			ti = len(s.Types)
			typeIdx[r.N1] = ti
			s.Types = append(s.Types, SeedType{Name: r.N1})
		}
		if r.N2 == "" {
			continue
		}
		t := &s.Types[ti]
		ai := indexOf(len(t.Areas), func(i int) bool { return t.Areas[i].Name == r.N2 })
		if ai < 0 {
			ai = len(t.Areas)
			t.Areas = append(t.Areas, SeedArea{Name: r.N2})
		}
		if r.N3 == "" {
			continue
		}
		a := &t.Areas[ai]
		si := indexOf(len(a.Subcategories), func(i int) bool { return a.Subcategories[i].Name == r.N3 })
		if si < 0 {
			si = len(a.Subcategories)
			a.Subcategories = append(a.Subcategories, SeedSubcategory{Name: r.N3})
		}
		if r.N4 == "" {
			continue
		}
		sc := &a.Subcategories[si]
		if indexOf(len(sc.Items), func(i int) bool { return sc.Items[i].Name == r.N4 }) < 0 {
			sc.Items = append(sc.Items, SeedLeafItem{Name: r.N4, Unit: r.Unit})
		}
	}
	return s
}

func indexOf(n int, match func(int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return -1
}

func levelID(path ...string) string {
	return uuid.NewSHA1(catalogNamespace, []byte(strings.ToLower(strings.Join(path, "\x1f")))).String()
}
