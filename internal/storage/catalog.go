package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gastos/internal/core"
)

// ListCategoryRows flattens the category tree visible to the user: shared
// rows (no owner) plus the user's own, in insertion order. Levels without
// children still yield a row with the deeper columns empty.
func (r *SQLiteRepository) ListCategoryRows(ctx context.Context, userID string) ([]core.CategoryRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name,
		       COALESCE(a.id, ''), COALESCE(a.name, ''),
		       COALESCE(s.id, ''), COALESCE(s.name, ''),
		       COALESCE(i.id, ''), COALESCE(i.name, ''), COALESCE(i.unit, '')
		FROM category_types t
		LEFT JOIN category_areas a
		       ON a.type_id = t.id AND (a.user_id IS NULL OR a.user_id = ?)
		LEFT JOIN category_subcategories s
		       ON s.area_id = a.id AND (s.user_id IS NULL OR s.user_id = ?)
		LEFT JOIN category_items i
		       ON i.subcategory_id = s.id AND (i.user_id IS NULL OR i.user_id = ?)
		WHERE t.user_id IS NULL OR t.user_id = ?
		ORDER BY t.rowid, a.rowid, s.rowid, i.rowid`,
		userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list category rows: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryRow
	for rows.Next() {
		var c core.CategoryRow
		if err := rows.Scan(&c.N1ID, &c.N1, &c.N2ID, &c.N2, &c.N3ID, &c.N3, &c.N4ID, &c.N4, &c.Unit); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountCategoryTypes returns how many top-level categories exist in total.
func (r *SQLiteRepository) CountCategoryTypes(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM category_types`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count category types: %w", err)
	}
	return n, nil
}

// levelTable describes one level of the category tree.
type levelTable struct {
	table     string
	parentCol string
}

var (
	typesTable         = levelTable{table: "category_types"}
	areasTable         = levelTable{table: "category_areas", parentCol: "type_id"}
	subcategoriesTable = levelTable{table: "category_subcategories", parentCol: "area_id"}
	itemsTable         = levelTable{table: "category_items", parentCol: "subcategory_id"}
)

// ImportCategoryRows merges flattened rows into the tree. Levels are matched
// by name under the same parent, among shared nodes and the owner's; missing
// ones are created, reusing the row's id when it is free. An empty userID
// imports shared categories. It returns how many tree nodes were created.
func (r *SQLiteRepository) ImportCategoryRows(ctx context.Context, userID string, rows []core.CategoryRow) (int, error) {
	var owner any
	if userID != "" {
		owner = userID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	created := 0
	ensure := func(lt levelTable, parentID, id, name string) (string, error) {
		nodeID, isNew, err := ensureLevel(ctx, tx, lt, owner, parentID, id, name)
		if isNew {
			created++
		}
		return nodeID, err
	}

	for i, row := range rows {
		if strings.TrimSpace(row.N1) == "" {
			return 0, fmt.Errorf("row %d: %w", i+1, core.ErrEmptyType)
		}
		typeID, err := ensure(typesTable, "", row.N1ID, row.N1)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if row.N2 == "" {
			continue
		}
		areaID, err := ensure(areasTable, typeID, row.N2ID, row.N2)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if row.N3 == "" {
			continue
		}
		subID, err := ensure(subcategoriesTable, areaID, row.N3ID, row.N3)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if row.N4 == "" {
			continue
		}
		itemID, err := ensure(itemsTable, subID, row.N4ID, row.N4)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if row.Unit != "" {
			if _, err := tx.ExecContext(ctx, `UPDATE category_items SET unit = ? WHERE id = ?`, row.Unit, itemID); err != nil {
				return 0, fmt.Errorf("row %d: set unit: %w", i+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return created, nil
}

func ensureLevel(ctx context.Context, tx *sql.Tx, lt levelTable, owner any, parentID, id, name string) (string, bool, error) {
	name = strings.TrimSpace(name)

	query := `SELECT id FROM ` + lt.table + ` WHERE name = ? AND (user_id IS ? OR user_id IS NULL)`
	args := []any{name, owner}
	if lt.parentCol != "" {
		query += ` AND ` + lt.parentCol + ` = ?`
		args = append(args, parentID)
	}

	var existing string
	err := tx.QueryRowContext(ctx, query, args...).Scan(&existing)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", false, fmt.Errorf("find %s %q: %w", lt.table, name, err)
	}

	if id != "" {
		var taken int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+lt.table+` WHERE id = ?`, id).Scan(&taken)
		if err != nil {
			return "", false, fmt.Errorf("check %s id: %w", lt.table, err)
		}
		if taken > 0 {
			id = ""
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	if lt.parentCol == "" {
		_, err = tx.ExecContext(ctx, `INSERT INTO `+lt.table+` (id, user_id, name) VALUES (?, ?, ?)`, id, owner, name)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO `+lt.table+` (id, `+lt.parentCol+`, user_id, name) VALUES (?, ?, ?, ?)`,
			id, parentID, owner, name)
	}
	if err != nil {
		return "", false, fmt.Errorf("insert %s %q: %w", lt.table, name, err)
	}
	return id, true, nil
}

// ListItems returns shared items (empty user id) followed by the user's own,
// oldest first. A user item shadows a shared one with the same name.
func (r *SQLiteRepository) ListItems(ctx context.Context, userID string) ([]core.CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, c.n1, c.n2, c.n3, c.default_unit
		FROM catalog_items c
		WHERE c.user_id = ?
		   OR (c.user_id = '' AND NOT EXISTS (
		       SELECT 1 FROM catalog_items o WHERE o.user_id = ? AND o.name_key = c.name_key))
		ORDER BY c.user_id <> '', c.rowid`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []core.CatalogItem
	for rows.Next() {
		var it core.CatalogItem
		if err := rows.Scan(&it.Name, &it.N1, &it.N2, &it.N3, &it.DefaultUnit); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpsertItem saves an item keyed by its case-folded name.
func (r *SQLiteRepository) UpsertItem(ctx context.Context, userID string, item core.CatalogItem) error {
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return core.ErrEmptyItem
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalog_items (user_id, name_key, name, n1, n2, n3, default_unit)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name_key) DO UPDATE SET
			name = excluded.name,
			n1 = excluded.n1,
			n2 = excluded.n2,
			n3 = excluded.n3,
			default_unit = excluded.default_unit,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		userID, strings.ToLower(name), name, item.N1, item.N2, item.N3, item.DefaultUnit)
	if err != nil {
		return fmt.Errorf("upsert item %q: %w", name, err)
	}
	return nil
}
