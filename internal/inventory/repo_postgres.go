package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventory-platform/internal/audit"
	"inventory-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const (
	tableItems      = "inventory_items"
	tableCategories = "categories"
	tableLocations  = "locations"
)

// PostgresRepo persists inventory rows. Every mutation shares a transaction
// with its audit record.
type PostgresRepo struct {
	db      *sql.DB
	auditor *audit.Recorder
	retry   utils.RetryConfig
}

func NewPostgresRepo(db *sql.DB, auditor *audit.Recorder, retry utils.RetryConfig) *PostgresRepo {
	return &PostgresRepo{db: db, auditor: auditor, retry: retry}
}

func (r *PostgresRepo) CreateItem(ctx context.Context, item Item, actorID string) (Item, error) {
	item.ID = uuid.NewString()

	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const ins = `
INSERT INTO inventory_items
  (id, workspace_id, sku, name, description, category_id, location_id,
   quantity, unit_price_minor, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
		_, err := tx.ExecContext(ctx, ins,
			item.ID, item.WorkspaceID, item.SKU, item.Name,
			nullString(item.Description), nullString(item.CategoryID), nullString(item.LocationID),
			item.Quantity, item.UnitPriceMinor, item.Status, item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			return mapPgError(err, "inventory: create item")
		}
		_, err = r.auditor.RecordInsert(ctx, tx, item.WorkspaceID, tableItems, item.ID, actorID, item)
		return err
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func (r *PostgresRepo) GetItem(ctx context.Context, workspaceID, id string) (Item, error) {
	const q = `
SELECT id, workspace_id, sku, name, description, category_id, location_id,
       quantity, unit_price_minor, status, created_at, updated_at
FROM inventory_items
WHERE workspace_id = $1 AND id = $2
`
	var item Item
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		got, err := scanItem(r.db.QueryRowContext(ctx, q, workspaceID, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return utils.Unrecoverable(ErrNotFound)
			}
			return err
		}
		item = got
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("inventory: get item: %w", err)
	}
	return item, nil
}

func (r *PostgresRepo) ListItems(ctx context.Context, q ItemQuery) ([]Item, int64, error) {
	where := []string{"workspace_id = $1"}
	args := []any{q.WorkspaceID}

	if q.CategoryID != "" {
		args = append(args, q.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if q.LocationID != "" {
		args = append(args, q.LocationID)
		where = append(where, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("(sku ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}

	cond := strings.Join(where, " AND ")
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM inventory_items WHERE %s`, cond)

	listArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	listQuery := fmt.Sprintf(`
SELECT id, workspace_id, sku, name, description, category_id, location_id,
       quantity, unit_price_minor, status, created_at, updated_at
FROM inventory_items
WHERE %s
ORDER BY name ASC, id ASC
LIMIT $%d OFFSET $%d
`, cond, len(args)+1, len(args)+2)

	var items []Item
	var total int64
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
			return err
		}
		rows, err := r.db.QueryContext(ctx, listQuery, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out := make([]Item, 0)
		for rows.Next() {
			item, err := scanItem(rows)
			if err != nil {
				return err
			}
			out = append(out, item)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		items = out
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("inventory: list items: %w", err)
	}
	return items, total, nil
}

func (r *PostgresRepo) UpdateItem(ctx context.Context, item Item, actorID string) (Item, error) {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		before, err := selectItemForUpdate(ctx, tx, item.WorkspaceID, item.ID)
		if err != nil {
			return err
		}

		const upd = `
UPDATE inventory_items
SET name = $1, description = $2, category_id = $3, location_id = $4,
    quantity = $5, unit_price_minor = $6, status = $7, updated_at = $8
WHERE workspace_id = $9 AND id = $10
`
		_, err = tx.ExecContext(ctx, upd,
			item.Name, nullString(item.Description), nullString(item.CategoryID), nullString(item.LocationID),
			item.Quantity, item.UnitPriceMinor, item.Status, item.UpdatedAt,
			item.WorkspaceID, item.ID,
		)
		if err != nil {
			return mapPgError(err, "inventory: update item")
		}
		_, err = r.auditor.RecordUpdate(ctx, tx, item.WorkspaceID, tableItems, item.ID, actorID, before, item)
		return err
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func (r *PostgresRepo) DeleteItem(ctx context.Context, workspaceID, id, actorID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		before, err := selectItemForUpdate(ctx, tx, workspaceID, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM inventory_items WHERE workspace_id = $1 AND id = $2`,
			workspaceID, id,
		); err != nil {
			return fmt.Errorf("inventory: delete item: %w", err)
		}
		_, err = r.auditor.RecordDelete(ctx, tx, workspaceID, tableItems, id, actorID,
			before, before.Name, before.Description)
		return err
	})
}

func (r *PostgresRepo) CreateCategory(ctx context.Context, c Category, actorID string) (Category, error) {
	c.ID = uuid.NewString()
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const ins = `
INSERT INTO categories (id, workspace_id, name, description, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
		_, err := tx.ExecContext(ctx, ins, c.ID, c.WorkspaceID, c.Name, nullString(c.Description), c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return mapPgError(err, "inventory: create category")
		}
		_, err = r.auditor.RecordInsert(ctx, tx, c.WorkspaceID, tableCategories, c.ID, actorID, c)
		return err
	})
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (r *PostgresRepo) ListCategories(ctx context.Context, workspaceID string) ([]Category, error) {
	const q = `
SELECT id, workspace_id, name, description, created_at, updated_at
FROM categories
WHERE workspace_id = $1
ORDER BY name ASC
`
	var cats []Category
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, q, workspaceID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out := make([]Category, 0)
		for rows.Next() {
			var c Category
			var desc sql.NullString
			if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return err
			}
			c.Description = desc.String
			out = append(out, c)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		cats = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: list categories: %w", err)
	}
	return cats, nil
}

func (r *PostgresRepo) DeleteCategory(ctx context.Context, workspaceID, id, actorID string) error {
	return r.deleteNamed(ctx, tableCategories, workspaceID, id, actorID)
}

func (r *PostgresRepo) CreateLocation(ctx context.Context, l Location, actorID string) (Location, error) {
	l.ID = uuid.NewString()
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const ins = `
INSERT INTO locations (id, workspace_id, name, description, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
		_, err := tx.ExecContext(ctx, ins, l.ID, l.WorkspaceID, l.Name, nullString(l.Description), l.CreatedAt, l.UpdatedAt)
		if err != nil {
			return mapPgError(err, "inventory: create location")
		}
		_, err = r.auditor.RecordInsert(ctx, tx, l.WorkspaceID, tableLocations, l.ID, actorID, l)
		return err
	})
	if err != nil {
		return Location{}, err
	}
	return l, nil
}

func (r *PostgresRepo) ListLocations(ctx context.Context, workspaceID string) ([]Location, error) {
	const q = `
SELECT id, workspace_id, name, description, created_at, updated_at
FROM locations
WHERE workspace_id = $1
ORDER BY name ASC
`
	var locs []Location
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, q, workspaceID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out := make([]Location, 0)
		for rows.Next() {
			var l Location
			var desc sql.NullString
			if err := rows.Scan(&l.ID, &l.WorkspaceID, &l.Name, &desc, &l.CreatedAt, &l.UpdatedAt); err != nil {
				return err
			}
			l.Description = desc.String
			out = append(out, l)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		locs = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: list locations: %w", err)
	}
	return locs, nil
}

func (r *PostgresRepo) DeleteLocation(ctx context.Context, workspaceID, id, actorID string) error {
	return r.deleteNamed(ctx, tableLocations, workspaceID, id, actorID)
}

// deleteNamed handles categories and locations, which share a shape.
// The table name is one of the package constants, never caller input.
func (r *PostgresRepo) deleteNamed(ctx context.Context, table, workspaceID, id, actorID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		sel := fmt.Sprintf(`
SELECT id, workspace_id, name, description, created_at, updated_at
FROM %s
WHERE workspace_id = $1 AND id = $2
FOR UPDATE
`, table)
		var before Category
		var desc sql.NullString
		err := tx.QueryRowContext(ctx, sel, workspaceID, id).Scan(
			&before.ID, &before.WorkspaceID, &before.Name, &desc, &before.CreatedAt, &before.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		before.Description = desc.String

		del := fmt.Sprintf(`DELETE FROM %s WHERE workspace_id = $1 AND id = $2`, table)
		if _, err := tx.ExecContext(ctx, del, workspaceID, id); err != nil {
			return fmt.Errorf("inventory: delete from %s: %w", table, err)
		}
		_, err = r.auditor.RecordDelete(ctx, tx, workspaceID, table, id, actorID,
			before, before.Name, before.Description)
		return err
	})
}

func selectItemForUpdate(ctx context.Context, tx *sql.Tx, workspaceID, id string) (Item, error) {
	const sel = `
SELECT id, workspace_id, sku, name, description, category_id, location_id,
       quantity, unit_price_minor, status, created_at, updated_at
FROM inventory_items
WHERE workspace_id = $1 AND id = $2
FOR UPDATE
`
	item, err := scanItem(tx.QueryRowContext(ctx, sel, workspaceID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var desc, categoryID, locationID sql.NullString
	err := row.Scan(
		&item.ID,
		&item.WorkspaceID,
		&item.SKU,
		&item.Name,
		&desc,
		&categoryID,
		&locationID,
		&item.Quantity,
		&item.UnitPriceMinor,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Item{}, err
	}
	item.Description = desc.String
	item.CategoryID = categoryID.String
	item.LocationID = locationID.String
	return item, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func mapPgError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
