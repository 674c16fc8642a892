package trash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-platform/internal/audit"
	"inventory-platform/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepo persists the soft-delete ledger. Recovery is the one write
// path here and runs as a single transaction: snapshot re-insert, recovery
// audit record, recovered marker — all or nothing.
type PostgresRepo struct {
	db      *sql.DB
	auditor *audit.Recorder
	retry   utils.RetryConfig
}

func NewPostgresRepo(db *sql.DB, auditor *audit.Recorder, retry utils.RetryConfig) *PostgresRepo {
	return &PostgresRepo{db: db, auditor: auditor, retry: retry}
}

func (r *PostgresRepo) List(ctx context.Context, q ListQuery) ([]DeletedItem, int64, error) {
	where := []string{"workspace_id = $1", "recovered_at IS NULL"}
	args := []any{q.WorkspaceID}

	if q.TableName != "" {
		args = append(args, q.TableName)
		where = append(where, fmt.Sprintf("table_name = $%d", len(args)))
	}
	if q.DeletedBy != "" {
		args = append(args, q.DeletedBy)
		where = append(where, fmt.Sprintf("deleted_by = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("(item_name ILIKE $%d OR item_description ILIKE $%d)", len(args), len(args)))
	}

	cond := strings.Join(where, " AND ")
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM deleted_items WHERE %s`, cond)

	listArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	listQuery := fmt.Sprintf(`
SELECT id, workspace_id, table_name, record_id, audit_log_id,
       item_name, item_description, snapshot, deleted_by, deleted_at,
       recovered_at, recovered_by, recovery_reason
FROM deleted_items
WHERE %s
ORDER BY deleted_at DESC, id DESC
LIMIT $%d OFFSET $%d
`, cond, len(args)+1, len(args)+2)

	var items []DeletedItem
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

		out := make([]DeletedItem, 0)
		for rows.Next() {
			item, err := scanDeletedItem(rows)
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
		return nil, 0, fmt.Errorf("trash: list: %w", err)
	}
	return items, total, nil
}

func (r *PostgresRepo) Recover(ctx context.Context, p RecoverParams) (DeletedItem, error) {
	var out DeletedItem

	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const sel = `
SELECT id, workspace_id, table_name, record_id, audit_log_id,
       item_name, item_description, snapshot, deleted_by, deleted_at,
       recovered_at, recovered_by, recovery_reason
FROM deleted_items
WHERE workspace_id = $1 AND id = $2
FOR UPDATE
`
		row := tx.QueryRowContext(ctx, sel, p.WorkspaceID, p.ID)
		item, err := scanDeletedItem(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if !item.Active() {
			return ErrAlreadyRecovered
		}
		if !audit.IsTracked(item.TableName) {
			return fmt.Errorf("trash: table %q is not recoverable", item.TableName)
		}

		// Re-insert the captured state. The table name is interpolated but
		// constrained to the tracked-tables allowlist above.
		ins := fmt.Sprintf(
			`INSERT INTO %s SELECT * FROM jsonb_populate_record(NULL::%s, $1::jsonb)`,
			item.TableName, item.TableName,
		)
		if _, err := tx.ExecContext(ctx, ins, []byte(item.Snapshot)); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return ErrConflict
			}
			return fmt.Errorf("trash: re-insert: %w", err)
		}

		// The re-insert is itself a tracked mutation.
		if _, err := r.auditor.RecordInsert(ctx, tx, item.WorkspaceID, item.TableName, item.RecordID, p.ActorID, item.Snapshot); err != nil {
			return err
		}

		const mark = `
UPDATE deleted_items
SET recovered_at = $1, recovered_by = $2, recovery_reason = $3
WHERE id = $4
`
		if _, err := tx.ExecContext(ctx, mark, p.Now, p.ActorID, p.Reason, item.ID); err != nil {
			return fmt.Errorf("trash: mark recovered: %w", err)
		}

		now := p.Now
		item.RecoveredAt = &now
		item.RecoveredBy = p.ActorID
		item.RecoveryReason = p.Reason
		out = item
		return nil
	})
	if err != nil {
		return DeletedItem{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Stats(ctx context.Context, workspaceID string) (Stats, error) {
	const totals = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE recovered_at IS NULL)
FROM deleted_items
WHERE workspace_id = $1
`
	const byTable = `
SELECT table_name, COUNT(*)
FROM deleted_items
WHERE workspace_id = $1 AND recovered_at IS NULL
GROUP BY table_name
`
	var out Stats
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		s := Stats{ByTable: map[string]int64{}}
		if err := r.db.QueryRowContext(ctx, totals, workspaceID).Scan(&s.TotalDeleted, &s.Recoverable); err != nil {
			return err
		}
		rows, err := r.db.QueryContext(ctx, byTable, workspaceID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var table string
			var n int64
			if err := rows.Scan(&table, &n); err != nil {
				return err
			}
			s.ByTable[table] = n
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("trash: stats: %w", err)
	}
	return out, nil
}

// Purge hard-deletes never-recovered ledger entries older than the cutoff.
// An empty workspaceID purges across all workspaces (retention sweeper).
// Audit rows are never touched here.
func (r *PostgresRepo) Purge(ctx context.Context, workspaceID string, olderThan time.Time) (int64, error) {
	where := []string{"recovered_at IS NULL", "deleted_at < $1"}
	args := []any{olderThan}
	if workspaceID != "" {
		args = append(args, workspaceID)
		where = append(where, fmt.Sprintf("workspace_id = $%d", len(args)))
	}
	q := fmt.Sprintf(`DELETE FROM deleted_items WHERE %s`, strings.Join(where, " AND "))

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("trash: purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeletedItem(row rowScanner) (DeletedItem, error) {
	var d DeletedItem
	var desc, recoveredBy, reason sql.NullString
	var recoveredAt sql.NullTime
	var snapshot []byte
	err := row.Scan(
		&d.ID,
		&d.WorkspaceID,
		&d.TableName,
		&d.RecordID,
		&d.AuditLogID,
		&d.ItemName,
		&desc,
		&snapshot,
		&d.DeletedBy,
		&d.DeletedAt,
		&recoveredAt,
		&recoveredBy,
		&reason,
	)
	if err != nil {
		return DeletedItem{}, err
	}
	d.ItemDescription = desc.String
	d.Snapshot = snapshot
	if recoveredAt.Valid {
		t := recoveredAt.Time
		d.RecoveredAt = &t
	}
	d.RecoveredBy = recoveredBy.String
	d.RecoveryReason = reason.String
	return d, nil
}
