package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inventory-platform/pkg/utils"
)

// PostgresRepo reads the audit_logs table. Reads are idempotent and go
// through the bounded-retry helper; transient datastore errors surface only
// after retries exhaust.
type PostgresRepo struct {
	db    *sql.DB
	retry utils.RetryConfig
}

func NewPostgresRepo(db *sql.DB, retry utils.RetryConfig) *PostgresRepo {
	return &PostgresRepo{db: db, retry: retry}
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Record, error) {
	where := []string{"workspace_id = $1"}
	args := []any{q.WorkspaceID}

	if q.Operation != "" {
		args = append(args, q.Operation)
		where = append(where, fmt.Sprintf("operation = $%d", len(args)))
	}
	if q.TableName != "" {
		args = append(args, q.TableName)
		where = append(where, fmt.Sprintf("table_name = $%d", len(args)))
	}
	if q.UserID != "" {
		args = append(args, q.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if q.From != nil {
		args = append(args, *q.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	args = append(args, q.Limit)
	query := fmt.Sprintf(`
SELECT id, workspace_id, table_name, record_id, operation, user_id, before_state, after_state, created_at
FROM audit_logs
WHERE %s
ORDER BY created_at DESC, id DESC
LIMIT $%d
`, strings.Join(where, " AND "), len(args))

	var out []Record
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		recs := make([]Record, 0)
		for rows.Next() {
			var rec Record
			var before, after sql.Null[[]byte]
			if err := rows.Scan(
				&rec.ID,
				&rec.WorkspaceID,
				&rec.TableName,
				&rec.RecordID,
				&rec.Operation,
				&rec.UserID,
				&before,
				&after,
				&rec.CreatedAt,
			); err != nil {
				return err
			}
			if before.Valid {
				rec.BeforeState = before.V
			}
			if after.Valid {
				rec.AfterState = after.V
			}
			recs = append(recs, rec)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = recs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Stats(ctx context.Context, q StatsQuery) (Stats, error) {
	where := []string{"workspace_id = $1"}
	args := []any{q.WorkspaceID}

	if q.From != nil {
		args = append(args, *q.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	windowed := fmt.Sprintf(`
SELECT COUNT(*),
       COUNT(DISTINCT user_id),
       COUNT(*) FILTER (WHERE operation = 'DELETE')
FROM audit_logs
WHERE %s
`, strings.Join(where, " AND "))

	// OperationsToday is always relative to the current day, independent of
	// the requested window, so it gets its own query.
	const todayQuery = `
SELECT COUNT(*) FROM audit_logs WHERE workspace_id = $1 AND created_at >= $2
`

	var out Stats
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		var s Stats
		if err := r.db.QueryRowContext(ctx, windowed, args...).Scan(
			&s.TotalOperations,
			&s.ActiveUsers,
			&s.Deletions,
		); err != nil {
			return err
		}
		if err := r.db.QueryRowContext(ctx, todayQuery, q.WorkspaceID, q.DayStart).Scan(&s.OperationsToday); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("audit: stats: %w", err)
	}
	return out, nil
}
