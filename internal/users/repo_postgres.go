package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-platform/internal/audit"
	"inventory-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	tableUsers        = "users"
)

type PostgresRepo struct {
	db      *sql.DB
	auditor *audit.Recorder
	retry   utils.RetryConfig
}

func NewPostgresRepo(db *sql.DB, auditor *audit.Recorder, retry utils.RetryConfig) *PostgresRepo {
	return &PostgresRepo{db: db, auditor: auditor, retry: retry}
}

func (r *PostgresRepo) Create(ctx context.Context, u User, actorID string) (User, error) {
	u.ID = uuid.NewString()
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const ins = `
INSERT INTO users (id, workspace_id, email, name, role, status, password_hash, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
		_, err := tx.ExecContext(ctx, ins, u.ID, u.WorkspaceID, u.Email, u.Name, u.Role, u.Status, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return ErrConflict
			}
			return fmt.Errorf("users: create: %w", err)
		}
		_, err = r.auditor.RecordInsert(ctx, tx, u.WorkspaceID, tableUsers, u.ID, actorID, u.rowImage())
		return err
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

const selectUser = `
SELECT id, workspace_id, email, name, role, status, password_hash, created_at, updated_at
FROM users
`

func (r *PostgresRepo) Get(ctx context.Context, workspaceID, id string) (User, error) {
	return r.getOne(ctx, selectUser+`WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, workspaceID, email string) (User, error) {
	return r.getOne(ctx, selectUser+`WHERE workspace_id = $1 AND email = $2`, workspaceID, email)
}

func (r *PostgresRepo) getOne(ctx context.Context, q string, args ...any) (User, error) {
	var u User
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		got, err := scanUser(r.db.QueryRowContext(ctx, q, args...))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return utils.Unrecoverable(ErrNotFound)
			}
			return err
		}
		u = got
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

func (r *PostgresRepo) List(ctx context.Context, workspaceID string) ([]User, error) {
	q := selectUser + `WHERE workspace_id = $1 ORDER BY email ASC`

	var out []User
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, q, workspaceID)
		if err != nil {
			return err
		}
		defer rows.Close()

		list := make([]User, 0)
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			list = append(list, u)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Update(ctx context.Context, u User, actorID string) (User, error) {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		before, err := lockUser(ctx, tx, u.WorkspaceID, u.ID)
		if err != nil {
			return err
		}
		const upd = `
UPDATE users
SET name = $1, role = $2, status = $3, updated_at = $4
WHERE workspace_id = $5 AND id = $6
`
		if _, err := tx.ExecContext(ctx, upd, u.Name, u.Role, u.Status, u.UpdatedAt, u.WorkspaceID, u.ID); err != nil {
			return fmt.Errorf("users: update: %w", err)
		}
		_, err = r.auditor.RecordUpdate(ctx, tx, u.WorkspaceID, tableUsers, u.ID, actorID, before.rowImage(), u.rowImage())
		return err
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, workspaceID, id, actorID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		before, err := lockUser(ctx, tx, workspaceID, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE workspace_id = $1 AND id = $2`, workspaceID, id); err != nil {
			return fmt.Errorf("users: delete: %w", err)
		}
		_, err = r.auditor.RecordDelete(ctx, tx, workspaceID, tableUsers, id, actorID, before.rowImage(), before.Name, before.Email)
		return err
	})
}

func lockUser(ctx context.Context, tx *sql.Tx, workspaceID, id string) (User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx, selectUser+`WHERE workspace_id = $1 AND id = $2 FOR UPDATE`, workspaceID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.WorkspaceID, &u.Email, &u.Name, &u.Role, &u.Status, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}
