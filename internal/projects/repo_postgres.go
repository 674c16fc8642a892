package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-platform/internal/audit"
	"inventory-platform/pkg/utils"

	"github.com/google/uuid"
)

const (
	tableProjects = "projects"
	tableTasks    = "tasks"
)

type PostgresRepo struct {
	db      *sql.DB
	auditor *audit.Recorder
	retry   utils.RetryConfig
}

func NewPostgresRepo(db *sql.DB, auditor *audit.Recorder, retry utils.RetryConfig) *PostgresRepo {
	return &PostgresRepo{db: db, auditor: auditor, retry: retry}
}

func (r *PostgresRepo) CreateProject(ctx context.Context, p Project, actorID string) (Project, error) {
	p.ID = uuid.NewString()
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const ins = `
INSERT INTO projects (id, workspace_id, name, description, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
		if _, err := tx.ExecContext(ctx, ins, p.ID, p.WorkspaceID, p.Name, nullString(p.Description), p.Status, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("projects: create: %w", err)
		}
		_, err := r.auditor.RecordInsert(ctx, tx, p.WorkspaceID, tableProjects, p.ID, actorID, p)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

func (r *PostgresRepo) GetProject(ctx context.Context, workspaceID, id string) (Project, error) {
	const q = `
SELECT id, workspace_id, name, description, status, created_at, updated_at
FROM projects
WHERE workspace_id = $1 AND id = $2
`
	var p Project
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		got, err := scanProject(r.db.QueryRowContext(ctx, q, workspaceID, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return utils.Unrecoverable(ErrNotFound)
			}
			return err
		}
		p = got
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("projects: get: %w", err)
	}
	return p, nil
}

func (r *PostgresRepo) ListProjects(ctx context.Context, workspaceID string, status ProjectStatus) ([]Project, error) {
	q := `
SELECT id, workspace_id, name, description, status, created_at, updated_at
FROM projects
WHERE workspace_id = $1
`
	args := []any{workspaceID}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	var out []Project
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		projects := make([]Project, 0)
		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			projects = append(projects, p)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = projects
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("projects: list: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) UpdateProject(ctx context.Context, p Project, actorID string) (Project, error) {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		before, err := lockProject(ctx, tx, p.WorkspaceID, p.ID)
		if err != nil {
			return err
		}
		const upd = `
UPDATE projects
SET name = $1, description = $2, status = $3, updated_at = $4
WHERE workspace_id = $5 AND id = $6
`
		if _, err := tx.ExecContext(ctx, upd, p.Name, nullString(p.Description), p.Status, p.UpdatedAt, p.WorkspaceID, p.ID); err != nil {
			return fmt.Errorf("projects: update: %w", err)
		}
		_, err = r.auditor.RecordUpdate(ctx, tx, p.WorkspaceID, tableProjects, p.ID, actorID, before, p)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

// DeleteProject removes the project and its tasks. Each removed row gets
// its own DELETE audit record so every one is individually recoverable.
func (r *PostgresRepo) DeleteProject(ctx context.Context, workspaceID, id, actorID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		before, err := lockProject(ctx, tx, workspaceID, id)
		if err != nil {
			return err
		}

		const selTasks = `
SELECT id, workspace_id, project_id, kind, title, status, position, assignee_id, created_at, updated_at
FROM tasks
WHERE workspace_id = $1 AND project_id = $2
FOR UPDATE
`
		rows, err := tx.QueryContext(ctx, selTasks, workspaceID, id)
		if err != nil {
			return err
		}
		tasks := make([]Task, 0)
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				rows.Close()
				return err
			}
			tasks = append(tasks, t)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE workspace_id = $1 AND project_id = $2`, workspaceID, id); err != nil {
			return fmt.Errorf("projects: delete tasks: %w", err)
		}
		for _, t := range tasks {
			if _, err := r.auditor.RecordDelete(ctx, tx, workspaceID, tableTasks, t.ID, actorID, t, t.Title, ""); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE workspace_id = $1 AND id = $2`, workspaceID, id); err != nil {
			return fmt.Errorf("projects: delete: %w", err)
		}
		_, err = r.auditor.RecordDelete(ctx, tx, workspaceID, tableProjects, id, actorID, before, before.Name, before.Description)
		return err
	})
}

func (r *PostgresRepo) CreateTask(ctx context.Context, t Task, actorID string) (Task, error) {
	t.ID = uuid.NewString()
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const ins = `
INSERT INTO tasks (id, workspace_id, project_id, kind, title, status, position, assignee_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
		if _, err := tx.ExecContext(ctx, ins, t.ID, t.WorkspaceID, t.ProjectID, t.Kind, t.Title, t.Status, t.Position, nullString(t.AssigneeID), t.CreatedAt, t.UpdatedAt); err != nil {
			return fmt.Errorf("projects: create task: %w", err)
		}
		_, err := r.auditor.RecordInsert(ctx, tx, t.WorkspaceID, tableTasks, t.ID, actorID, t)
		return err
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

func (r *PostgresRepo) GetTask(ctx context.Context, workspaceID, id string) (Task, error) {
	const q = `
SELECT id, workspace_id, project_id, kind, title, status, position, assignee_id, created_at, updated_at
FROM tasks
WHERE workspace_id = $1 AND id = $2
`
	var t Task
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		got, err := scanTask(r.db.QueryRowContext(ctx, q, workspaceID, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return utils.Unrecoverable(ErrNotFound)
			}
			return err
		}
		t = got
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("projects: get task: %w", err)
	}
	return t, nil
}

func (r *PostgresRepo) ListTasks(ctx context.Context, workspaceID, projectID string, kind TaskKind) ([]Task, error) {
	q := `
SELECT id, workspace_id, project_id, kind, title, status, position, assignee_id, created_at, updated_at
FROM tasks
WHERE workspace_id = $1 AND project_id = $2
`
	args := []any{workspaceID, projectID}
	if kind != "" {
		q += ` AND kind = $3`
		args = append(args, kind)
	}
	q += ` ORDER BY kind ASC, position ASC, id ASC`

	var out []Task
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		tasks := make([]Task, 0)
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = tasks
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("projects: list tasks: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) UpdateTask(ctx context.Context, t Task, actorID string) (Task, error) {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const sel = `
SELECT id, workspace_id, project_id, kind, title, status, position, assignee_id, created_at, updated_at
FROM tasks
WHERE workspace_id = $1 AND id = $2
FOR UPDATE
`
		before, err := scanTask(tx.QueryRowContext(ctx, sel, t.WorkspaceID, t.ID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		const upd = `
UPDATE tasks
SET title = $1, status = $2, position = $3, assignee_id = $4, updated_at = $5
WHERE workspace_id = $6 AND id = $7
`
		if _, err := tx.ExecContext(ctx, upd, t.Title, t.Status, t.Position, nullString(t.AssigneeID), t.UpdatedAt, t.WorkspaceID, t.ID); err != nil {
			return fmt.Errorf("projects: update task: %w", err)
		}
		_, err = r.auditor.RecordUpdate(ctx, tx, t.WorkspaceID, tableTasks, t.ID, actorID, before, t)
		return err
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

func (r *PostgresRepo) DeleteTask(ctx context.Context, workspaceID, id, actorID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const sel = `
SELECT id, workspace_id, project_id, kind, title, status, position, assignee_id, created_at, updated_at
FROM tasks
WHERE workspace_id = $1 AND id = $2
FOR UPDATE
`
		before, err := scanTask(tx.QueryRowContext(ctx, sel, workspaceID, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE workspace_id = $1 AND id = $2`, workspaceID, id); err != nil {
			return fmt.Errorf("projects: delete task: %w", err)
		}
		_, err = r.auditor.RecordDelete(ctx, tx, workspaceID, tableTasks, id, actorID, before, before.Title, "")
		return err
	})
}

func (r *PostgresRepo) NextTaskPosition(ctx context.Context, workspaceID, projectID string, kind TaskKind) (int, error) {
	const q = `
SELECT COALESCE(MAX(position), -1) + 1
FROM tasks
WHERE workspace_id = $1 AND project_id = $2 AND kind = $3
`
	var pos int
	err := utils.RetryRead(ctx, r.retry, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, q, workspaceID, projectID, kind).Scan(&pos)
	})
	if err != nil {
		return 0, fmt.Errorf("projects: next position: %w", err)
	}
	return pos, nil
}

func lockProject(ctx context.Context, tx *sql.Tx, workspaceID, id string) (Project, error) {
	const sel = `
SELECT id, workspace_id, name, description, status, created_at, updated_at
FROM projects
WHERE workspace_id = $1 AND id = $2
FOR UPDATE
`
	p, err := scanProject(tx.QueryRowContext(ctx, sel, workspaceID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var desc sql.NullString
	err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &desc, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	p.Description = desc.String
	return p, nil
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	var assignee sql.NullString
	err := row.Scan(&t.ID, &t.WorkspaceID, &t.ProjectID, &t.Kind, &t.Title, &t.Status, &t.Position, &assignee, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	t.AssigneeID = assignee.String
	return t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
