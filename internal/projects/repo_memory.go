package projects

import (
	"context"
	"sort"
	"sync"

	"inventory-platform/internal/audit"

	"github.com/google/uuid"
)

type AuditEntry struct {
	Table    string
	RecordID string
	Op       audit.Operation
	ActorID  string
}

type MemoryRepo struct {
	mu       sync.Mutex
	projects map[string]Project
	tasks    map[string]Task
	ops      []AuditEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{projects: map[string]Project{}, tasks: map[string]Task{}}
}

func (r *MemoryRepo) AuditLog() []AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEntry, len(r.ops))
	copy(out, r.ops)
	return out
}

func (r *MemoryRepo) record(table, recordID string, op audit.Operation, actorID string) {
	r.ops = append(r.ops, AuditEntry{Table: table, RecordID: recordID, Op: op, ActorID: actorID})
}

func (r *MemoryRepo) CreateProject(ctx context.Context, p Project, actorID string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.NewString()
	r.projects[p.ID] = p
	r.record(tableProjects, p.ID, audit.OpInsert, actorID)
	return p, nil
}

func (r *MemoryRepo) GetProject(ctx context.Context, workspaceID, id string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.WorkspaceID != workspaceID {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) ListProjects(ctx context.Context, workspaceID string, status ProjectStatus) ([]Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Project, 0)
	for _, p := range r.projects {
		if p.WorkspaceID != workspaceID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) UpdateProject(ctx context.Context, p Project, actorID string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.projects[p.ID]
	if !ok || cur.WorkspaceID != p.WorkspaceID {
		return Project{}, ErrNotFound
	}
	r.projects[p.ID] = p
	r.record(tableProjects, p.ID, audit.OpUpdate, actorID)
	return p, nil
}

func (r *MemoryRepo) DeleteProject(ctx context.Context, workspaceID, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	// Cascade, one audit entry per removed row.
	taskIDs := make([]string, 0)
	for tid, t := range r.tasks {
		if t.WorkspaceID == workspaceID && t.ProjectID == id {
			taskIDs = append(taskIDs, tid)
		}
	}
	sort.Strings(taskIDs)
	for _, tid := range taskIDs {
		delete(r.tasks, tid)
		r.record(tableTasks, tid, audit.OpDelete, actorID)
	}
	delete(r.projects, id)
	r.record(tableProjects, id, audit.OpDelete, actorID)
	return nil
}

func (r *MemoryRepo) CreateTask(ctx context.Context, t Task, actorID string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.NewString()
	r.tasks[t.ID] = t
	r.record(tableTasks, t.ID, audit.OpInsert, actorID)
	return t, nil
}

func (r *MemoryRepo) GetTask(ctx context.Context, workspaceID, id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.WorkspaceID != workspaceID {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) ListTasks(ctx context.Context, workspaceID, projectID string, kind TaskKind) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, 0)
	for _, t := range r.tasks {
		if t.WorkspaceID != workspaceID || t.ProjectID != projectID {
			continue
		}
		if kind != "" && t.Kind != kind {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) UpdateTask(ctx context.Context, t Task, actorID string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tasks[t.ID]
	if !ok || cur.WorkspaceID != t.WorkspaceID {
		return Task{}, ErrNotFound
	}
	r.tasks[t.ID] = t
	r.record(tableTasks, t.ID, audit.OpUpdate, actorID)
	return t, nil
}

func (r *MemoryRepo) DeleteTask(ctx context.Context, workspaceID, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(r.tasks, id)
	r.record(tableTasks, id, audit.OpDelete, actorID)
	return nil
}

func (r *MemoryRepo) NextTaskPosition(ctx context.Context, workspaceID, projectID string, kind TaskKind) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := -1
	for _, t := range r.tasks {
		if t.WorkspaceID == workspaceID && t.ProjectID == projectID && t.Kind == kind && t.Position > max {
			max = t.Position
		}
	}
	return max + 1, nil
}
