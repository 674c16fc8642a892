package users

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
	mu    sync.Mutex
	users map[string]User
	ops   []AuditEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: map[string]User{}}
}

func (r *MemoryRepo) AuditLog() []AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEntry, len(r.ops))
	copy(out, r.ops)
	return out
}

func (r *MemoryRepo) Create(ctx context.Context, u User, actorID string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.WorkspaceID == u.WorkspaceID && existing.Email == u.Email {
			return User{}, ErrConflict
		}
	}
	u.ID = uuid.NewString()
	r.users[u.ID] = u
	r.ops = append(r.ops, AuditEntry{Table: tableUsers, RecordID: u.ID, Op: audit.OpInsert, ActorID: actorID})
	return u, nil
}

func (r *MemoryRepo) Get(ctx context.Context, workspaceID, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.WorkspaceID != workspaceID {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, workspaceID, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.WorkspaceID == workspaceID && u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, workspaceID string) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0)
	for _, u := range r.users {
		if u.WorkspaceID == workspaceID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, u User, actorID string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok || cur.WorkspaceID != u.WorkspaceID {
		return User{}, ErrNotFound
	}
	r.users[u.ID] = u
	r.ops = append(r.ops, AuditEntry{Table: tableUsers, RecordID: u.ID, Op: audit.OpUpdate, ActorID: actorID})
	return u, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, workspaceID, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(r.users, id)
	r.ops = append(r.ops, AuditEntry{Table: tableUsers, RecordID: id, Op: audit.OpDelete, ActorID: actorID})
	return nil
}
