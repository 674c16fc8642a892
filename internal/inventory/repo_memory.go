package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"inventory-platform/internal/audit"

	"github.com/google/uuid"
)

// AuditEntry is the in-memory stand-in for a persisted audit row, so tests
// can assert that every mutation produced exactly one.
type AuditEntry struct {
	Table    string
	RecordID string
	Op       audit.Operation
	ActorID  string
}

// MemoryRepo is the test double. It enforces the same uniqueness rules the
// database does (sku per workspace, category/location name per workspace).
type MemoryRepo struct {
	mu         sync.Mutex
	items      map[string]Item
	categories map[string]Category
	locations  map[string]Location
	ops        []AuditEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		items:      map[string]Item{},
		categories: map[string]Category{},
		locations:  map[string]Location{},
	}
}

// AuditLog returns a copy of the recorded audit entries in order.
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

func (r *MemoryRepo) CreateItem(ctx context.Context, item Item, actorID string) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.WorkspaceID == item.WorkspaceID && existing.SKU == item.SKU {
			return Item{}, ErrConflict
		}
	}
	item.ID = uuid.NewString()
	r.items[item.ID] = item
	r.record(tableItems, item.ID, audit.OpInsert, actorID)
	return item, nil
}

func (r *MemoryRepo) GetItem(ctx context.Context, workspaceID, id string) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.WorkspaceID != workspaceID {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (r *MemoryRepo) ListItems(ctx context.Context, q ItemQuery) ([]Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]Item, 0)
	for _, item := range r.items {
		if item.WorkspaceID != q.WorkspaceID {
			continue
		}
		if q.CategoryID != "" && item.CategoryID != q.CategoryID {
			continue
		}
		if q.LocationID != "" && item.LocationID != q.LocationID {
			continue
		}
		if q.Status != "" && item.Status != q.Status {
			continue
		}
		if q.Search != "" {
			needle := strings.ToLower(q.Search)
			if !strings.Contains(strings.ToLower(item.SKU), needle) &&
				!strings.Contains(strings.ToLower(item.Name), needle) {
				continue
			}
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []Item{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (r *MemoryRepo) UpdateItem(ctx context.Context, item Item, actorID string) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[item.ID]
	if !ok || cur.WorkspaceID != item.WorkspaceID {
		return Item{}, ErrNotFound
	}
	r.items[item.ID] = item
	r.record(tableItems, item.ID, audit.OpUpdate, actorID)
	return item, nil
}

func (r *MemoryRepo) DeleteItem(ctx context.Context, workspaceID, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(r.items, id)
	r.record(tableItems, id, audit.OpDelete, actorID)
	return nil
}

func (r *MemoryRepo) CreateCategory(ctx context.Context, c Category, actorID string) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing.WorkspaceID == c.WorkspaceID && existing.Name == c.Name {
			return Category{}, ErrConflict
		}
	}
	c.ID = uuid.NewString()
	r.categories[c.ID] = c
	r.record(tableCategories, c.ID, audit.OpInsert, actorID)
	return c, nil
}

func (r *MemoryRepo) ListCategories(ctx context.Context, workspaceID string) ([]Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Category, 0)
	for _, c := range r.categories {
		if c.WorkspaceID == workspaceID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) DeleteCategory(ctx context.Context, workspaceID, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok || c.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(r.categories, id)
	r.record(tableCategories, id, audit.OpDelete, actorID)
	return nil
}

func (r *MemoryRepo) CreateLocation(ctx context.Context, l Location, actorID string) (Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.locations {
		if existing.WorkspaceID == l.WorkspaceID && existing.Name == l.Name {
			return Location{}, ErrConflict
		}
	}
	l.ID = uuid.NewString()
	r.locations[l.ID] = l
	r.record(tableLocations, l.ID, audit.OpInsert, actorID)
	return l, nil
}

func (r *MemoryRepo) ListLocations(ctx context.Context, workspaceID string) ([]Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Location, 0)
	for _, l := range r.locations {
		if l.WorkspaceID == workspaceID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) DeleteLocation(ctx context.Context, workspaceID, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locations[id]
	if !ok || l.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(r.locations, id)
	r.record(tableLocations, id, audit.OpDelete, actorID)
	return nil
}
