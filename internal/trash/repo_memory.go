package trash

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory ledger for tests. It mirrors the Postgres
// repo's semantics, including uniqueness collisions on recovery: tests mark
// "live" rows via SetLiveRow and recovery into an occupied slot conflicts.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[string]DeletedItem
	// live simulates the target tables' primary keys: table "/" recordID.
	live map[string]bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		items: map[string]DeletedItem{},
		live:  map[string]bool{},
	}
}

// AddActive seeds an active ledger entry.
func (r *MemoryRepo) AddActive(item DeletedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

// SetLiveRow marks a (table, recordID) slot as occupied so recovery into it
// conflicts.
func (r *MemoryRepo) SetLiveRow(table, recordID string, occupied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[table+"/"+recordID] = occupied
}

// Get returns an item by id for assertions.
func (r *MemoryRepo) Get(id string) (DeletedItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	return item, ok
}

// Len returns the total entry count.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *MemoryRepo) List(ctx context.Context, q ListQuery) ([]DeletedItem, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]DeletedItem, 0)
	for _, item := range r.items {
		if item.WorkspaceID != q.WorkspaceID || !item.Active() {
			continue
		}
		if q.TableName != "" && item.TableName != q.TableName {
			continue
		}
		if q.DeletedBy != "" && item.DeletedBy != q.DeletedBy {
			continue
		}
		if q.Search != "" {
			needle := strings.ToLower(q.Search)
			name := strings.ToLower(item.ItemName)
			desc := strings.ToLower(item.ItemDescription)
			if !strings.Contains(name, needle) && !strings.Contains(desc, needle) {
				continue
			}
		}
		matched = append(matched, item)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DeletedAt.Equal(matched[j].DeletedAt) {
			return matched[i].DeletedAt.After(matched[j].DeletedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []DeletedItem{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (r *MemoryRepo) Recover(ctx context.Context, p RecoverParams) (DeletedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[p.ID]
	if !ok || item.WorkspaceID != p.WorkspaceID {
		return DeletedItem{}, ErrNotFound
	}
	if !item.Active() {
		return DeletedItem{}, ErrAlreadyRecovered
	}
	if r.live[item.TableName+"/"+item.RecordID] {
		return DeletedItem{}, ErrConflict
	}

	now := p.Now
	item.RecoveredAt = &now
	item.RecoveredBy = p.ActorID
	item.RecoveryReason = p.Reason
	r.items[p.ID] = item
	r.live[item.TableName+"/"+item.RecordID] = true
	return item, nil
}

func (r *MemoryRepo) Stats(ctx context.Context, workspaceID string) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{ByTable: map[string]int64{}}
	for _, item := range r.items {
		if item.WorkspaceID != workspaceID {
			continue
		}
		s.TotalDeleted++
		if item.Active() {
			s.Recoverable++
			s.ByTable[item.TableName]++
		}
	}
	return s, nil
}

func (r *MemoryRepo) Purge(ctx context.Context, workspaceID string, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int64
	for id, item := range r.items {
		if workspaceID != "" && item.WorkspaceID != workspaceID {
			continue
		}
		if item.Active() && item.DeletedAt.Before(olderThan) {
			delete(r.items, id)
			purged++
		}
	}
	return purged, nil
}
