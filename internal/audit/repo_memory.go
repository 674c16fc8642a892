package audit

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory append-only repository for tests.
// It mirrors the Postgres repo's ordering and filter semantics.
type MemoryRepo struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

// Append adds a record. Test-side stand-in for the Recorder's insert.
func (r *MemoryRepo) Append(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *MemoryRepo) List(ctx context.Context, q Query) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0)
	for _, rec := range r.records {
		if rec.WorkspaceID != q.WorkspaceID {
			continue
		}
		if q.Operation != "" && rec.Operation != q.Operation {
			continue
		}
		if q.TableName != "" && rec.TableName != q.TableName {
			continue
		}
		if q.UserID != "" && rec.UserID != q.UserID {
			continue
		}
		if q.From != nil && rec.CreatedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && rec.CreatedAt.After(*q.To) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) Stats(ctx context.Context, q StatsQuery) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Stats
	users := map[string]struct{}{}
	for _, rec := range r.records {
		if rec.WorkspaceID != q.WorkspaceID {
			continue
		}
		// Today's count ignores the From/To window.
		if !rec.CreatedAt.Before(q.DayStart) {
			s.OperationsToday++
		}
		if q.From != nil && rec.CreatedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && rec.CreatedAt.After(*q.To) {
			continue
		}
		s.TotalOperations++
		users[rec.UserID] = struct{}{}
		if rec.Operation == OpDelete {
			s.Deletions++
		}
	}
	s.ActiveUsers = int64(len(users))
	return s, nil
}
