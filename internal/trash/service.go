package trash

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"inventory-platform/internal/rbac"
)

var (
	ErrInvalidArgument = errors.New("trash: invalid argument")
	// ErrNotFound: no deleted item with that id in this workspace.
	ErrNotFound = errors.New("trash: deleted item not found")
	// ErrAlreadyRecovered: the item reached its terminal RECOVERED state; a
	// second recovery is "nothing to recover", not a server error.
	ErrAlreadyRecovered = errors.New("trash: item already recovered")
	// ErrConflict: re-insertion would collide with a live row (reused key or
	// unique column). Recovery never overwrites live data.
	ErrConflict = errors.New("trash: recovery conflicts with existing row")
	// ErrForbidden: caller lacks the administrative role for cleanup.
	ErrForbidden = errors.New("trash: administrative role required")
)

// Repository is the persistence contract for the soft-delete ledger.
// The write side of the ledger (the upsert on DELETE) belongs to the audit
// Recorder; this contract covers reads, recovery and purge.
type Repository interface {
	List(ctx context.Context, q ListQuery) ([]DeletedItem, int64, error)
	Recover(ctx context.Context, p RecoverParams) (DeletedItem, error)
	Stats(ctx context.Context, workspaceID string) (Stats, error)
	Purge(ctx context.Context, workspaceID string, olderThan time.Time) (int64, error)
}

// ListQuery filters the active (recoverable) view.
type ListQuery struct {
	WorkspaceID string
	TableName   string
	DeletedBy   string
	// Search is a case-insensitive substring match over item_name and
	// item_description.
	Search string
	Limit  int
	Offset int
}

type RecoverParams struct {
	ID          string
	WorkspaceID string
	ActorID     string
	Reason      string
	Now         time.Time
}

type ListResult struct {
	Items []DeletedItem `json:"items"`
	Total int64         `json:"total"`
}

type CleanupResult struct {
	Purged int64 `json:"purged"`
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Service exposes the soft-delete ledger. Stateless per-request wrapper; the
// only background state is the retention sweeper, which runs separately.
type Service struct {
	repo      Repository
	retention time.Duration
	clock     func() time.Time
	log       *slog.Logger
}

func NewService(repo Repository, retention time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &Service{repo: repo, retention: retention, clock: time.Now, log: log}
}

// GetDeletedItems lists active entries, most-recently-deleted first.
// Unlike the audit read path, pagination here is user-supplied and validated:
// out-of-range values are rejected, not clamped. Total is independent of
// limit/offset.
func (s *Service) GetDeletedItems(ctx context.Context, q ListQuery) (ListResult, error) {
	if q.WorkspaceID == "" {
		return ListResult{}, ErrInvalidArgument
	}
	if q.Limit == 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit < 1 || q.Limit > MaxListLimit {
		return ListResult{}, ErrInvalidArgument
	}
	if q.Offset < 0 {
		return ListResult{}, ErrInvalidArgument
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// SearchDeletedItems is GetDeletedItems with a free-text filter.
func (s *Service) SearchDeletedItems(ctx context.Context, workspaceID, query string, limit, offset int) (ListResult, error) {
	if query == "" {
		return ListResult{}, ErrInvalidArgument
	}
	return s.GetDeletedItems(ctx, ListQuery{
		WorkspaceID: workspaceID,
		Search:      query,
		Limit:       limit,
		Offset:      offset,
	})
}

// RecoverItem re-inserts the captured snapshot into its original table,
// records the recovery actor/time/reason and marks the entry RECOVERED — all
// in one transaction, so the entry is never marked recovered without its row
// actually existing.
func (s *Service) RecoverItem(ctx context.Context, workspaceID, id, actorID, reason string) (DeletedItem, error) {
	if workspaceID == "" || id == "" || actorID == "" {
		return DeletedItem{}, ErrInvalidArgument
	}
	item, err := s.repo.Recover(ctx, RecoverParams{
		ID:          id,
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		Reason:      reason,
		Now:         s.clock().UTC(),
	})
	if err != nil {
		return DeletedItem{}, err
	}
	s.log.Info("deleted item recovered",
		"workspace_id", workspaceID,
		"deleted_item_id", id,
		"table", item.TableName,
		"record_id", item.RecordID,
		"actor", actorID,
	)
	return item, nil
}

// GetStats returns snapshot counts for the workspace.
func (s *Service) GetStats(ctx context.Context, workspaceID string) (Stats, error) {
	if workspaceID == "" {
		return Stats{}, ErrInvalidArgument
	}
	return s.repo.Stats(ctx, workspaceID)
}

// ManualCleanup permanently purges never-recovered entries older than the
// retention window. The role check runs before any purge logic; non-admin
// callers cannot cause side effects. Underlying audit records are untouched.
func (s *Service) ManualCleanup(ctx context.Context, workspaceID, actorRole string) (CleanupResult, error) {
	if !rbac.IsAdmin(actorRole) {
		return CleanupResult{}, ErrForbidden
	}
	if workspaceID == "" {
		return CleanupResult{}, ErrInvalidArgument
	}
	cutoff := s.clock().UTC().Add(-s.retention)
	n, err := s.repo.Purge(ctx, workspaceID, cutoff)
	if err != nil {
		return CleanupResult{}, err
	}
	s.log.Info("manual trash cleanup", "workspace_id", workspaceID, "purged", n, "cutoff", cutoff)
	return CleanupResult{Purged: n}, nil
}
