package audit

import (
	"context"
	"errors"
	"time"
)

// Repository is the read contract over the audit log.
//
// No Update/Delete methods exist by design: history is append-only and the
// only writer is the Recorder, inside business transactions.
type Repository interface {
	List(ctx context.Context, q Query) ([]Record, error)
	Stats(ctx context.Context, q StatsQuery) (Stats, error)
}

// Query filters ListRecent. Zero-valued fields are ignored.
type Query struct {
	WorkspaceID string
	Operation   Operation
	TableName   string
	UserID      string
	From        *time.Time
	To          *time.Time
	Limit       int
}

// StatsQuery scopes GetStats. DayStart is supplied by the service so
// "operations today" stays relative to the caller's current day whatever
// From/To window is requested.
type StatsQuery struct {
	WorkspaceID string
	From        *time.Time
	To          *time.Time
	DayStart    time.Time
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var ErrInvalidArgument = errors.New("audit: invalid argument")

// Service provides read access over the append-only log. It is a stateless
// per-request wrapper; all shared state lives in the datastore.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// ListRecent returns records most-recent-first (created_at desc, id desc for
// deterministic ties). Out-of-range limits are clamped, not rejected, to keep
// the read path total. An unknown operation value matches nothing.
func (s *Service) ListRecent(ctx context.Context, q Query) ([]Record, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if q.WorkspaceID == "" {
		return nil, ErrInvalidArgument
	}

	q.Limit = clampLimit(q.Limit)
	if q.Operation != "" && !ValidOperation(q.Operation) {
		// Defensive default for programmatic callers; the HTTP boundary
		// rejects unknown values with a 400 before reaching here.
		return []Record{}, nil
	}
	return s.repo.List(ctx, q)
}

// GetUserActivity is ListRecent filtered to a single actor.
func (s *Service) GetUserActivity(ctx context.Context, workspaceID, userID string, limit int) ([]Record, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	return s.ListRecent(ctx, Query{WorkspaceID: workspaceID, UserID: userID, Limit: limit})
}

// GetStats aggregates counts over the optional window. All fields are
// non-negative and zero on an empty result set.
func (s *Service) GetStats(ctx context.Context, workspaceID string, from, to *time.Time) (Stats, error) {
	if s.repo == nil {
		return Stats{}, errors.New("audit: repository not configured")
	}
	if workspaceID == "" {
		return Stats{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return s.repo.Stats(ctx, StatsQuery{
		WorkspaceID: workspaceID,
		From:        from,
		To:          to,
		DayStart:    dayStart,
	})
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
