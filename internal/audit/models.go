package audit

import (
	"encoding/json"
	"time"
)

// Record is an immutable, append-only audit log row capturing one mutation
// of a tracked table.
//
// Invariants:
// - Records are never updated or deleted by application code; the only
//   removal path is an explicit administrative retention sweep on the table.
// - workspace_id is required for tenancy isolation.
// - BeforeState is absent for INSERT; AfterState is absent for DELETE.
// - A record is written in the SAME transaction as the mutation it captures
//   (see Recorder), so an aborted request aborts both atomically.
//
// Storage (Postgres):
// - Table audit_logs(id, workspace_id, table_name, record_id, operation,
//   user_id, before_state jsonb, after_state jsonb, created_at).
// - INSERT-only policy; optional time partitioning for retention.

type Record struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	TableName   string    `json:"table_name" db:"table_name"`
	RecordID    string    `json:"record_id" db:"record_id"`
	Operation   Operation `json:"operation" db:"operation"`

	// UserID is the actor that caused the mutation; background jobs record
	// the "system" sentinel.
	UserID string `json:"user_id" db:"user_id"`

	BeforeState json.RawMessage `json:"before_state,omitempty" db:"before_state"`
	AfterState  json.RawMessage `json:"after_state,omitempty" db:"after_state"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// ValidOperation reports whether op is one of the three tracked operations.
func ValidOperation(op Operation) bool {
	switch op {
	case OpInsert, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

// trackedTables is the closed set of tables whose mutations are audited and
// whose deletes are recoverable. The trash recovery path interpolates table
// names into SQL, so membership here doubles as the injection guard.
var trackedTables = map[string]struct{}{
	"inventory_items": {},
	"categories":      {},
	"locations":       {},
	"projects":        {},
	"tasks":           {},
	"users":           {},
}

// IsTracked reports whether a table participates in audit capture.
func IsTracked(table string) bool {
	_, ok := trackedTables[table]
	return ok
}

// Stats are aggregate counts over the audit log for dashboarding.
// All fields default to zero on an empty window, never null.
type Stats struct {
	TotalOperations int64 `json:"totalOperations"`
	OperationsToday int64 `json:"operationsToday"`
	ActiveUsers     int64 `json:"activeUsers"`
	Deletions       int64 `json:"deletions"`
}
