package trash

import (
	"encoding/json"
	"time"
)

// DeletedItem is one entry in the soft-delete ledger: a recoverable view over
// the most recent DELETE captured for a logical row. The underlying audit
// record is historical and untouched by anything in this package; recovery
// and purge act only on this companion table.
//
// State machine: ACTIVE (recoverable) -> RECOVERED (terminal, via Recover)
//                ACTIVE -> PURGED (terminal, via retention sweep).
// There is no path from RECOVERED back to ACTIVE; re-deleting the same row
// creates a fresh ACTIVE entry that supersedes the old one.
//
// Storage (Postgres):
// - Table deleted_items(id, workspace_id, table_name, record_id,
//   audit_log_id, item_name, item_description, snapshot jsonb, deleted_by,
//   deleted_at, recovered_at, recovered_by, recovery_reason).
// - Partial unique index on (workspace_id, table_name, record_id)
//   WHERE recovered_at IS NULL enforces one active entry per logical row.

type DeletedItem struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	TableName   string `json:"table_name" db:"table_name"`
	RecordID    string `json:"record_id" db:"record_id"`

	// AuditLogID links back to the DELETE audit record that produced this entry.
	AuditLogID string `json:"audit_log_id" db:"audit_log_id"`

	// ItemName and ItemDescription are denormalized from the deleted row for
	// free-text search without unpacking the snapshot.
	ItemName        string `json:"item_name" db:"item_name"`
	ItemDescription string `json:"item_description,omitempty" db:"item_description"`

	// Snapshot is the row's full prior state; it is the recovery payload.
	Snapshot json.RawMessage `json:"snapshot" db:"snapshot"`

	DeletedBy string    `json:"deleted_by" db:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at" db:"deleted_at"`

	RecoveredAt    *time.Time `json:"recovered_at,omitempty" db:"recovered_at"`
	RecoveredBy    string     `json:"recovered_by,omitempty" db:"recovered_by"`
	RecoveryReason string     `json:"recovery_reason,omitempty" db:"recovery_reason"`
}

// Active reports whether the item is still recoverable.
func (d DeletedItem) Active() bool { return d.RecoveredAt == nil }

// Stats are snapshot counts for dashboarding.
type Stats struct {
	TotalDeleted int64            `json:"totalDeleted"`
	Recoverable  int64            `json:"recoverable"`
	ByTable      map[string]int64 `json:"byTable"`
}
