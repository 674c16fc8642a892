package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recorder writes audit rows as part of the caller's transaction.
//
// Every mutating service wraps its business write and the matching Recorder
// call in one utils.WithTx unit, replacing database-trigger capture with an
// explicit mutate-and-log wrapper. The invariant that matters is atomicity
// between the mutation and its audit row, not the mechanism.
//
// RecordDelete additionally maintains the deleted_items companion table in
// the same transaction, so the soft-delete ledger is an indexed view kept
// alongside the log rather than a scan over it.
type Recorder struct {
	clock func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{clock: time.Now}
}

var errUntrackedTable = func(table string) error {
	return fmt.Errorf("audit: table %q is not tracked", table)
}

// RecordInsert captures a row creation. after is the full new row state.
func (r *Recorder) RecordInsert(ctx context.Context, tx *sql.Tx, workspaceID, table, recordID, userID string, after any) (Record, error) {
	if !IsTracked(table) {
		return Record{}, errUntrackedTable(table)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return Record{}, fmt.Errorf("audit: marshal after state: %w", err)
	}
	rec := Record{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		TableName:   table,
		RecordID:    recordID,
		Operation:   OpInsert,
		UserID:      userID,
		AfterState:  afterJSON,
		CreatedAt:   r.clock().UTC(),
	}
	if err := r.insert(ctx, tx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecordUpdate captures a row modification with both snapshots.
func (r *Recorder) RecordUpdate(ctx context.Context, tx *sql.Tx, workspaceID, table, recordID, userID string, before, after any) (Record, error) {
	if !IsTracked(table) {
		return Record{}, errUntrackedTable(table)
	}
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return Record{}, fmt.Errorf("audit: marshal before state: %w", err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return Record{}, fmt.Errorf("audit: marshal after state: %w", err)
	}
	rec := Record{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		TableName:   table,
		RecordID:    recordID,
		Operation:   OpUpdate,
		UserID:      userID,
		BeforeState: beforeJSON,
		AfterState:  afterJSON,
		CreatedAt:   r.clock().UTC(),
	}
	if err := r.insert(ctx, tx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecordDelete captures a row removal and upserts the active deleted_items
// entry for (workspace, table, record) in the same transaction. itemName and
// itemDescription feed the ledger's free-text search; before is the full
// prior row state and becomes the recovery payload.
func (r *Recorder) RecordDelete(ctx context.Context, tx *sql.Tx, workspaceID, table, recordID, userID string, before any, itemName, itemDescription string) (Record, error) {
	if !IsTracked(table) {
		return Record{}, errUntrackedTable(table)
	}
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return Record{}, fmt.Errorf("audit: marshal before state: %w", err)
	}
	now := r.clock().UTC()
	rec := Record{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		TableName:   table,
		RecordID:    recordID,
		Operation:   OpDelete,
		UserID:      userID,
		BeforeState: beforeJSON,
		CreatedAt:   now,
	}
	if err := r.insert(ctx, tx, rec); err != nil {
		return Record{}, err
	}

	// One active ledger entry per logical row: if the row was deleted,
	// recovered, and deleted again, the fresh deletion supersedes any stale
	// active entry for the same key.
	const q = `
INSERT INTO deleted_items (
  id, workspace_id, table_name, record_id, audit_log_id,
  item_name, item_description, snapshot, deleted_by, deleted_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (workspace_id, table_name, record_id) WHERE recovered_at IS NULL
DO UPDATE SET audit_log_id = EXCLUDED.audit_log_id,
              item_name = EXCLUDED.item_name,
              item_description = EXCLUDED.item_description,
              snapshot = EXCLUDED.snapshot,
              deleted_by = EXCLUDED.deleted_by,
              deleted_at = EXCLUDED.deleted_at
`
	if _, err := tx.ExecContext(ctx, q,
		uuid.NewString(),
		workspaceID,
		table,
		recordID,
		rec.ID,
		itemName,
		itemDescription,
		beforeJSON,
		userID,
		now,
	); err != nil {
		return Record{}, fmt.Errorf("audit: upsert deleted item: %w", err)
	}

	return rec, nil
}

func (r *Recorder) insert(ctx context.Context, tx *sql.Tx, rec Record) error {
	const q = `
INSERT INTO audit_logs (
  id, workspace_id, table_name, record_id, operation, user_id, before_state, after_state, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := tx.ExecContext(ctx, q,
		rec.ID,
		rec.WorkspaceID,
		rec.TableName,
		rec.RecordID,
		rec.Operation,
		rec.UserID,
		nullableJSON(rec.BeforeState),
		nullableJSON(rec.AfterState),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert record: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
