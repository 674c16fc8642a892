package trash

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inventory-platform/internal/rbac"
)

func seedItems(repo *MemoryRepo, n int, base time.Time) {
	for i := 0; i < n; i++ {
		repo.AddActive(DeletedItem{
			ID:          fmt.Sprintf("del-%03d", i),
			WorkspaceID: "w1",
			TableName:   "inventory_items",
			RecordID:    fmt.Sprintf("row-%03d", i),
			AuditLogID:  fmt.Sprintf("audit-%03d", i),
			ItemName:    fmt.Sprintf("Widget %d", i),
			DeletedBy:   "u1",
			DeletedAt:   base.Add(time.Duration(i) * time.Minute),
			Snapshot:    []byte(`{"id":"x"}`),
		})
	}
}

func TestGetDeletedItems_PaginationBounds(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 0, nil)
	seedItems(repo, 30, time.Unix(1700000000, 0).UTC())

	res, err := svc.GetDeletedItems(context.Background(), ListQuery{WorkspaceID: "w1", Limit: 10, Offset: 5})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(res.Items))
	}
	if res.Total != 30 {
		t.Fatalf("total must be independent of pagination, got %d", res.Total)
	}

	// Most-recently-deleted first.
	if res.Items[0].DeletedAt.Before(res.Items[9].DeletedAt) {
		t.Fatalf("expected descending deleted_at order")
	}

	for _, q := range []ListQuery{
		{WorkspaceID: "w1", Limit: 101},
		{WorkspaceID: "w1", Limit: -1},
		{WorkspaceID: "w1", Limit: 10, Offset: -1},
		{Limit: 10},
	} {
		if _, err := svc.GetDeletedItems(context.Background(), q); err != ErrInvalidArgument {
			t.Fatalf("expected ErrInvalidArgument for %+v, got %v", q, err)
		}
	}
}

func TestSearchDeletedItems_CaseInsensitiveSubstring(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 0, nil)
	base := time.Unix(1700000000, 0).UTC()
	repo.AddActive(DeletedItem{ID: "d1", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r1", ItemName: "Steel Bracket", DeletedBy: "u1", DeletedAt: base})
	repo.AddActive(DeletedItem{ID: "d2", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r2", ItemName: "Hinge", ItemDescription: "stainless steel hinge", DeletedBy: "u1", DeletedAt: base})
	repo.AddActive(DeletedItem{ID: "d3", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r3", ItemName: "Gasket", DeletedBy: "u1", DeletedAt: base})

	res, err := svc.SearchDeletedItems(context.Background(), "w1", "STEEL", 20, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected 2 matches over name+description, got %d", res.Total)
	}

	if _, err := svc.SearchDeletedItems(context.Background(), "w1", "", 20, 0); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for empty query, got %v", err)
	}
}

func TestRecoverItem_HappyPathThenIdempotence(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 0, nil)
	seedItems(repo, 1, time.Unix(1700000000, 0).UTC())

	item, err := svc.RecoverItem(context.Background(), "w1", "del-000", "admin-1", "restored after mistake")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if item.Active() {
		t.Fatalf("expected item marked recovered")
	}
	if item.RecoveredBy != "admin-1" || item.RecoveryReason != "restored after mistake" {
		t.Fatalf("recovery bookkeeping missing: %+v", item)
	}

	// Second recovery must classify as already-recovered, not a generic error.
	if _, err := svc.RecoverItem(context.Background(), "w1", "del-000", "admin-1", ""); err != ErrAlreadyRecovered {
		t.Fatalf("expected ErrAlreadyRecovered, got %v", err)
	}
}

func TestRecoverItem_UnknownID(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 0, nil)

	if _, err := svc.RecoverItem(context.Background(), "w1", "nope", "u1", ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecoverItem_ConflictNeverOverwrites(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 0, nil)
	seedItems(repo, 1, time.Unix(1700000000, 0).UTC())

	// A new row reused the slot after the deletion.
	repo.SetLiveRow("inventory_items", "row-000", true)

	if _, err := svc.RecoverItem(context.Background(), "w1", "del-000", "u1", ""); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// Item must still be active (not half-marked).
	got, _ := repo.Get("del-000")
	if !got.Active() {
		t.Fatalf("conflicted recovery must not mark item recovered")
	}
}

func TestRecoveredItemInvisibleInActiveView(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 0, nil)
	seedItems(repo, 3, time.Unix(1700000000, 0).UTC())

	if _, err := svc.RecoverItem(context.Background(), "w1", "del-001", "u1", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	res, err := svc.GetDeletedItems(context.Background(), ListQuery{WorkspaceID: "w1", Limit: 20})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected recovered item excluded, total=%d", res.Total)
	}
	for _, item := range res.Items {
		if item.ID == "del-001" {
			t.Fatalf("recovered item leaked into active view")
		}
	}
}

func TestGetStats_CountsByTable(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 0, nil)
	base := time.Unix(1700000000, 0).UTC()
	seedItems(repo, 2, base)
	repo.AddActive(DeletedItem{ID: "dcat", WorkspaceID: "w1", TableName: "categories", RecordID: "c1", ItemName: "Fasteners", DeletedBy: "u1", DeletedAt: base})

	if _, err := svc.RecoverItem(context.Background(), "w1", "del-000", "u1", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	s, err := svc.GetStats(context.Background(), "w1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.TotalDeleted != 3 || s.Recoverable != 2 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if s.ByTable["inventory_items"] != 1 || s.ByTable["categories"] != 1 {
		t.Fatalf("unexpected byTable: %+v", s.ByTable)
	}
}

func TestManualCleanup_AdminOnlyAndRetentionWindow(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 90*24*time.Hour, nil)

	old := time.Now().UTC().Add(-120 * 24 * time.Hour)
	fresh := time.Now().UTC().Add(-time.Hour)
	repo.AddActive(DeletedItem{ID: "stale", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r1", ItemName: "Old", DeletedBy: "u1", DeletedAt: old})
	repo.AddActive(DeletedItem{ID: "recent", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r2", ItemName: "New", DeletedBy: "u1", DeletedAt: fresh})

	// Non-admin caller: rejected before any purge side effect.
	if _, err := svc.ManualCleanup(context.Background(), "w1", rbac.RoleManager); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if repo.Len() != 2 {
		t.Fatalf("forbidden cleanup must not purge anything")
	}

	res, err := svc.ManualCleanup(context.Background(), "w1", rbac.RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Purged != 1 {
		t.Fatalf("expected 1 purged, got %d", res.Purged)
	}
	if _, ok := repo.Get("stale"); ok {
		t.Fatalf("stale item should be purged")
	}
	if _, ok := repo.Get("recent"); !ok {
		t.Fatalf("recent item must survive")
	}
}

func TestConcurrentDeletesAreIndependentEntries(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 0, nil)
	base := time.Unix(1700000000, 0).UTC()
	repo.AddActive(DeletedItem{ID: "da", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "ra", ItemName: "A", DeletedBy: "u1", DeletedAt: base})
	repo.AddActive(DeletedItem{ID: "db", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "rb", ItemName: "B", DeletedBy: "u2", DeletedAt: base})

	res, err := svc.GetDeletedItems(context.Background(), ListQuery{WorkspaceID: "w1", TableName: "inventory_items", Limit: 20})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected both rows as independent active entries, got %d", res.Total)
	}
}
