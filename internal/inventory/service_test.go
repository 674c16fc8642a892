package inventory

import (
	"context"
	"testing"

	"inventory-platform/internal/audit"
)

func TestCreateItem_AuditedAndDefaulted(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), CreateItemParams{
		WorkspaceID: "w1",
		SKU:         "  SKU-1 ",
		Name:        "Bolt",
		Quantity:    5,
	}, "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if item.SKU != "SKU-1" {
		t.Fatalf("sku should be trimmed, got %q", item.SKU)
	}
	if item.Status != ItemStatusActive {
		t.Fatalf("new items default to active, got %q", item.Status)
	}

	log := repo.AuditLog()
	if len(log) != 1 || log[0].Op != audit.OpInsert || log[0].Table != "inventory_items" || log[0].ActorID != "u1" {
		t.Fatalf("expected one INSERT audit entry, got %+v", log)
	}
}

func TestCreateItem_DuplicateSKUConflicts(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)

	if _, err := svc.CreateItem(context.Background(), CreateItemParams{WorkspaceID: "w1", SKU: "SKU-1", Name: "Bolt"}, "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.CreateItem(context.Background(), CreateItemParams{WorkspaceID: "w1", SKU: "SKU-1", Name: "Other"}, "u1"); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// Same SKU in a different workspace is fine.
	if _, err := svc.CreateItem(context.Background(), CreateItemParams{WorkspaceID: "w2", SKU: "SKU-1", Name: "Bolt"}, "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestCreateItem_Validation(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)

	cases := []CreateItemParams{
		{WorkspaceID: "", SKU: "S", Name: "N"},
		{WorkspaceID: "w1", SKU: " ", Name: "N"},
		{WorkspaceID: "w1", SKU: "S", Name: ""},
		{WorkspaceID: "w1", SKU: "S", Name: "N", Quantity: -1},
		{WorkspaceID: "w1", SKU: "S", Name: "N", UnitPriceMinor: -1},
	}
	for _, p := range cases {
		if _, err := svc.CreateItem(context.Background(), p, "u1"); err != ErrInvalidArgument {
			t.Fatalf("expected ErrInvalidArgument for %+v, got %v", p, err)
		}
	}
	if _, err := svc.CreateItem(context.Background(), CreateItemParams{WorkspaceID: "w1", SKU: "S", Name: "N"}, ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for missing actor, got %v", err)
	}
}

func TestUpdateItem_PartialPatchWithAudit(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), CreateItemParams{WorkspaceID: "w1", SKU: "SKU-1", Name: "Bolt", Quantity: 5}, "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	qty := 9
	status := ItemStatusDiscontinued
	updated, err := svc.UpdateItem(context.Background(), "w1", item.ID, UpdateItemParams{Quantity: &qty, Status: &status}, "u2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if updated.Quantity != 9 || updated.Status != ItemStatusDiscontinued {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Name != "Bolt" || updated.SKU != "SKU-1" {
		t.Fatalf("untouched fields must survive: %+v", updated)
	}

	bad := ItemStatus("retired")
	if _, err := svc.UpdateItem(context.Background(), "w1", item.ID, UpdateItemParams{Status: &bad}, "u2"); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for unknown status, got %v", err)
	}

	log := repo.AuditLog()
	if len(log) != 2 || log[1].Op != audit.OpUpdate || log[1].ActorID != "u2" {
		t.Fatalf("expected insert+update audit entries, got %+v", log)
	}
}

func TestDeleteItem_AuditedAndScoped(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)

	item, err := svc.CreateItem(context.Background(), CreateItemParams{WorkspaceID: "w1", SKU: "SKU-1", Name: "Bolt"}, "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// Another workspace cannot delete it.
	if err := svc.DeleteItem(context.Background(), "w2", item.ID, "u1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign workspace, got %v", err)
	}

	if err := svc.DeleteItem(context.Background(), "w1", item.ID, "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.GetItem(context.Background(), "w1", item.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	log := repo.AuditLog()
	if len(log) != 2 || log[1].Op != audit.OpDelete {
		t.Fatalf("expected delete audit entry, got %+v", log)
	}
}

func TestListItems_FiltersAndPagination(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	for _, p := range []CreateItemParams{
		{WorkspaceID: "w1", SKU: "SKU-A", Name: "Anchor", CategoryID: "cat1"},
		{WorkspaceID: "w1", SKU: "SKU-B", Name: "Bolt", CategoryID: "cat1"},
		{WorkspaceID: "w1", SKU: "SKU-C", Name: "Clamp", CategoryID: "cat2"},
		{WorkspaceID: "w2", SKU: "SKU-D", Name: "Dowel"},
	} {
		if _, err := svc.CreateItem(ctx, p, "u1"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, total, err := svc.ListItems(ctx, ItemQuery{WorkspaceID: "w1", CategoryID: "cat1", Limit: 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 2 || len(items) != 1 {
		t.Fatalf("expected total=2 page=1, got total=%d page=%d", total, len(items))
	}
	if items[0].Name != "Anchor" {
		t.Fatalf("expected name-ordered page, got %q", items[0].Name)
	}

	items, total, err = svc.ListItems(ctx, ItemQuery{WorkspaceID: "w1", Search: "bol", Limit: 20})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 1 || items[0].SKU != "SKU-B" {
		t.Fatalf("search miss: total=%d items=%+v", total, items)
	}

	for _, q := range []ItemQuery{
		{WorkspaceID: "w1", Limit: MaxListLimit + 1},
		{WorkspaceID: "w1", Limit: -1},
		{WorkspaceID: "w1", Limit: 10, Offset: -1},
		{WorkspaceID: "w1", Status: "retired"},
		{},
	} {
		if _, _, err := svc.ListItems(ctx, q); err != ErrInvalidArgument {
			t.Fatalf("expected ErrInvalidArgument for %+v, got %v", q, err)
		}
	}
}

func TestCategoriesAndLocations_UniqueNamesAudited(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, "w1", "Fasteners", "", "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, "w1", "Fasteners", "", "u1"); err != ErrConflict {
		t.Fatalf("expected ErrConflict for duplicate category name, got %v", err)
	}

	loc, err := svc.CreateLocation(ctx, "w1", "Shelf A", "", "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if err := svc.DeleteCategory(ctx, "w1", cat.ID, "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.DeleteLocation(ctx, "w1", loc.ID, "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	log := repo.AuditLog()
	if len(log) != 4 {
		t.Fatalf("expected 4 audit entries, got %+v", log)
	}
	if log[2].Table != "categories" || log[2].Op != audit.OpDelete {
		t.Fatalf("expected category delete audit, got %+v", log[2])
	}
	if log[3].Table != "locations" || log[3].Op != audit.OpDelete {
		t.Fatalf("expected location delete audit, got %+v", log[3])
	}
}
