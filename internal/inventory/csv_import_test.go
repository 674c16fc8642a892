package inventory

import (
	"context"
	"strings"
	"testing"
)

const goodHeader = "sku,name,description,category_id,location_id,quantity,unit_price_minor\n"

func TestImportItemsCSV_MixedRows(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	im := NewImporter(svc, nil, nil)

	payload := goodHeader +
		"SKU-1,Bolt,M6 bolt,,,10,250\n" +
		",Missing SKU,,,,1,100\n" +
		"SKU-2,Nut,,,,abc,100\n" +
		"SKU-3,Washer,,,,0,\n"

	res, err := im.ImportItemsCSV(context.Background(), "w1", "u1", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Imported != 2 || res.Failed != 2 {
		t.Fatalf("expected 2 imported / 2 failed, got %+v", res)
	}
	// Header is line 1; the first bad row is line 3.
	if res.Errors[0].Line != 3 || res.Errors[1].Line != 4 {
		t.Fatalf("row errors must carry line numbers, got %+v", res.Errors)
	}

	items, total, err := svc.ListItems(context.Background(), ItemQuery{WorkspaceID: "w1", Limit: 20})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 items stored, got %d (%+v)", total, items)
	}
}

func TestImportItemsCSV_RejectsBadHeader(t *testing.T) {
	im := NewImporter(NewService(NewMemoryRepo(), nil), nil, nil)

	payload := "sku,title,description,category_id,location_id,quantity,unit_price_minor\nSKU-1,Bolt,,,,1,1\n"
	if _, err := im.ImportItemsCSV(context.Background(), "w1", "u1", strings.NewReader(payload)); err == nil {
		t.Fatalf("expected header rejection")
	}
}

func TestImportItemsCSV_DuplicateSKUReportedPerRow(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	im := NewImporter(svc, nil, nil)

	payload := goodHeader +
		"SKU-1,Bolt,,,,1,1\n" +
		"SKU-1,Bolt again,,,,1,1\n"

	res, err := im.ImportItemsCSV(context.Background(), "w1", "u1", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Imported != 1 || res.Failed != 1 {
		t.Fatalf("expected duplicate row to fail alone, got %+v", res)
	}
	if !strings.Contains(res.Errors[0].Message, "SKU-1") {
		t.Fatalf("conflict message should name the sku, got %q", res.Errors[0].Message)
	}
}

func TestImportItemsCSV_RequiresCaller(t *testing.T) {
	im := NewImporter(NewService(NewMemoryRepo(), nil), nil, nil)
	if _, err := im.ImportItemsCSV(context.Background(), "", "u1", strings.NewReader(goodHeader)); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := im.ImportItemsCSV(context.Background(), "w1", "", strings.NewReader(goodHeader)); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
