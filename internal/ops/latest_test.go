package ops

import (
	"context"
	"testing"
)

func TestLatest_Empty(t *testing.T) {
	database := openTestDB(t)

	out, err := Latest(context.Background(), database, LatestInput{})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item != nil {
		t.Errorf("Item = %+v, want nil", out.Item)
	}
}

func TestLatest_NewestAndDocument(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	storeSample(t, database, "first")
	second := storeSample(t, database, "second")

	out, err := Latest(ctx, database, LatestInput{})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item == nil || out.Item.ID != second {
		t.Fatalf("Item = %+v, want %s", out.Item, second)
	}
	if out.Item.Document != "" {
		t.Error("Document should be omitted by default")
	}

	out, err = Latest(ctx, database, LatestInput{IncludeDocument: true})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item.Document != sampleDoc {
		t.Error("Document should be included")
	}
}

func TestLatest_SkipsDeleted(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	first := storeSample(t, database, "first")
	second := storeSample(t, database, "second")
	if _, err := Delete(ctx, database, DeleteInput{ID: second}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	out, err := Latest(ctx, database, LatestInput{})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item == nil || out.Item.ID != first {
		t.Errorf("Item = %+v, want %s", out.Item, first)
	}

	out, err = Latest(ctx, database, LatestInput{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item == nil || out.Item.ID != second {
		t.Errorf("Item = %+v, want deleted %s", out.Item, second)
	}
}
