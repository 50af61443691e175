package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/objdb/internal/errors"
)

func TestFetch_ByIDAndName(t *testing.T) {
	database := openTestDB(t)
	id := storeSample(t, database, "Galaxy Objects")
	ctx := context.Background()

	byID, err := Fetch(ctx, database, FetchInput{ID: id})
	if err != nil {
		t.Fatalf("Fetch by id failed: %v", err)
	}
	byName, err := Fetch(ctx, database, FetchInput{Name: "GALAXY  objects"})
	if err != nil {
		t.Fatalf("Fetch by name failed: %v", err)
	}

	if byID.ID != id || byName.ID != id {
		t.Errorf("ids = %q, %q; want %q", byID.ID, byName.ID, id)
	}
	if byID.Document != sampleDoc {
		t.Error("Document should be included by default")
	}
}

func TestFetch_WithoutDocument(t *testing.T) {
	database := openTestDB(t)
	id := storeSample(t, database, "")

	out, err := Fetch(context.Background(), database, FetchInput{ID: id, IncludeDocument: boolPtr(false)})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.Document != "" {
		t.Error("Document should be omitted")
	}
	if out.DocBytes != len(sampleDoc) {
		t.Errorf("DocBytes = %d, want %d", out.DocBytes, len(sampleDoc))
	}
}

func TestFetch_Deleted(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	id := storeSample(t, database, "Gone")

	if _, err := Delete(ctx, database, DeleteInput{ID: id}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := Fetch(ctx, database, FetchInput{ID: id})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch deleted = %v, want NOT_FOUND", err)
	}

	out, err := Fetch(ctx, database, FetchInput{Name: "gone", IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Fetch include_deleted failed: %v", err)
	}
	if out.DeletedAt == nil {
		t.Error("DeletedAt should be set")
	}
}
