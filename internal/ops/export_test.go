package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/schema"
)

func allowedDirConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	return dir, cfg
}

func TestExport_KeepTimestamp(t *testing.T) {
	database := openTestDB(t)
	dir, cfg := allowedDirConfig(t)
	id := storeSample(t, database, "Galaxy")

	path := filepath.Join(dir, "out.xml")
	out, err := Export(context.Background(), database, cfg, ExportInput{
		ID:               id,
		Path:             path,
		RefreshTimestamp: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if out.Path != path || out.ID != id {
		t.Errorf("output = %+v", out)
	}
	if out.DocTimestamp != 1700000000 {
		t.Errorf("DocTimestamp = %d, want 1700000000", out.DocTimestamp)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != out.Bytes {
		t.Errorf("Bytes = %d, file has %d", out.Bytes, len(data))
	}

	exported, err := schema.Decode(data)
	if err != nil {
		t.Fatalf("exported document does not decode: %v", err)
	}
	original, err := schema.Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	if !exported.Equal(original) {
		t.Error("exported registry differs from the stored one")
	}
}

func TestExport_RefreshesTimestampByDefault(t *testing.T) {
	database := openTestDB(t)
	dir, cfg := allowedDirConfig(t)
	storeSample(t, database, "Galaxy")

	before := time.Now().Unix()
	out, err := Export(context.Background(), database, cfg, ExportInput{
		Name: "galaxy",
		Path: filepath.Join(dir, "fresh.xml"),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.DocTimestamp < before {
		t.Errorf("DocTimestamp = %d, want >= %d", out.DocTimestamp, before)
	}

	// The stored snapshot is untouched.
	fetched, err := Fetch(context.Background(), database, FetchInput{Name: "galaxy"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched.DocTimestamp != 1700000000 {
		t.Errorf("stored DocTimestamp = %d, want 1700000000", fetched.DocTimestamp)
	}
}

func TestExport_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	database := openTestDB(t)
	storeSample(t, database, "My Galaxy")

	out, err := Export(context.Background(), database, config.DefaultConfig(), ExportInput{Name: "my galaxy"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	wantDir := filepath.Join(home, BaseDirName, "exports")
	if filepath.Dir(out.Path) != wantDir {
		t.Errorf("Path dir = %q, want %q", filepath.Dir(out.Path), wantDir)
	}
	base := filepath.Base(out.Path)
	if !strings.HasPrefix(base, "my galaxy-") || !strings.HasSuffix(base, ".xml") {
		t.Errorf("Path base = %q", base)
	}
	if _, err := os.Stat(out.Path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestExport_UnnamedUsesID(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	database := openTestDB(t)
	id := storeSample(t, database, "")

	out, err := Export(context.Background(), database, nil, ExportInput{ID: id})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(out.Path), id+"-") {
		t.Errorf("Path = %q, want id prefix", out.Path)
	}
}

func TestExport_Errors(t *testing.T) {
	database := openTestDB(t)
	dir, cfg := allowedDirConfig(t)
	storeSample(t, database, "Galaxy")

	tests := []struct {
		name  string
		input ExportInput
		code  errors.ErrorCode
	}{
		{"no address", ExportInput{Path: filepath.Join(dir, "a.xml")}, errors.ErrInvalidRequest},
		{"ambiguous", ExportInput{ID: "x", Name: "galaxy", Path: filepath.Join(dir, "a.xml")}, errors.ErrAmbiguousAddressing},
		{"unknown name", ExportInput{Name: "nope", Path: filepath.Join(dir, "a.xml")}, errors.ErrNotFound},
		{"wrong extension", ExportInput{Name: "galaxy", Path: filepath.Join(dir, "a.jsonl")}, errors.ErrInvalidRequest},
		{"outside allowed", ExportInput{Name: "galaxy", Path: filepath.Join(t.TempDir(), "a.xml")}, errors.ErrInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Export(context.Background(), database, cfg, tc.input)
			if !errors.Is(err, tc.code) {
				t.Errorf("Export error = %v, want %s", err, tc.code)
			}
		})
	}
}

func TestExport_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	database := openTestDB(t)
	dir, cfg := allowedDirConfig(t)
	storeSample(t, database, "Galaxy")

	path := filepath.Join(dir, "out.xml")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Export(context.Background(), database, cfg, ExportInput{Name: "galaxy", Path: path}); err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) && strings.Contains(err.Error(), "Windows") {
			t.Skip("overwrite unsupported on Windows")
		}
		t.Fatalf("Export failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the export", len(entries))
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Errorf("file not replaced: %q", data[:min(len(data), 40)])
	}
}

func TestExport_Cancelled(t *testing.T) {
	database := openTestDB(t)
	dir, cfg := allowedDirConfig(t)
	storeSample(t, database, "Galaxy")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The database driver may notice the cancellation first.
	_, err := Export(ctx, database, cfg, ExportInput{Name: "galaxy", Path: filepath.Join(dir, "c.xml")})
	if err == nil {
		t.Fatal("Export with cancelled context succeeded")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "c.xml")); statErr == nil {
		t.Error("cancelled export wrote a file")
	}
}
