package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/logging"
	"github.com/hpungsan/objdb/internal/ops"
)

const testDoc = `<?xml version="1.0" encoding="utf-8"?>
<database timestamp="1700000000">
  <categories>
    <category id="0">Enemies</category>
    <category id="1">Items</category>
  </categories>
  <object id="Kuribo">
    <name>Goomba</name>
    <type>Enemy</type>
    <model>Kuribo</model>
    <flags known="1" complete="1" />
    <category id="0" />
    <notes>Walks toward the player.</notes>
    <files>Kuribo.szs</files>
    <field id="0" type="int" name="Walk speed" values="" notes="" />
  </object>
  <object id="CoinRing">
    <name>Coin ring</name>
    <type>Item</type>
    <model></model>
    <flags known="1" complete="0" />
    <category id="1" />
    <notes></notes>
    <files></files>
  </object>
</database>
`

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// testConfig returns a default config that accepts temp dirs.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	return cfg
}

// runCLI runs args against a fresh app with stdin as input and returns stdout.
func runCLI(t *testing.T, database *sql.DB, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(database, cfg, logging.NewNop())
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"objdb"}, args...))
	return out.String(), err
}

// storeDoc stores testDoc under name and returns the snapshot id.
func storeDoc(t *testing.T, database *sql.DB, cfg *config.Config, name string) string {
	t.Helper()
	out, err := ops.Store(context.Background(), database, cfg, ops.StoreInput{Document: testDoc, Name: &name})
	require.NoError(t, err)
	return out.Snapshot.ID
}

func TestCLIStore(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()

	stdout, err := runCLI(t, database, cfg, testDoc, "store", "--name=Galaxy")
	require.NoError(t, err)

	var output ops.ImportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &output))
	assert.True(t, output.Imported)
	require.NotNil(t, output.Snapshot)
	assert.Equal(t, "Galaxy", *output.Snapshot.Name)
	assert.Equal(t, 2, output.Snapshot.EntryCount)

	fetched, err := ops.Fetch(context.Background(), database, ops.FetchInput{ID: output.Snapshot.ID})
	require.NoError(t, err)
	assert.Equal(t, testDoc, fetched.Document, "document must be stored as piped")
}

func TestCLIStore_Errors(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()

	_, err := runCLI(t, database, cfg, "<database>", "store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[MALFORMED_DOCUMENT]")

	cfg.DocumentMaxBytes = 16
	_, err = runCLI(t, database, cfg, testDoc, "store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[DOCUMENT_TOO_LARGE]")
}

func TestCLIFetch(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()
	id := storeDoc(t, database, cfg, "fetch-test")

	t.Run("by name", func(t *testing.T) {
		stdout, err := runCLI(t, database, cfg, "", "fetch", "--name=FETCH-TEST")
		require.NoError(t, err)
		var output ops.FetchOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &output))
		assert.Equal(t, id, output.ID)
		assert.Equal(t, testDoc, output.Document)
	})

	t.Run("by id without document", func(t *testing.T) {
		stdout, err := runCLI(t, database, cfg, "", "fetch", "--no-document", id)
		require.NoError(t, err)
		assert.NotContains(t, stdout, `"document"`)
	})

	t.Run("both id and name", func(t *testing.T) {
		_, err := runCLI(t, database, cfg, "", "fetch", "--name=fetch-test", id)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[AMBIGUOUS_ADDRESSING]")
	})

	t.Run("yaml output", func(t *testing.T) {
		stdout, err := runCLI(t, database, cfg, "", "--format", "yaml", "fetch", "--no-document", id)
		require.NoError(t, err)
		var output map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(stdout), &output))
		assert.Equal(t, id, output["id"])
		assert.Equal(t, 2, output["entry_count"])
	})
}

func TestCLIUnknownFormat(t *testing.T) {
	database := setupTestDB(t)
	_, err := runCLI(t, database, testConfig(), "", "--format", "xml", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
}

func TestCLIListLatestDelete(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()
	storeDoc(t, database, cfg, "first")
	second := storeDoc(t, database, cfg, "second")

	stdout, err := runCLI(t, database, cfg, "", "list", "--limit=1")
	require.NoError(t, err)
	var list ops.ListOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, second, list.Items[0].ID)
	assert.True(t, list.Pagination.HasMore)

	stdout, err = runCLI(t, database, cfg, "", "latest")
	require.NoError(t, err)
	var latest ops.LatestOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &latest))
	require.NotNil(t, latest.Item)
	assert.Equal(t, second, latest.Item.ID)

	_, err = runCLI(t, database, cfg, "", "delete", "--name=second")
	require.NoError(t, err)

	stdout, err = runCLI(t, database, cfg, "", "list")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	assert.Equal(t, 1, list.Pagination.Total)

	stdout, err = runCLI(t, database, cfg, "", "purge")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Permanently deleted 1 snapshot")
}

func TestCLIObjectsLookupCategories(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()
	id := storeDoc(t, database, cfg, "Galaxy")

	stdout, err := runCLI(t, database, cfg, "", "objects", "--category=1", id)
	require.NoError(t, err)
	var objects ops.ObjectsOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &objects))
	require.Len(t, objects.Items, 1)
	assert.Equal(t, "CoinRing", objects.Items[0].ID)

	_, err = runCLI(t, database, cfg, "", "objects", "--category=x", id)
	require.Error(t, err)

	stdout, err = runCLI(t, database, cfg, "", "lookup", "--name=galaxy", "Kuribo")
	require.NoError(t, err)
	var lookup ops.LookupOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &lookup))
	assert.Equal(t, "Goomba", lookup.Object.Name)
	require.NotNil(t, lookup.CategoryName)
	assert.Equal(t, "Enemies", *lookup.CategoryName)

	_, err = runCLI(t, database, cfg, "", "lookup", "--id", id, "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[NOT_FOUND]")

	stdout, err = runCLI(t, database, cfg, "", "categories", id)
	require.NoError(t, err)
	var cats ops.CategoriesOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &cats))
	assert.Len(t, cats.Items, 2)
}

func TestCLIEditAndDiff(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()
	storeDoc(t, database, cfg, "Galaxy")

	changes := `
- op: set_model
  object_id: CoinRing
  model: CoinRing
- op: remove_object
  object_id: Kuribo
`
	stdout, err := runCLI(t, database, cfg, changes, "edit", "--name=galaxy", "--save-as=Galaxy v2")
	require.NoError(t, err)
	var edited ops.EditOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &edited))
	assert.Equal(t, []string{`Remove object "Kuribo"`, `Set model of "CoinRing"`}, edited.Applied)

	stdout, err = runCLI(t, database, cfg, "", "diff", "--from-name=galaxy", "--to-name=galaxy v2")
	require.NoError(t, err)
	var diff ops.DiffOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &diff))
	assert.Equal(t, []string{"Kuribo"}, diff.Removed)
	require.Len(t, diff.Changed, 1)
	assert.Equal(t, "CoinRing", diff.Changed[0].ID)
	assert.False(t, diff.Identical)

	// JSON change lists are accepted too
	_, err = runCLI(t, database, cfg, "", "edit", "--name=galaxy", `--changes=[{"op":"undo"}]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[NOTHING_TO_UNDO]")
	assert.Contains(t, err.Error(), "changes[0]")
}

func TestCLIExportImport(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()
	storeDoc(t, database, cfg, "Galaxy")

	path := filepath.Join(t.TempDir(), "galaxy.xml")
	stdout, err := runCLI(t, database, cfg, "", "export", "--name=galaxy", "--keep-timestamp", "--path="+path)
	require.NoError(t, err)
	var exported ops.ExportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &exported))
	assert.Equal(t, int64(1700000000), exported.DocTimestamp)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `timestamp="1700000000"`)

	// Same timestamp is not newer
	stdout, err = runCLI(t, database, cfg, "", "import", "--mode=newer", path)
	require.NoError(t, err)
	var imported ops.ImportOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &imported))
	assert.True(t, imported.Skipped)

	_, err = runCLI(t, database, cfg, "", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[NAME_ALREADY_EXISTS]")

	stdout, err = runCLI(t, database, cfg, "", "import", "--name=copy", path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &imported))
	assert.True(t, imported.Imported)

	_, err = runCLI(t, database, cfg, "", "import")
	require.Error(t, err)
}

func TestCLIErrorHandling(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()

	tests := []struct {
		name string
		args []string
	}{
		{"fetch not found", []string{"fetch", "--name=nonexistent"}},
		{"delete not found", []string{"delete", "--name=nonexistent"}},
		{"invalid duration", []string{"purge", "--older-than=invalid"}},
		{"edit without changes", []string{"edit", "--name=x", "--changes=[]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, database, cfg, "", tt.args...)
			require.Error(t, err)
			var exitErr cli.ExitCoder
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 1, exitErr.ExitCode())
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"7d", 7, false},
		{"0d", 0, false},
		{"30d", 30, false},
		{"-1d", 0, true},
		{"7", 0, true},
		{"xd", 0, true},
		{"7h", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestParseChanges(t *testing.T) {
	changes, err := parseChanges(`[{"op":"set_category","category_id":3,"category_name":"Gimmicks"}]`)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].CategoryID)
	assert.Equal(t, 3, *changes[0].CategoryID)
	assert.Equal(t, "Gimmicks", changes[0].CategoryName)

	_, err = parseChanges("op: [")
	assert.Error(t, err)
}

func TestReadStdinWithLimit(t *testing.T) {
	got, err := readStdin(strings.NewReader("small content"), 1000)
	require.NoError(t, err)
	assert.Equal(t, "small content", got)

	_, err = readStdin(strings.NewReader(strings.Repeat("x", 100)), 50)
	assert.Error(t, err)
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"objdb"}, false},
		{[]string{"objdb", "import"}, true},
		{[]string{"objdb", "diff"}, true},
		{[]string{"objdb", "serve"}, true},
		{[]string{"objdb", "--format", "yaml", "list"}, true},
		{[]string{"objdb", "--format=yaml", "list"}, true},
		{[]string{"objdb", "--help"}, true},
		{[]string{"objdb", "-v"}, true},
		{[]string{"objdb", "--unknown"}, false},
	}
	for _, tt := range tests {
		oldArgs := os.Args
		os.Args = tt.args
		got := isCLIMode()
		os.Args = oldArgs
		assert.Equal(t, tt.want, got, "%v", tt.args)
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := map[string]bool{
		"--help": true, "-h": true, "--version": true, "-v": true, "help": true, "store": false,
	}
	for arg, want := range tests {
		oldArgs := os.Args
		os.Args = []string{"objdb", arg}
		got := isHelpOrVersion()
		os.Args = oldArgs
		assert.Equal(t, want, got, arg)
	}
}
