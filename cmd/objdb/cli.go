package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/ops"
	"github.com/hpungsan/objdb/internal/web"
)

// Output formats accepted by --format.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.App {
	app := &cli.App{
		Name:    "objdb",
		Usage:   "Snapshot store for level object databases",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatJSON, Usage: "Output format: json|yaml"},
		},
		Before: func(c *cli.Context) error {
			switch c.String("format") {
			case formatJSON, formatYAML:
				return nil
			}
			return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want json or yaml)", c.String("format"))))
		},
		Commands: []*cli.Command{
			importCmd(db, cfg),
			storeCmd(db, cfg),
			exportCmd(db, cfg),
			listCmd(db),
			fetchCmd(db),
			latestCmd(db),
			deleteCmd(db),
			purgeCmd(db),
			objectsCmd(db),
			lookupCmd(db),
			categoriesCmd(db),
			editCmd(db, cfg),
			diffCmd(db),
			serveCmd(db, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addressFlags are shared by commands that take one snapshot.
func addressFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Snapshot name"},
	}, extra...)
}

// address reads the positional id or --name.
func address(c *cli.Context) (id, name string) {
	if c.NArg() > 0 {
		return c.Args().First(), c.String("name")
	}
	return "", c.String("name")
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import an object database XML file as a snapshot",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Snapshot name (default: file name without extension)"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Name collision mode: error|replace|newer"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("path is required"))
			}
			input := ops.ImportInput{
				Path: c.Args().First(),
				Mode: ops.ImportMode(c.String("mode")),
			}
			if c.IsSet("name") {
				name := c.String("name")
				input.Name = &name
			}

			output, err := ops.Import(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// storeCmd creates the store command.
func storeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Store a document piped via stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Snapshot name (optional)"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Name collision mode: error|replace|newer"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData(c.App.Reader) {
				return outputError(errors.NewInvalidRequest("document must be piped via stdin"))
			}
			doc, err := readStdin(c.App.Reader, documentLimit(cfg))
			if err != nil {
				return outputError(err)
			}

			input := ops.StoreInput{
				Document: doc,
				Mode:     ops.ImportMode(c.String("mode")),
			}
			if name := c.String("name"); name != "" {
				input.Name = &name
			}

			output, err := ops.Store(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a snapshot to an XML file",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.objdb/exports/<name>-<timestamp>.xml)"},
			&cli.BoolFlag{Name: "keep-timestamp", Usage: "Keep the document timestamp instead of refreshing it"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			input := ops.ExportInput{ID: id, Name: name, Path: c.String("path")}
			if c.Bool("keep-timestamp") {
				refresh := false
				input.RefreshTimestamp = &refresh
			}

			output, err := ops.Export(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List snapshots, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name-prefix", Usage: "Filter by name prefix"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted snapshots"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db, ops.ListInput{
				NamePrefix:     c.String("name-prefix"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a snapshot by ID or name",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted snapshots"},
			&cli.BoolFlag{Name: "no-document", Usage: "Exclude the document from output"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			input := ops.FetchInput{ID: id, Name: name, IncludeDeleted: c.Bool("include-deleted")}
			if c.Bool("no-document") {
				includeDocument := false
				input.IncludeDocument = &includeDocument
			}

			output, err := ops.Fetch(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// latestCmd creates the latest command.
func latestCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Get the most recently stored snapshot",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-document", Usage: "Include the document in output"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted snapshots"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Latest(c.Context, db, ops.LatestInput{
				IncludeDocument: c.Bool("include-document"),
				IncludeDeleted:  c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a snapshot",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: id, Name: name})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			var input ops.PurgeInput
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// objectsCmd creates the objects command.
func objectsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "objects",
		Usage:     "List a snapshot's objects in document order",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category id"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Filter by id or name substring"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultObjectsLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			input := ops.ObjectsInput{
				ID:     id,
				Name:   name,
				Query:  c.String("query"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}
			if s := c.String("category"); s != "" {
				cat, err := strconv.Atoi(s)
				if err != nil {
					return outputError(errors.NewInvalidRequest("category must be an integer"))
				}
				input.Category = &cat
			}

			output, err := ops.Objects(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// lookupCmd creates the lookup command.
func lookupCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Show one object of a snapshot",
		ArgsUsage: "<object-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Snapshot ID"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Snapshot name"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Lookup(c.Context, db, ops.LookupInput{
				ID:       c.String("id"),
				Name:     c.String("name"),
				ObjectID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// categoriesCmd creates the categories command.
func categoriesCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "categories",
		Usage:     "List a snapshot's categories with entry counts",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Categories(c.Context, db, ops.CategoriesInput{ID: id, Name: name})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// editCmd creates the edit command.
func editCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Apply changes (JSON or YAML list, from --changes or stdin) and store the result as a new snapshot",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "changes", Usage: "Change list; read from stdin when omitted"},
			&cli.StringFlag{Name: "save-as", Usage: "Name of the new snapshot (default: unnamed)"},
		),
		Action: func(c *cli.Context) error {
			raw := c.String("changes")
			if raw == "" {
				if !stdinHasData(c.App.Reader) {
					return outputError(errors.NewInvalidRequest("changes must be given with --changes or piped via stdin"))
				}
				var err error
				if raw, err = readStdin(c.App.Reader, documentLimit(cfg)); err != nil {
					return outputError(err)
				}
			}
			changes, err := parseChanges(raw)
			if err != nil {
				return outputError(err)
			}

			id, name := address(c)
			input := ops.EditInput{ID: id, Name: name, Changes: changes}
			if c.IsSet("save-as") {
				saveAs := c.String("save-as")
				input.SaveAs = &saveAs
			}

			output, err := ops.Edit(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// diffCmd creates the diff command.
func diffCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare the objects and categories of two snapshots",
		ArgsUsage: "[from-id] [to-id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from-name", Usage: "Name of the older snapshot"},
			&cli.StringFlag{Name: "to-name", Usage: "Name of the newer snapshot"},
		},
		Action: func(c *cli.Context) error {
			input := ops.DiffInput{
				FromName: c.String("from-name"),
				ToName:   c.String("to-name"),
			}
			// Positional ids fill whichever side has no name
			args := c.Args().Slice()
			if input.FromName == "" && len(args) > 0 {
				input.FromID, args = args[0], args[1:]
			}
			if input.ToName == "" && len(args) > 0 {
				input.ToID = args[0]
			}

			output, err := ops.Diff(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the read-only snapshot browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "Listen address (default: web_addr from config)"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(db, cfg, Version, c.String("addr"), logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(srv, logger); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// Helper functions

// output2 writes v to the app writer in the selected format.
func printResult(c *cli.Context, v any) error {
	w := c.App.Writer
	if c.String("format") == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err for the CLI as "[CODE] message".
func outputError(err error) error {
	if oErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", oErr.Code, oErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if r is piped data rather than a terminal.
func stdinHasData(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most maxBytes from r.
func readStdin(r io.Reader, maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > maxBytes {
		return "", errors.NewDocumentTooLarge(maxBytes, int64(len(data)))
	}
	return string(data), nil
}

func documentLimit(cfg *config.Config) int64 {
	if cfg != nil && cfg.DocumentMaxBytes > 0 {
		return cfg.DocumentMaxBytes
	}
	return config.DefaultConfig().DocumentMaxBytes
}

// parseChanges decodes a change list. YAML is a superset of JSON, so both
// are accepted.
func parseChanges(raw string) ([]ops.Change, error) {
	var changes []ops.Change
	if err := yaml.Unmarshal([]byte(raw), &changes); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid changes: %v", err))
	}
	if len(changes) == 0 {
		return nil, errors.NewInvalidRequest("changes must not be empty")
	}
	return changes, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
