package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/logging"
	"github.com/hpungsan/objdb/internal/mcp"
	"github.com/hpungsan/objdb/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"import": true, "store": true, "export": true,
	"list": true, "fetch": true, "latest": true,
	"delete": true, "purge": true,
	"objects": true, "lookup": true, "categories": true,
	"edit": true, "diff": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	// Global flags before the command (e.g. --format yaml list)
	if arg == "--format" || arg == "-f" || strings.HasPrefix(arg, "--format=") {
		return true
	}
	return isHelpOrVersion()
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a short banner when run interactively without args.
func printBanner() {
	fmt.Println(`
        _     _     _ _
   ___ | |__ (_) __| | |__
  / _ \| '_ \| |/ _' | '_ \
 | (_) | |_) | | (_| | |_) |
  \___/|_.__// |\__,_|_.__/
           |__/

  Level object database snapshots

  Usage: objdb <command> [options]
         objdb --help

  MCP server mode requires piped input.`)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no database
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, logging.NewNop())
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ops.BaseDirName)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = baseDir
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs always go to stderr
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("unknown types in disabled_types", "types", unknown, "known", mcp.KnownTypes)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	if isCLIMode() {
		app := newCLIApp(database, cfg, logger)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			database.Close()
			os.Exit(1)
		}
		return
	}

	// Unknown argument on a terminal is a typo, not an MCP client
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'objdb --help' for usage.\n")
		database.Close()
		os.Exit(1)
	}

	logger.Debug("starting MCP server", "version", Version)
	if err := mcp.Run(database, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		database.Close()
		os.Exit(1)
	}
}
