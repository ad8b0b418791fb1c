// ABOUTME: Entry point for the innkeep CLI, TUI, API server, and MCP server
// ABOUTME: Loads config, opens the selected backend, and routes to the requested command
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/harperreed/innkeep/charm"
	"github.com/harperreed/innkeep/cli"
	"github.com/harperreed/innkeep/config"
	"github.com/harperreed/innkeep/logging"
	"github.com/harperreed/innkeep/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", config.Path(), "Config file path")
	backend := flag.String("backend", "", "Backend override (sqlite, postgres, charm, http)")
	dbPath := flag.String("db-path", "", "SQLite database path override")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	flag.Usage = printUsage

	// Parse global flags but leave subcommand flags alone
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("innkeep version %s\n", cli.Version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return nil
	}
	command, commandArgs := args[0], args[1:]
	if command == "version" {
		fmt.Printf("innkeep version %s\n", cli.Version)
		return nil
	}

	if err := config.LoadEnvFiles(); err != nil {
		return err
	}
	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return err
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// The TUI owns the terminal, so it logs to a file.
	logOut := io.Writer(os.Stderr)
	if command == "tui" || cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}
	logger := logging.New(logOut, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("failed to close backend", "err", err)
		}
	}()
	logger.Debug("backend opened", "backend", b.Kind)

	opts, err := cfg.SyncOptions(logger)
	if err != nil {
		return err
	}
	session, err := b.NewSession()
	if err != nil {
		return err
	}

	env := &cli.Env{
		Store:     b.Store,
		Session:   session,
		Options:   opts,
		Directory: b.Directory,
		Records:   b.Records,
		Out:       os.Stdout,
		Prompt:    cli.TerminalPrompter(os.Stdout),
	}

	switch command {
	case "list":
		return cli.ListCommand(ctx, env, commandArgs)
	case "show":
		return cli.ShowCommand(ctx, env, commandArgs)
	case "add":
		return cli.AddCommand(ctx, env, commandArgs)
	case "update":
		return cli.UpdateCommand(ctx, env, commandArgs)
	case "delete":
		return cli.DeleteCommand(ctx, env, commandArgs)
	case "counts":
		return cli.CountsCommand(ctx, env, commandArgs)
	case "login":
		return cli.LoginCommand(ctx, env, commandArgs)
	case "logout":
		return cli.LogoutCommand(ctx, env, commandArgs)
	case "whoami":
		return cli.WhoamiCommand(ctx, env, commandArgs)
	case "member":
		return cli.MemberCommand(ctx, env, commandArgs)
	case "status":
		return cli.StatusCommand(ctx, env, commandArgs)
	case "charm":
		return charmCommand(b, commandArgs)
	case "serve":
		return cli.ServeCommand(ctx, b, cfg.ListenAddr, logger, commandArgs)
	case "mcp":
		return cli.MCPCommand(ctx, b.Store, opts)
	case "tui":
		return tui.Run(ctx, b.Store, session, opts)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func charmCommand(b *cli.Backend, args []string) error {
	if b.Charm == nil {
		return fmt.Errorf("charm commands need the charm backend (current: %s)", b.Kind)
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: innkeep charm <link|status|sync|wipe>")
	}
	switch args[0] {
	case "link":
		return charm.LinkCommand(b.Charm, os.Stdout, args[1:])
	case "status":
		return charm.StatusCommand(b.Charm, os.Stdout, args[1:])
	case "sync":
		return charm.NowCommand(b.Charm, os.Stdout, args[1:])
	case "wipe":
		return charm.WipeCommand(b.Charm, os.Stdout, args[1:])
	default:
		return fmt.Errorf("unknown charm command: %s", args[0])
	}
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		path = filepath.Join(config.DataDir(), "innkeep.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func printUsage() {
	fmt.Printf(`innkeep v%s - Hotel operations over remote collections

USAGE:
  innkeep [global flags] <command> [flags] [args]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/innkeep/config.json)
  --backend <name>       sqlite, postgres, charm, or http
  --db-path <path>       SQLite database path
  --log-level <level>    debug, info, warn, or error

COLLECTIONS:
  rooms, reservations, guests, staff, hotelservices, payments,
  housekeepingtasks, maintenancerequests

RECORD COMMANDS:
  innkeep list <collection>            List records
    --limit <n>                          Max rows (default: all)
  innkeep show <collection> <id>       Show one record
  innkeep add [--id id] <collection> key=value...
                                       Create a record (validated)
  innkeep update <collection> <id> key=value...
                                       Replace a record, keeping unspecified fields
  innkeep delete <collection> <id>     Delete a record
  innkeep counts                       Record counts per collection

SESSION:
  innkeep login [--nickname name]      Sign in (passcode is prompted)
  innkeep logout                       Sign out
  innkeep whoami                       Show the signed-in member
  innkeep member add <nickname>        Add a local member
  innkeep member list                  List local members
  innkeep member remove <nickname>     Remove a local member

SYNC:
  innkeep status                       Last load/write per collection (sql backends)
  innkeep charm link|status|sync|wipe  Charm Cloud sync (charm backend)

SERVERS:
  innkeep serve [--addr :8080]         Serve the collections API and dashboard
  innkeep mcp                          Start MCP server on stdio
  innkeep tui                          Full-screen terminal interface

EXAMPLES:
  # Add a front desk member and sign in
  innkeep member add frontdesk
  innkeep login --nickname frontdesk

  # Add a room
  innkeep add rooms itemName="Ocean 101" itemPrice=180 maxOccupancy=2 \
    roomType=Suite itemDescription="Sea view"

  # Book it
  innkeep add reservations reservationNumber=R-1001 guestName="Ada" \
    roomNumber=101 checkInDate=2025-01-10 checkOutDate=2025-01-12

`, cli.Version)
}
