// trackeradmin manages BusTraveller administrator accounts directly in the
// tracker database. It is meant for first-time setup and recovery when no
// admin can log in to the dashboard.
//
// Running sessions of a changed or deleted admin live in the server process
// and end when it restarts.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	_ "github.com/bustraveller/tracker-core/migrations"

	"github.com/bustraveller/tracker-core/internal/auth"
	"github.com/bustraveller/tracker-core/internal/infrastructure/config"
	"github.com/bustraveller/tracker-core/internal/infrastructure/database"
	"github.com/bustraveller/tracker-core/internal/infrastructure/logging"
)

const defaultConfigPath = "configs/config.yaml"

var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		color.Yellow("Ignoring unreadable .env file: %v\n", err)
	}

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			color.Red("Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run parses global flags, opens the database and dispatches the command.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fset := flag.NewFlagSet("trackeradmin", flag.ContinueOnError)
	fset.SetOutput(stdout)
	configPath := fset.String("config", getConfigPath(), "path to the tracker config file")
	dbPath := fset.String("db", "", "path to the SQLite database (overrides the config file)")
	fset.Usage = func() { printUsage(stdout) }

	if err := fset.Parse(args); err != nil {
		return errUsage
	}
	if fset.NArg() == 0 {
		printUsage(stdout)
		return errUsage
	}

	cmd, cmdArgs := fset.Arg(0), fset.Args()[1:]
	if cmd == "help" {
		printUsage(stdout)
		return nil
	}

	path, err := resolveDatabasePath(*configPath, *dbPath)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, database.Config{Path: path, WALMode: true, BusyTimeout: 5})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Schema commands run against the database as it is, before any upgrade.
	if cmd == "migrate" {
		return migrate(ctx, db, cmdArgs, stdout)
	}

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	svc := auth.NewService(
		auth.NewCredentialRepository(db.DB),
		auth.NewMemorySessionStore(0),
		logging.Discard().Logger,
	)
	c := &cli{svc: svc, in: bufio.NewReader(stdin), out: stdout}

	switch cmd {
	case "add":
		return c.add(ctx, cmdArgs)
	case "list":
		return c.list(ctx)
	case "delete":
		return c.remove(ctx, cmdArgs)
	case "passwd":
		return c.passwd(ctx, cmdArgs)
	default:
		fmt.Fprintf(stdout, "Unknown command: %s\n", cmd)
		printUsage(stdout)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(w, "Usage: trackeradmin [-config path] [-db path] <command> [args]")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <username> <password>     Create an admin (offers to reset the password if it exists)")
	fmt.Fprintln(w, "  list                          List admins")
	fmt.Fprintln(w, "  delete <username>             Delete an admin (the last admin cannot be deleted)")
	fmt.Fprintln(w, "  passwd <username> <password>  Set a new password")
	fmt.Fprintln(w, "  migrate status                Show applied and pending schema migrations")
	fmt.Fprintln(w, "  migrate up                    Apply pending schema migrations")
	fmt.Fprintln(w, "  migrate down                  Roll back the latest schema migration")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  TRACKER_CONFIG          Config file (default: configs/config.yaml)")
	fmt.Fprintln(w, "  TRACKER_DATABASE_PATH   Database path override")
}

// getConfigPath returns TRACKER_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// resolveDatabasePath prefers an explicit -db flag, then the config file.
func resolveDatabasePath(configPath, dbPath string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", fmt.Errorf("loading config (or pass -db): %w", err)
	}
	return cfg.Database.Path, nil
}

// migrate inspects or changes the schema version.
func migrate(ctx context.Context, db *database.DB, args []string, out io.Writer) error {
	if len(args) != 1 {
		printUsage(out)
		return errUsage
	}

	switch args[0] {
	case "status":
	case "up":
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	case "down":
		if err := db.MigrateDown(ctx); err != nil {
			return fmt.Errorf("rolling back migration: %w", err)
		}
	default:
		printUsage(out)
		return errUsage
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	color.New(color.FgCyan).Fprintln(tw, "VERSION\tSTATE\tAPPLIED")
	for _, r := range applied {
		fmt.Fprintf(tw, "%s\tapplied\t%s\n", r.Version, r.AppliedAt.Local().Format(time.DateTime))
	}
	for _, m := range pending {
		fmt.Fprintf(tw, "%s\tpending\t%s\n", m.Version, m.Name)
	}
	return tw.Flush()
}

type cli struct {
	svc *auth.Service
	in  *bufio.Reader
	out io.Writer
}

func (c *cli) add(ctx context.Context, args []string) error {
	if len(args) != 2 {
		printUsage(c.out)
		return errUsage
	}
	username, password := args[0], args[1]

	cred, err := c.svc.CreateAdmin(ctx, username, password)
	switch {
	case err == nil:
		color.New(color.FgGreen).Fprintf(c.out, "Admin %q created (id %d)\n", cred.Username, cred.ID)
		return nil
	case errors.Is(err, auth.ErrUsernameExists):
	default:
		return err
	}

	ok, err := c.confirm(fmt.Sprintf("Admin %q already exists. Update the password?", username))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.out, "Password left unchanged.")
		return nil
	}
	if err := c.svc.SetPassword(ctx, username, password); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.out, "Password updated for %q\n", username)
	return nil
}

func (c *cli) list(ctx context.Context) error {
	admins, err := c.svc.ListAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Fprintln(c.out, "No admins.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	color.New(color.FgCyan).Fprintln(tw, "ID\tUSERNAME\tCREATED")
	for _, a := range admins {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.ID, a.Username, a.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (c *cli) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printUsage(c.out)
		return errUsage
	}
	if err := c.svc.DeleteAdminByUsername(ctx, args[0]); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.out, "Admin %q deleted\n", args[0])
	return nil
}

func (c *cli) passwd(ctx context.Context, args []string) error {
	if len(args) != 2 {
		printUsage(c.out)
		return errUsage
	}
	if err := c.svc.SetPassword(ctx, args[0], args[1]); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.out, "Password updated for %q\n", args[0])
	return nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (c *cli) confirm(question string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
