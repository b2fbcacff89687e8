// Command migrate manages the portal's database schema with
// golang-migrate. Connection settings come from the same environment
// variables the server reads.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/wahyudibo/secure-portal/internal/config"
)

func main() {
	path := flag.String("path", envOr("MIGRATIONS_PATH", "migrations"), "migrations directory")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if args[0] == "create" {
		if len(args) != 2 {
			fatal(errors.New("create requires a migration name"))
		}
		if err := createMigration(*path, args[1]); err != nil {
			fatal(err)
		}
		return
	}

	m, err := newMigrate(*path)
	if err != nil {
		fatal(err)
	}
	defer m.Close()

	if err := run(m, args); err != nil {
		fatal(err)
	}
}

func run(m *migrate.Migrate, args []string) error {
	cmd := args[0]
	switch cmd {
	case "up", "down":
		steps := 0
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("%s: step count must be a positive integer", cmd)
			}
			steps = n
		}
		var err error
		switch {
		case steps == 0 && cmd == "up":
			err = m.Up()
		case steps == 0 && cmd == "down":
			err = m.Down()
		case cmd == "up":
			err = m.Steps(steps)
		default:
			err = m.Steps(-steps)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no change")
			return nil
		}
		if err != nil {
			return err
		}
		return report(m)

	case "version":
		return report(m)

	case "goto":
		if len(args) != 2 {
			return errors.New("goto requires a target version")
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := m.Migrate(uint(v)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return report(m)

	case "force":
		if len(args) != 2 {
			return errors.New("force requires a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := m.Force(v); err != nil {
			return err
		}
		return report(m)

	case "drop":
		fmt.Print("this drops every table in the database; type 'yes' to continue: ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "yes" {
			fmt.Println("aborted")
			return nil
		}
		return m.Drop()

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func report(m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("version: none")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("version: %d dirty: %v\n", version, dirty)
	return nil
}

func newMigrate(path string) (*migrate.Migrate, error) {
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	return migrate.NewWithDatabaseInstance("file://"+path, cfg.Database.DBName, driver)
}

// createMigration writes an empty up/down pair using the next free
// sequence number.
func createMigration(path, name string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	next := 1
	for _, e := range entries {
		var seq int
		if _, err := fmt.Sscanf(e.Name(), "%d_", &seq); err == nil && seq >= next {
			next = seq + 1
		}
	}
	for _, dir := range []string{"up", "down"} {
		file := filepath.Join(path, fmt.Sprintf("%03d_%s.%s.sql", next, name, dir))
		if err := os.WriteFile(file, []byte("-- "+name+" ("+dir+")\n"), 0o644); err != nil {
			return err
		}
		fmt.Println("created", file)
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [options] <command> [args]

Commands:
  up [N]       apply all or N pending migrations
  down [N]     roll back all or N migrations
  goto V       migrate to version V
  force V      set version V without running migrations
  version      print the current version
  create NAME  create an empty up/down migration pair
  drop         drop every table (asks for confirmation)

Options:
`, os.Args[0])
	flag.PrintDefaults()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
