package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/loyalty/backend/internal/infrastructure/config"
)

func main() {
	var (
		dir    = flag.String("dir", "migrations", "migrations directory")
		action = flag.String("action", "up", "migration action: up, down, version")
		steps  = flag.Int("steps", 0, "number of steps for down (0 means all)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("failed to load config: %v", err)
	}

	m, err := migrate.New("file://"+*dir, databaseURL(&cfg.Database))
	if err != nil {
		fail("failed to initialize migrations: %v", err)
	}
	defer m.Close()

	switch *action {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			fail("failed to read version: %v", verr)
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return
	default:
		fail("unknown action %q", *action)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fail("migration failed: %v", err)
	}
	fmt.Println("migrations applied")
}

// databaseURL builds the postgres URL for golang-migrate
func databaseURL(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
