package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirtySchema is returned when a previous migration failed half way and the
// schema needs manual repair before the services may start.
type ErrDirtySchema struct {
	Version uint
}

func (e ErrDirtySchema) Error() string {
	return fmt.Sprintf("schema is dirty at version %d", e.Version)
}

func (e ErrDirtySchema) Is(target error) bool {
	_, ok := target.(ErrDirtySchema)
	return ok
}

// migrationSourceURL turns a directory into a file:// source URL. Values that
// already carry a scheme are used as is.
func migrationSourceURL(migrationsPath string) string {
	if strings.Contains(migrationsPath, "://") {
		return migrationsPath
	}
	return "file://" + migrationsPath
}

// RunMigrations brings the reference and outbox tables up to the newest
// version under migrationsPath and returns that version.
func RunMigrations(databaseURL string, migrationsPath string) (uint, error) {
	if migrationsPath == "" {
		return 0, errors.New("migrations path cannot be empty")
	}
	if databaseURL == "" {
		return 0, errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(migrationSourceURL(migrationsPath), databaseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if version, dirty, err := m.Version(); err == nil && dirty {
		return 0, ErrDirtySchema{Version: version}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
