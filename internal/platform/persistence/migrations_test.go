package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunMigrations_RejectsMissingInput(t *testing.T) {
	version, err := RunMigrations("postgres://localhost/cards", "")
	assert.EqualError(t, err, "migrations path cannot be empty")
	assert.Zero(t, version)

	_, err = RunMigrations("", "migrations/postgres")
	assert.EqualError(t, err, "database URL cannot be empty")
}

func TestMigrationSourceURL(t *testing.T) {
	assert.Equal(t, "file://migrations/postgres", migrationSourceURL("migrations/postgres"))
	assert.Equal(t, "file:///srv/migrations", migrationSourceURL("/srv/migrations"))
	assert.Equal(t, "file://./migrations", migrationSourceURL("file://./migrations"))
}

func TestErrDirtySchema(t *testing.T) {
	err := ErrDirtySchema{Version: 2}
	assert.EqualError(t, err, "schema is dirty at version 2")
	assert.ErrorIs(t, err, ErrDirtySchema{})
}
