package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrator applies the SQL migrations that define the chat, message, viewer
// and reaction schema, including the (user_id, message_id) uniqueness
// constraint on reactions.
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(dsn, sourcePath string) (*Migrator, error) {
	m, err := migrate.New("file://"+sourcePath, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening migration source: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. A no-change run is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
