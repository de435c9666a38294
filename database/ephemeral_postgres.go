package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/stapelberg/postgrestest"
)

// SetupEphemeralPostgresDatabase starts a throwaway PostgreSQL instance and
// returns an open connection to a fresh database on it. The caller owns the
// server's cleanup.
func SetupEphemeralPostgresDatabase() (*sql.DB, *postgrestest.Server, error) {
	Logger.Info("Starting ephemeral PostgreSQL server...")

	ctx := context.Background()

	pgt, err := postgrestest.Start(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start ephemeral postgres: %w", err)
	}

	studioDSN, err := pgt.CreateDatabase(ctx)
	if err != nil {
		pgt.Cleanup()
		return nil, nil, fmt.Errorf("failed to create catalogstudio database: %w", err)
	}

	Logger.Info("Created ephemeral database", "dsn", studioDSN)

	db, err := sql.Open("postgres", studioDSN)
	if err != nil {
		pgt.Cleanup()
		return nil, nil, fmt.Errorf("failed to open catalogstudio database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		pgt.Cleanup()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Logger.Info("Connected to ephemeral PostgreSQL database successfully")

	return db, pgt, nil
}
