// Package dbtest starts a disposable Postgres for integration tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const (
	user     = "ledger"
	password = "ledger_password"
	dbName   = "copytrade_ledger"
)

// StartPostgres runs postgres:16-alpine, applies the migrations and returns a connected DB.
// The container and pools are released through t.Cleanup.
func StartPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		// postgres restarts once after init; the second ready line is the real one
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres test container: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	// DSNs are configured without the scheme; database.New and RunMigrations add their own.
	dsn := fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), dbName)

	logger := zap.NewNop()
	if err := database.RunMigrations(logger, dsn); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	db, closer, err := database.New(ctx, logger, database.Config{PrimaryDSN: dsn, MaxConns: 10, MinConns: 1})
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(closer)
	return db
}
