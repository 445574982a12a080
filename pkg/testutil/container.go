package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/healthstock/healthstock-backend/pkg/database"
	"github.com/healthstock/healthstock-backend/pkg/logger"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// NewPostgresContainer starts a PostgreSQL container for integration tests
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("healthstock_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

var (
	// Shared test container (one per test binary)
	sharedContainer *PostgresContainer
	sharedDB        *database.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationDB returns a wrapped connection to a shared PostgreSQL test
// container, starting it on first use. The test is skipped in short mode and
// when Docker is not available, so unit test runs stay hermetic.
func IntegrationDB(t *testing.T) *database.DB {
	t.Helper()
	SkipIfShort(t)

	containerOnce.Do(func() {
		ctx := context.Background()
		sharedContainer, containerErr = NewPostgresContainer(ctx)
		if containerErr != nil {
			return
		}

		var raw *sqlx.DB
		raw, containerErr = sharedContainer.Connect(ctx)
		if containerErr != nil {
			return
		}
		sharedDB = database.NewFromDB(raw, logger.New("test", "test"))
	})
	if containerErr != nil {
		t.Skipf("skipping integration test: %v", containerErr)
	}

	return sharedDB
}
