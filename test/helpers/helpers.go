// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/medkitapp/medkit-be/internal/adapters/db"
	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	// Pull PostgreSQL image
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_medkit",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	// Clean up on test completion
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	// Get connection details
	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_medkit",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	// Run migrations
	ctx := context.Background()
	databaseURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
		dbConfig.Database, dbConfig.SSLMode)

	err = db.RunMigrations(ctx, databaseURL, TestLogger())
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-medkit",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_medkit",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			PoolSize: 10,
		},
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			JWTExpiration: 24 * time.Hour,
			BcryptCost:    4,
		},
		Sync: config.SyncConfig{
			PageSize:             10,
			AisleRefreshInterval: 10 * time.Millisecond,
			MedicinesChannel:     "medicines.changed",
		},
	}
}

// CreateTestMedicine creates a persisted test medicine
func CreateTestMedicine(overrides ...func(*domain.Medicine)) domain.Medicine {
	m := domain.Medicine{Name: "Paracetamol 500mg", Stock: 20, Aisle: "A1"}
	m.PrepareForStorage()

	for _, override := range overrides {
		override(&m)
	}

	return m
}

// CreateTestMedicines creates count test medicines with distinct names
func CreateTestMedicines(count int) []domain.Medicine {
	aisles := []string{"A1", "B2", "C3", "D1"}

	medicines := make([]domain.Medicine, count)
	for i := 0; i < count; i++ {
		medicines[i] = CreateTestMedicine(func(m *domain.Medicine) {
			m.Name = fmt.Sprintf("Medicine %03d", i+1)
			m.Stock = 10 + i
			m.Aisle = aisles[i%len(aisles)]
			m.PrepareForStorage()
		})
	}

	return medicines
}

// CreateTestHistoryEntry creates a history entry for the given medicine
func CreateTestHistoryEntry(medicineID string, overrides ...func(*domain.HistoryEntry)) domain.HistoryEntry {
	e := domain.NewHistoryEntry(domain.ActionCreated, "user-1", medicineID, "Medicine created")

	for _, override := range overrides {
		override(&e)
	}

	return e
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"history",
		"medicines",
		"users",
		"credentials",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// SeedTestData seeds the database with medicines
func SeedTestData(t *testing.T, db *pgxpool.Pool, medicines []domain.Medicine) {
	t.Helper()

	ctx := context.Background()

	for _, m := range medicines {
		_, err := db.Exec(ctx, `
			INSERT INTO medicines (id, name, name_lc, stock, aisle)
			VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.Name, m.NameLC, m.Stock, m.Aisle)
		require.NoError(t, err, "Failed to seed test data")
	}
}

// SeedTestUser inserts a row into the users table
func SeedTestUser(t *testing.T, db *pgxpool.Pool, user domain.AppUser) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email`,
		user.ID, user.Email)
	require.NoError(t, err, "Failed to seed test user")
}
