package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// GetTestDatabasePool creates a database connection pool for testing
func GetTestDatabasePool(ctx context.Context) (*pgxpool.Pool, error) {
	databaseURL := buildDatabaseURL()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// buildDatabaseURL constructs the database URL from environment variables
func buildDatabaseURL() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}

	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		user = "postgres"
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		password = "postgres"
	}

	dbname := os.Getenv("POSTGRES_DB")
	if dbname == "" {
		dbname = "debate_orchestrator"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=prefer",
		user, password, host, port, dbname)
}

// TestDatabase provides database utilities for testing
type TestDatabase struct {
	Pool *pgxpool.Pool
	ctx  context.Context
}

// NewTestDatabase creates a new test database instance
func NewTestDatabase(t *testing.T) *TestDatabase {
	ctx := context.Background()

	pool, err := GetTestDatabasePool(ctx)
	if err != nil {
		t.Skipf("Skipping: test database unavailable: %v", err)
	}

	return &TestDatabase{
		Pool: pool,
		ctx:  ctx,
	}
}

// Close closes the database connection
func (db *TestDatabase) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// CreateTestUser creates a test user and returns the user ID
func (db *TestDatabase) CreateTestUser(t *testing.T, email, hashedPassword string) string {
	var userID string

	err := db.Pool.QueryRow(db.ctx, `
		INSERT INTO users (name, email, hashed_password, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`, "Test User", email, hashedPassword).Scan(&userID)

	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// DeleteTestUser removes a test user and everything cascading from it
func (db *TestDatabase) DeleteTestUser(t *testing.T, userID string) {
	if _, err := db.Pool.Exec(db.ctx, "DELETE FROM debate_sessions WHERE created_by_user_id = $1", userID); err != nil {
		t.Logf("Warning: Failed to delete sessions for user %s: %v", userID, err)
	}
	if _, err := db.Pool.Exec(db.ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
		t.Logf("Warning: Failed to delete user %s: %v", userID, err)
	}
}

// GetSessionStatus reads the persisted status of a debate session
func (db *TestDatabase) GetSessionStatus(t *testing.T, sessionID string) string {
	var status string
	err := db.Pool.QueryRow(db.ctx, "SELECT status FROM debate_sessions WHERE id = $1", sessionID).Scan(&status)
	if err != nil {
		t.Fatalf("Failed to read session status: %v", err)
	}
	return status
}

// GetRoundCount returns the number of persisted rounds for a session
func (db *TestDatabase) GetRoundCount(t *testing.T, sessionID string) int {
	var count int
	err := db.Pool.QueryRow(db.ctx, "SELECT COUNT(*) FROM debate_rounds WHERE session_id = $1", sessionID).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rounds: %v", err)
	}
	return count
}

// GetOutboxEventCount returns the number of outbox events of the given type
func (db *TestDatabase) GetOutboxEventCount(t *testing.T, eventType string) int {
	var count int
	err := db.Pool.QueryRow(db.ctx, "SELECT COUNT(*) FROM outbox_events WHERE event_type = $1", eventType).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count outbox events: %v", err)
	}
	return count
}

// HashPassword hashes a password using bcrypt for testing
func (db *TestDatabase) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}
