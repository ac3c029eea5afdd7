package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'user',
			bio TEXT NOT NULL DEFAULT '',
			location VARCHAR(255) NOT NULL DEFAULT '',
			languages TEXT[] NOT NULL DEFAULT '{}',
			timezone VARCHAR(64) NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			sessions_taught INT NOT NULL DEFAULT 0,
			sessions_learned INT NOT NULL DEFAULT 0,
			avg_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS teaching_skills (
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			sessions INT NOT NULL DEFAULT 0,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS learning_skills (
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			PRIMARY KEY (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS certifications (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			issuer VARCHAR(255) NOT NULL DEFAULT '',
			year VARCHAR(10) NOT NULL DEFAULT '',
			file_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id VARCHAR(36) PRIMARY KEY REFERENCES users(id),
			balance INT NOT NULL CHECK (balance >= 0),
			total_earned INT NOT NULL DEFAULT 0,
			total_spent INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credit_transactions (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			type VARCHAR(10) NOT NULL,
			amount INT NOT NULL,
			description TEXT NOT NULL,
			meeting_id VARCHAR(36),
			other_user_id VARCHAR(36),
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id VARCHAR(36) PRIMARY KEY,
			created_by VARCHAR(36) NOT NULL REFERENCES users(id),
			partner_id VARCHAR(36) NOT NULL REFERENCES users(id),
			title VARCHAR(255) NOT NULL,
			starts_at TIMESTAMP NOT NULL,
			duration INT NOT NULL DEFAULT 60,
			conversation_id VARCHAR(36),
			provider VARCHAR(20) NOT NULL DEFAULT 'jitsi',
			room_name VARCHAR(255) NOT NULL,
			join_url TEXT NOT NULL,
			session_type VARCHAR(10) NOT NULL,
			skill VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(10) NOT NULL DEFAULT 'scheduled',
			rating INT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id VARCHAR(36) PRIMARY KEY,
			from_user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			to_user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			meeting_id VARCHAR(36),
			skill VARCHAR(255) NOT NULL,
			rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS verification_codes (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			code VARCHAR(6) NOT NULL,
			purpose VARCHAR(10) NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_feedback_triple ON feedback(from_user_id, to_user_id, meeting_id) WHERE meeting_id IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON credit_transactions(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_meetings_created_by ON meetings(created_by, starts_at)",
		"CREATE INDEX IF NOT EXISTS idx_meetings_partner ON meetings(partner_id, starts_at)",
		"CREATE INDEX IF NOT EXISTS idx_meetings_status ON meetings(status, starts_at)",
		"CREATE INDEX IF NOT EXISTS idx_feedback_to_user ON feedback(to_user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_feedback_from_user ON feedback(from_user_id, created_at DESC)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
