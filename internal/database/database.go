package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "asvab_user")
	password := getEnv("DB_PASSWORD", "asvab_password")
	dbname := getEnv("DB_NAME", "asvab_prep")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS calibration_runs (
		id              BIGSERIAL PRIMARY KEY,
		item_count      INT NOT NULL DEFAULT 0,
		dropped_records INT NOT NULL DEFAULT 0,
		created_at      TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS calibrated_items (
		id                 BIGSERIAL PRIMARY KEY,
		run_id             BIGINT NOT NULL REFERENCES calibration_runs(id) ON DELETE CASCADE,
		question_id        VARCHAR(100) NOT NULL,
		difficulty         DOUBLE PRECISION NOT NULL CHECK (difficulty >= -3 AND difficulty <= 3),
		discrimination     DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		guessing           DOUBLE PRECISION NOT NULL DEFAULT 0.25 CHECK (guessing >= 0 AND guessing < 1),
		main_topic_id      VARCHAR(100),
		sub_topic_id       VARCHAR(100),
		calibrated         BOOLEAN NOT NULL DEFAULT FALSE,
		attempt_count      INT NOT NULL DEFAULT 0,
		correct_count      INT NOT NULL DEFAULT 0,
		mean_response_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		UNIQUE(run_id, question_id)
	);

	CREATE INDEX IF NOT EXISTS idx_calibrated_items_run ON calibrated_items(run_id);
	CREATE INDEX IF NOT EXISTS idx_calibrated_items_topic ON calibrated_items(main_topic_id, sub_topic_id);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
