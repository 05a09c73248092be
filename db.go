package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// migration queries
	createSettingsTableSQL = `
  CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
  )`

	// setting queries
	getSettingSQL    = `SELECT value FROM settings WHERE key = ?`
	deleteSettingSQL = `DELETE FROM settings WHERE key = ?`
	upsertSettingSQL = `
  INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
  ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
)

// Repo is the sqlite backed StateStore used on a single machine.
type Repo struct {
	db *sql.DB
}

func NewRepo(dbPath string) (*Repo, error) {
	// ensure directory exists
	err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// open database
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// verify connection with database
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &Repo{db: db}

	// run migrations
	if err := repo.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}

// runs migrations on initial start
func (r *Repo) runMigrations() error {
	tables := []string{
		createSettingsTableSQL,
	}

	for _, tableSQL := range tables {
		if _, err := r.db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// +---------------------+
// |                     |
// |   Setting Queries   |
// |                     |
// +---------------------+

func (r *Repo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, getSettingSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error reading setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Repo) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, upsertSettingSQL, key, value); err != nil {
		return fmt.Errorf("error writing setting %s: %w", key, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, deleteSettingSQL, key); err != nil {
		return fmt.Errorf("error deleting setting %s: %w", key, err)
	}
	return nil
}
