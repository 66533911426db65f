package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
	"github.com/sirupsen/logrus"
)

// Store wraps the bot's sqlite database: the move audit log and the registry
// of ephemeral webhooks that still need cleanup.
type Store struct {
	db *sql.DB
}

// InitDB opens (and if necessary creates) the database at dbPath and makes
// sure all tables exist.
func InitDB(dbPath string) (*Store, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	logrus.WithField("path", dbPath).Info("connected to the database")
	return store, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	if err := createMovesTable(s.db); err != nil {
		return fmt.Errorf("failed to create moves table: %w", err)
	}
	if err := createPendingWebhooksTable(s.db); err != nil {
		return fmt.Errorf("failed to create pending_webhooks table: %w", err)
	}
	return nil
}

func createMovesTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS moves (
        db_id INTEGER PRIMARY KEY AUTOINCREMENT,
        guild_id TEXT,
        source_channel_id TEXT,
        destination_id TEXT,
        initiator_id TEXT,
        message_count INTEGER,
        timestamp INTEGER
    );`
	_, err := db.Exec(query)
	return err
}

func createPendingWebhooksTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS pending_webhooks (
        webhook_id TEXT PRIMARY KEY,
        channel_id TEXT,
        created_at INTEGER
    );`
	_, err := db.Exec(query)
	return err
}
