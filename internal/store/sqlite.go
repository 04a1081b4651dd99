package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KatriaDopex/moltmatch/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		device_id TEXT PRIMARY KEY,
		api_key TEXT,
		live_mode INTEGER NOT NULL DEFAULT 0,
		my_agent_json TEXT,
		matches_json TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadSession reads the snapshot for a device.
func (s *SQLiteStore) LoadSession(ctx context.Context, deviceID string) (*domain.SessionState, error) {
	query := `
		SELECT api_key, live_mode, my_agent_json, matches_json
		FROM sessions WHERE device_id = ?`

	row := s.db.QueryRowContext(ctx, query, deviceID)

	var apiKey sql.NullString
	var liveMode int
	var myAgentJSON sql.NullString
	var matchesJSON string

	err := row.Scan(&apiKey, &liveMode, &myAgentJSON, &matchesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	state := domain.NewSessionState()
	state.APIKey = apiKey.String
	state.LiveMode = liveMode != 0

	if myAgentJSON.Valid && myAgentJSON.String != "" {
		var agent domain.Agent
		if err := json.Unmarshal([]byte(myAgentJSON.String), &agent); err != nil {
			slog.Warn("Corrupted my_agent snapshot, starting fresh", "device_id", deviceID, "error", err)
			return domain.NewSessionState(), nil
		}
		state.MyAgent = &agent
	}

	if err := json.Unmarshal([]byte(matchesJSON), &state.Matches); err != nil {
		slog.Warn("Corrupted matches snapshot, starting fresh", "device_id", deviceID, "error", err)
		return domain.NewSessionState(), nil
	}

	return state, nil
}

// SaveSession writes the full snapshot for a device. Serialization happens
// before any write, so a marshal failure leaves the stored snapshot intact.
func (s *SQLiteStore) SaveSession(ctx context.Context, deviceID string, state *domain.SessionState) error {
	var myAgentJSON interface{}
	if state.MyAgent != nil {
		b, err := json.Marshal(state.MyAgent)
		if err != nil {
			return fmt.Errorf("marshal my_agent: %w", err)
		}
		myAgentJSON = string(b)
	}

	matches := state.Matches
	if matches == nil {
		matches = []domain.Match{}
	}
	matchesJSON, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("marshal matches: %w", err)
	}

	var apiKey interface{}
	if state.APIKey != "" {
		apiKey = state.APIKey
	}

	now := time.Now().Unix()
	query := `
	INSERT INTO sessions (device_id, api_key, live_mode, my_agent_json, matches_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(device_id) DO UPDATE SET
		api_key = excluded.api_key,
		live_mode = excluded.live_mode,
		my_agent_json = excluded.my_agent_json,
		matches_json = excluded.matches_json,
		updated_at = excluded.updated_at`

	liveMode := 0
	if state.LiveMode {
		liveMode = 1
	}

	if _, err := s.db.ExecContext(ctx, query,
		deviceID, apiKey, liveMode, myAgentJSON, string(matchesJSON), now, now,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// ClearSession deletes the snapshot for a device.
func (s *SQLiteStore) ClearSession(ctx context.Context, deviceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE device_id = ?`, deviceID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
