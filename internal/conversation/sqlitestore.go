package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/myrjola/allocovid/internal/db"
	"github.com/myrjola/allocovid/internal/errors"
)

// SQLiteStore persists conversation state as JSON documents so that
// voice sessions survive a restart mid-questionnaire.
type SQLiteStore struct {
	dbs    *db.DBs
	logger *slog.Logger
}

func NewSQLiteStore(dbs *db.DBs, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{
		dbs:    dbs,
		logger: logger.With("source", "SQLiteStore"),
	}
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*State, error) {
	var raw string
	stmt := `SELECT state FROM conversation_sessions WHERE session_id = ?`
	err := s.dbs.ReadDB.QueryRowContext(ctx, stmt, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read session state", slog.String("sessionID", sessionID))
	}

	var state State
	if err = json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, errors.Wrap(err, "decode session state", slog.String("sessionID", sessionID))
	}
	return &state, nil
}

func (s *SQLiteStore) Set(ctx context.Context, sessionID string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "encode session state", slog.String("sessionID", sessionID))
	}

	stmt := `INSERT INTO conversation_sessions (session_id, state, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`
	if _, err = s.dbs.ReadWriteDB.ExecContext(ctx, stmt, sessionID, string(raw)); err != nil {
		return errors.Wrap(err, "write session state", slog.String("sessionID", sessionID))
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	stmt := `DELETE FROM conversation_sessions WHERE session_id = ?`
	if _, err := s.dbs.ReadWriteDB.ExecContext(ctx, stmt, sessionID); err != nil {
		return errors.Wrap(err, "delete session state", slog.String("sessionID", sessionID))
	}
	return nil
}
