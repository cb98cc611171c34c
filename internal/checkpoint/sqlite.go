package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

// SQLiteStore is the default durable backend: a single-file embedded
// database local to the device.
type SQLiteStore struct {
	db    *sql.DB
	codec Codec
}

// NewSQLiteStore opens (creating if needed) the checkpoint database at path.
func NewSQLiteStore(path string, codec Codec) (*SQLiteStore, error) {
	if codec == nil {
		codec = JSON()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	// Single writer: sqlite serializes writes anyway and this avoids
	// SQLITE_BUSY under concurrent save triggers.
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS checkpoints (
		test_id  TEXT PRIMARY KEY,
		payload  BLOB NOT NULL,
		saved_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}

	return &SQLiteStore{db: db, codec: codec}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, testID string, snap *model.Snapshot) error {
	payload, err := s.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (test_id, payload, saved_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (test_id) DO UPDATE
		 SET payload = excluded.payload, saved_at = excluded.saved_at`,
		testID, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, testID string) (*model.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM checkpoints WHERE test_id = $1`, testID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return s.codec.Decode(payload)
}

func (s *SQLiteStore) Clear(ctx context.Context, testID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE test_id = $1`, testID,
	); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
