package clientstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/de-tools/report-assistant/pkg/models/store"
	"github.com/de-tools/report-assistant/pkg/store/duckdb"
)

// Store persists the small set of client-side keys (session id, user name)
// that outlive a single request.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SaveSession(ctx context.Context, sessionID, userName string) error
	Clear(ctx context.Context) error
}

type defaultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &defaultStore{db: db}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *defaultStore) conn(ctx context.Context) execer {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *defaultStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM client_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *defaultStore) Set(ctx context.Context, key, value string) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO client_storage (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SaveSession writes both session keys in one transaction.
func (s *defaultStore) SaveSession(ctx context.Context, sessionID, userName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txCtx := duckdb.WithTransaction(ctx, tx)

	if err := s.Set(txCtx, store.KeySessionID, sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := s.Set(txCtx, store.KeyUser, userName); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session keys: %w", err)
	}
	return nil
}

func (s *defaultStore) Clear(ctx context.Context) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM client_storage`)
	if err != nil {
		return fmt.Errorf("clear client storage: %w", err)
	}
	return nil
}
