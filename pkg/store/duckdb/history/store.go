package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/report-assistant/pkg/models/store"
)

// Store keeps a log of file-backed reports produced for each user.
type Store interface {
	Add(ctx context.Context, record store.ReportRecord) error
	ListByUser(ctx context.Context, userName string, limit int) ([]store.ReportRecord, error)
}

type historyStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &historyStore{db: db}, nil
}

func (h *historyStore) Add(ctx context.Context, record store.ReportRecord) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO report_history (session_id, user_name, filename, report_url, message)
		VALUES (?, ?, ?, ?, ?)`,
		record.SessionID, record.UserName, record.Filename, record.ReportURL, record.Message,
	)
	if err != nil {
		return fmt.Errorf("insert report record: %w", err)
	}
	return nil
}

func (h *historyStore) ListByUser(ctx context.Context, userName string, limit int) ([]store.ReportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT session_id, user_name, filename, report_url, message, created_at
		FROM report_history
		WHERE user_name = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		userName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query report history: %w", err)
	}
	defer rows.Close()

	records := make([]store.ReportRecord, 0)
	for rows.Next() {
		var (
			r       store.ReportRecord
			message sql.NullString
		)
		if err := rows.Scan(&r.SessionID, &r.UserName, &r.Filename, &r.ReportURL, &message, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Message = message.String
		records = append(records, r)
	}
	return records, rows.Err()
}
