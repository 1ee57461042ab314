package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ClientStorageSchema = `
	CREATE TABLE IF NOT EXISTS client_storage (
		key VARCHAR PRIMARY KEY,
		value VARCHAR NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`
const ReportHistorySchema = `
	CREATE TABLE IF NOT EXISTS report_history (
		session_id VARCHAR NOT NULL,
		user_name VARCHAR NOT NULL,
		filename VARCHAR NOT NULL,
		report_url VARCHAR NOT NULL,
		message VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

var bootQueries = []string{
	ClientStorageSchema,
	ReportHistorySchema,
}

type Settings struct {
	DbPath string `mapstructure:"db_path"`
}

func NewDB(settings Settings) (*sql.DB, error) {
	path := settings.DbPath
	if path == "" {
		path = ":memory:"
	}
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=2", path), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
