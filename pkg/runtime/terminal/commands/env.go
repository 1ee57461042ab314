package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/report-assistant/pkg/services/config"
	"github.com/de-tools/report-assistant/pkg/services/filter"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/de-tools/report-assistant/pkg/services/session"
	"github.com/de-tools/report-assistant/pkg/store/client"
	"github.com/de-tools/report-assistant/pkg/store/duckdb"
	"github.com/rs/zerolog"
)

// Environment carries what the root command resolved from its flags.
// Backend and DB are opened on first use; preset values win.
type Environment struct {
	Config *config.Config
	Logger zerolog.Logger
	Input  io.Reader

	Backend session.Backend
	DB      *sql.DB
}

func (e *Environment) context(ctx context.Context) context.Context {
	return e.Logger.WithContext(ctx)
}

func (e *Environment) input() io.Reader {
	if e.Input == nil {
		return os.Stdin
	}
	return e.Input
}

func (e *Environment) compiler() *filter.Compiler {
	return filter.NewCompiler(e.Config.Filters)
}

func (e *Environment) urls() report.URLBuilder {
	base := e.Config.Reports.BaseURL
	if base == "" {
		base = e.Config.Backend.BaseURL
	}
	return report.NewURLBuilder(base, e.Config.Reports.ChartFileName)
}

func (e *Environment) backend() (session.Backend, error) {
	if e.Backend != nil {
		return e.Backend, nil
	}
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	b, err := client.NewBackend(e.Config.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	e.Backend = b
	return b, nil
}

func (e *Environment) db() (*sql.DB, error) {
	if e.DB != nil {
		return e.DB, nil
	}
	db, err := duckdb.NewDB(e.Config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	e.DB = db
	return db, nil
}

// Close releases the database opened by db.
func (e *Environment) Close() error {
	if e.DB == nil {
		return nil
	}
	return e.DB.Close()
}
