package session

import (
	"context"

	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/models/store"
)

type ChatAPI interface {
	Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
}

type ReportAPI interface {
	GenerateReport(ctx context.Context, req api.ReportRequest) (api.ReportResponse, error)
}

type ForecastAPI interface {
	InitForecast(ctx context.Context, req api.ForecastInitRequest) error
}

// Backend is what pkg/store/client.Backend provides.
type Backend interface {
	ChatAPI
	ReportAPI
	ForecastAPI
}

// ClientStorage receives the keys downstream lookups read back.
type ClientStorage interface {
	SaveSession(ctx context.Context, sessionID, userName string) error
}

type ReportHistory interface {
	Add(ctx context.Context, record store.ReportRecord) error
}
