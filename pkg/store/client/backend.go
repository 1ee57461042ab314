package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/rs/zerolog"
)

const (
	DefaultChatPath     = "/chat"
	DefaultReportPath   = "/generate_report"
	DefaultForecastPath = "/forecast/init"
	DefaultTimeout      = 120 * time.Second
)

// Config holds the connection settings of the assistant backend.
type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	ChatPath     string        `mapstructure:"chat_path"`
	ReportPath   string        `mapstructure:"report_path"`
	ForecastPath string        `mapstructure:"forecast_path"`
	Token        string        `mapstructure:"token"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Backend talks JSON over HTTP to the chat, report-generation and forecast
// endpoints.
type Backend struct {
	cfg        Config
	httpClient *http.Client
}

func NewBackend(cfg Config) (*Backend, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base url is empty")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ChatPath == "" {
		cfg.ChatPath = DefaultChatPath
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = DefaultReportPath
	}
	if cfg.ForecastPath == "" {
		cfg.ForecastPath = DefaultForecastPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Backend{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

func (b *Backend) Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error) {
	var resp api.ChatResponse
	err := b.post(ctx, b.cfg.ChatPath, req, &resp)
	return resp, err
}

func (b *Backend) GenerateReport(ctx context.Context, req api.ReportRequest) (api.ReportResponse, error) {
	var resp api.ReportResponse
	err := b.post(ctx, b.cfg.ReportPath, req, &resp)
	return resp, err
}

// InitForecast only cares whether the call succeeded; the body is discarded.
func (b *Backend) InitForecast(ctx context.Context, req api.ForecastInitRequest) error {
	return b.post(ctx, b.cfg.ForecastPath, req, nil)
}

func (b *Backend) post(ctx context.Context, path string, body any, out any) error {
	logger := zerolog.Ctx(ctx)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	endpoint := b.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.Token)
	}

	logger.Debug().Str("endpoint", endpoint).Msg("calling backend")
	start := time.Now()

	resp, err := b.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("endpoint", endpoint).Msg("backend request failed")
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(data)), 200),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
