package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/report-assistant/pkg/logging"
	"github.com/de-tools/report-assistant/pkg/services/filter"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/de-tools/report-assistant/pkg/services/session"
	"github.com/de-tools/report-assistant/pkg/store/client"
	"github.com/de-tools/report-assistant/pkg/store/duckdb"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// ASSISTANT_BACKEND_BASE_URL.
const EnvPrefix = "ASSISTANT"

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type ReportsConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	ChartFileName string `mapstructure:"chart_file_name"`
}

type SessionConfig struct {
	ForecastTimeout time.Duration `mapstructure:"forecast_timeout"`
}

type Config struct {
	Server  ServerConfig    `mapstructure:"server"`
	Backend client.Config   `mapstructure:"backend"`
	Reports ReportsConfig   `mapstructure:"reports"`
	Session SessionConfig   `mapstructure:"session"`
	Storage duckdb.Settings `mapstructure:"storage"`
	Filters filter.Tables   `mapstructure:"filters"`
	Log     logging.Options `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.chat_path", client.DefaultChatPath)
	v.SetDefault("backend.report_path", client.DefaultReportPath)
	v.SetDefault("backend.forecast_path", client.DefaultForecastPath)
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", client.DefaultTimeout)

	v.SetDefault("reports.base_url", "")
	v.SetDefault("reports.chart_file_name", report.DefaultChartFileName)

	v.SetDefault("session.forecast_timeout", session.DefaultForecastTimeout)

	v.SetDefault("storage.db_path", "report-assistant.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// LoadConfig reads the YAML file at path, if any, on top of the defaults.
// Every key can be overridden from the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Filters.DimensionOrder) == 0 {
		cfg.Filters.DimensionOrder = filter.DefaultDimensionOrder
	}
	if len(cfg.Filters.Measures.Sides) == 0 {
		cfg.Filters.Measures = filter.DefaultMeasureTable()
	}
	return &cfg, nil
}

// ApplyProfile points the backend and report storage at a named deployment.
func (c *Config) ApplyProfile(p *Profile) {
	if p == nil {
		return
	}
	c.Backend.BaseURL = p.APIBase
	if p.ReportBase != "" {
		c.Reports.BaseURL = p.ReportBase
	}
	if p.Token != "" {
		c.Backend.Token = p.Token
	}
}

// Validate rejects configurations without a backend. Report links fall back
// to the backend host when no report base is set.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Reports.BaseURL == "" {
		c.Reports.BaseURL = c.Backend.BaseURL
	}
	return nil
}
