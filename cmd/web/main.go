package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/de-tools/report-assistant/pkg/logging"
	"github.com/de-tools/report-assistant/pkg/server"
	"github.com/de-tools/report-assistant/pkg/services/config"
	"github.com/de-tools/report-assistant/pkg/services/filter"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/de-tools/report-assistant/pkg/services/session"
	"github.com/de-tools/report-assistant/pkg/store/client"
	"github.com/de-tools/report-assistant/pkg/store/duckdb"
	"github.com/de-tools/report-assistant/pkg/store/duckdb/clientstate"
	"github.com/de-tools/report-assistant/pkg/store/duckdb/history"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	profilesPath string
	profileName  string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the reporting assistant",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.Flags().StringVar(&profilesPath, "profiles", "",
		"Path to the profiles file (default is $HOME/.reportassistantcfg)")
	rootCmd.Flags().StringVarP(&profileName, "profile", "p", "", "Backend profile to use")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if profileName != "" {
		path := profilesPath
		if path == "" {
			if path, err = config.DefaultProfilesPath(); err != nil {
				return nil, err
			}
		}
		registry, err := config.NewRegistry(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create profile registry: %w", err)
		}
		profile, err := registry.GetProfile(cmd.Context(), profileName)
		if err != nil {
			return nil, err
		}
		cfg.ApplyProfile(profile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(logger.WithContext(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := duckdb.NewDB(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer db.Close()

	storage, err := clientstate.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create client storage: %w", err)
	}
	reports, err := history.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create report history: %w", err)
	}
	backend, err := client.NewBackend(cfg.Backend)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	compiler := filter.NewCompiler(cfg.Filters)
	urls := report.NewURLBuilder(cfg.Reports.BaseURL, cfg.Reports.ChartFileName)
	classifier := report.NewClassifier(urls)

	manager := session.NewManager(session.Dependencies{
		Chat:            backend,
		Reports:         backend,
		Forecast:        backend,
		Storage:         storage,
		History:         reports,
		Compiler:        compiler,
		Classifier:      classifier,
		URLs:            urls,
		ForecastTimeout: cfg.Session.ForecastTimeout,
	})

	logger.Info().
		Str("backend", cfg.Backend.BaseURL).
		Str("reports", cfg.Reports.BaseURL).
		Str("db", cfg.Storage.DbPath).
		Msg("configuration loaded")

	api := server.NewWebAPI(logger, server.Config{
		Addr:            cfg.Server.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Sessions:   manager,
			Compiler:   compiler,
			Classifier: classifier,
		},
	})
	return api.Start(ctx)
}
