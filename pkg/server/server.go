package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/de-tools/report-assistant/pkg/services/filter"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/de-tools/report-assistant/pkg/services/session"

	handlers "github.com/de-tools/report-assistant/pkg/handlers/session"

	assistantmiddleware "github.com/de-tools/report-assistant/pkg/server/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	sessions        session.Manager
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Sessions   session.Manager
	Compiler   *filter.Compiler
	Classifier *report.Classifier
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// ConfigureRouter mounts the session API under /api/v1.
func ConfigureRouter(logger zerolog.Logger, deps Dependencies) *chi.Mux {
	h := handlers.NewHandler(deps.Sessions, deps.Compiler, deps.Classifier)

	router := chi.NewRouter()

	router.Use(assistantmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{session}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/restart", h.RestartSession)
			r.Post("/retry", h.Retry)
			r.Post("/parameters", h.SubmitParameters)
			r.Put("/filters", h.UpdateFilters)
			r.Delete("/filters", h.ClearFilters)
			r.Post("/messages", h.SendMessage)
			r.Delete("/messages", h.ClearMessages)
		})
		r.Post("/fragments", h.CompileFragments)
		r.Post("/classify", h.Classify)
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(logger, config.Dependencies)

	timeout := config.ShutdownTimeout
	if timeout == 0 {
		timeout = DefaultShutdownTimeout
	}

	return &WebAPI{
		router:          router,
		logger:          &logger,
		sessions:        config.Dependencies.Sessions,
		shutdownTimeout: timeout,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
	}
}

// Start serves until ctx is cancelled, then drains outstanding requests and
// detached session tasks.
func (w *WebAPI) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		if err := w.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}
		if w.sessions != nil {
			w.sessions.Wait()
		}
		return err
	})

	return g.Wait()
}
