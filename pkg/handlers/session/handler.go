package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/de-tools/report-assistant/pkg/adapters"
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/models/domain"
	"github.com/de-tools/report-assistant/pkg/services/filter"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/de-tools/report-assistant/pkg/services/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	sessions   session.Manager
	compiler   *filter.Compiler
	classifier *report.Classifier
}

func NewHandler(sessions session.Manager, compiler *filter.Compiler, classifier *report.Classifier) *Handler {
	return &Handler{
		sessions:   sessions,
		compiler:   compiler,
		classifier: classifier,
	}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserName) == "" {
		http.Error(w, "user_name is required", http.StatusBadRequest)
		return
	}

	_, view, err := h.sessions.Create(r.Context(), domain.User{Name: req.UserName, ID: req.UserID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	encode(w, r, http.StatusCreated, toAPISession(view))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	encode(w, r, http.StatusOK, toAPISession(o.Snapshot()))
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "session")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RestartSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Restart(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	encode(w, r, http.StatusOK, toAPISession(view))
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	view, err := o.Retry(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	encode(w, r, http.StatusOK, toAPISession(view))
}

func (h *Handler) SubmitParameters(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req api.ParametersRequest
	if !decode(w, r, &req) {
		return
	}

	view, err := o.SubmitParameters(r.Context(), adapters.MapAPIParametersToDomain(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	encode(w, r, http.StatusOK, toAPISession(view))
}

func (h *Handler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req api.UpdateFiltersRequest
	if !decode(w, r, &req) {
		return
	}

	view := o.UpdateFilters(r.Context(), adapters.MapAPIFilterSetToDomain(req.Filters), req.ChatMessage)
	encode(w, r, http.StatusOK, toAPISession(view))
}

func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	encode(w, r, http.StatusOK, toAPISession(o.ClearFilters(r.Context())))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req api.ChatMessageRequest
	if !decode(w, r, &req) {
		return
	}

	view, err := o.SendChat(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	encode(w, r, http.StatusOK, toAPISession(view))
}

func (h *Handler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	encode(w, r, http.StatusOK, toAPISession(o.ClearChat()))
}

// CompileFragments compiles a filter set without touching any session.
func (h *Handler) CompileFragments(w http.ResponseWriter, r *http.Request) {
	var req api.FilterSet
	if !decode(w, r, &req) {
		return
	}
	fragments := h.compiler.Compile(r.Context(), adapters.MapAPIFilterSetToDomain(req))
	encode(w, r, http.StatusOK, adapters.MapDomainFragmentsToAPI(fragments))
}

// Classify runs report detection over a raw backend response.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req api.ClassifyRequest
	if !decode(w, r, &req) {
		return
	}

	resp := adapters.MapAPIResponseToDomain(req.Response)
	detection := h.classifier.Classify(resp, report.Location{UserName: req.UserName, SessionID: req.SessionID})
	encode(w, r, http.StatusOK, api.ClassifyResponse{
		Kind:      string(resp.Kind),
		Detection: adapters.MapDomainDetectionToAPI(detection),
		Suppress:  report.IsSuppressed(detection.Message),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Orchestrator, bool) {
	o, err := h.sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return o, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func encode(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrInvalidState), errors.Is(err, session.ErrChatDisabled):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrEmptyMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
