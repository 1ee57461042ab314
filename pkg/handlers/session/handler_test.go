package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/services/filter"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/de-tools/report-assistant/pkg/services/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(api.ChatResponse), args.Error(1)
}

func (m *mockBackend) GenerateReport(ctx context.Context, req api.ReportRequest) (api.ReportResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(api.ReportResponse), args.Error(1)
}

func (m *mockBackend) InitForecast(ctx context.Context, req api.ForecastInitRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func newTestServer(t *testing.T, b *mockBackend) (*httptest.Server, session.Manager) {
	t.Helper()
	compiler := filter.NewCompiler(filter.DefaultTables())
	urls := report.NewURLBuilder("https://reports.example.com", "")
	classifier := report.NewClassifier(urls)

	manager := session.NewManager(session.Dependencies{
		Chat:       b,
		Reports:    b,
		Forecast:   b,
		Compiler:   compiler,
		Classifier: classifier,
		URLs:       urls,
	})
	h := NewHandler(manager, compiler, classifier)

	r := chi.NewRouter()
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{session}", h.GetSession)
	r.Delete("/sessions/{session}", h.DeleteSession)
	r.Post("/sessions/{session}/restart", h.RestartSession)
	r.Post("/sessions/{session}/retry", h.Retry)
	r.Post("/sessions/{session}/parameters", h.SubmitParameters)
	r.Put("/sessions/{session}/filters", h.UpdateFilters)
	r.Delete("/sessions/{session}/filters", h.ClearFilters)
	r.Post("/sessions/{session}/messages", h.SendMessage)
	r.Delete("/sessions/{session}/messages", h.ClearMessages)
	r.Post("/fragments", h.CompileFragments)
	r.Post("/classify", h.Classify)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		manager.Wait()
	})
	return srv, manager
}

func expectGreeting(b *mockBackend) {
	b.On("Chat", mock.Anything, api.ChatRequest{UserMessage: session.GreetingMessage}).
		Return(api.ChatResponse{SessionID: "api-1", Reply: report.UserIDPrompt}, nil)
	b.On("Chat", mock.Anything, api.ChatRequest{SessionID: "api-1", UserMessage: "alice"}).
		Return(api.ChatResponse{Reply: "Welcome, alice!"}, nil)
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeSession(t *testing.T, data []byte) api.Session {
	t.Helper()
	var s api.Session
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func createSession(t *testing.T, srv *httptest.Server) api.Session {
	t.Helper()
	resp, body := do(t, http.MethodPost, srv.URL+"/sessions", `{"user_name":"alice","user_id":"u-1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeSession(t, body)
}

func TestHandler_SessionFlow(t *testing.T) {
	b := new(mockBackend)
	expectGreeting(b)
	srv, manager := newTestServer(t, b)

	created := createSession(t, srv)
	assert.Equal(t, "awaiting_parameters", created.State)
	assert.False(t, created.ChatEnabled)
	require.Len(t, created.Messages, 1)
	assert.Equal(t, "Welcome, alice!", created.Messages[0].Text)

	base := srv.URL + "/sessions/" + created.SessionID

	t.Run("chat is disabled before parameters", func(t *testing.T) {
		resp, _ := do(t, http.MethodPost, base+"/messages", `{"text":"hi"}`)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("retry outside error state", func(t *testing.T) {
		resp, _ := do(t, http.MethodPost, base+"/retry", ``)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("submit parameters", func(t *testing.T) {
		b.On("GenerateReport", mock.Anything, mock.MatchedBy(func(req api.ReportRequest) bool {
			return req.ReportName == "Summary" && req.ChatMessage == nil
		})).Return(api.ReportResponse{Reply: "CSV: /out/summary.csv"}, nil).Once()
		b.On("InitForecast", mock.Anything, mock.Anything).Return(nil).Once()

		resp, body := do(t, http.MethodPost, base+"/parameters",
			`{"budget_years":[2025],"fund_codes":["100"],"dept_ids":["D1"],"report_name":"Summary"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		s := decodeSession(t, body)
		assert.Equal(t, "parameters_submitted", s.State)
		assert.True(t, s.ChatEnabled)
		require.NotNil(t, s.LastResult)
		assert.True(t, s.LastResult.HasReport)
		assert.Equal(t, "https://reports.example.com/charts/outputs/alice/api-1/report_summary.json", s.ChartURL)

		manager.Wait()
		b.AssertCalled(t, "InitForecast", mock.Anything, api.ForecastInitRequest{UserID: "u-1", SessionID: "api-1", BudgetYear: 2025})
	})

	t.Run("update filters regenerates", func(t *testing.T) {
		b.On("GenerateReport", mock.Anything, mock.MatchedBy(func(req api.ReportRequest) bool {
			return req.MeasuresFilterRev == "where budget_amount = 5" &&
				req.ChatMessage != nil && *req.ChatMessage == "only big ones"
		})).Return(api.ReportResponse{Reply: "filtered"}, nil).Once()

		resp, body := do(t, http.MethodPut, base+"/filters",
			`{"filters":{"measures":{"budget":{"operator":"=","value":5}}},"chat_message":"only big ones"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		s := decodeSession(t, body)
		assert.Equal(t, "where budget_amount = 5", s.Fragments.MeasuresFilterRev)
		assert.Equal(t, "where budget_amount = 5", s.Fragments.MeasuresFilterExp)
	})

	t.Run("send message", func(t *testing.T) {
		b.On("Chat", mock.Anything, mock.MatchedBy(func(req api.ChatRequest) bool {
			return req.UserMessage == "totals?"
		})).Return(api.ChatResponse{Reply: "Totals are ready."}, nil).Once()

		resp, body := do(t, http.MethodPost, base+"/messages", `{"text":"totals?"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		s := decodeSession(t, body)
		assert.Equal(t, "Totals are ready.", s.Messages[len(s.Messages)-1].Text)
	})

	t.Run("empty message", func(t *testing.T) {
		resp, _ := do(t, http.MethodPost, base+"/messages", `{"text":"  "}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("clear messages", func(t *testing.T) {
		resp, body := do(t, http.MethodDelete, base+"/messages", ``)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		s := decodeSession(t, body)
		assert.Empty(t, s.Messages)
		assert.Equal(t, "awaiting_parameters", s.State)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := do(t, http.MethodDelete, base, ``)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = do(t, http.MethodGet, base, ``)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	b.AssertExpectations(t)
}

func TestHandler_RestartSession(t *testing.T) {
	b := new(mockBackend)
	expectGreeting(b)
	srv, _ := newTestServer(t, b)
	created := createSession(t, srv)

	resp, body := do(t, http.MethodPost, srv.URL+"/sessions/"+created.SessionID+"/restart", ``)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	restarted := decodeSession(t, body)
	assert.NotEqual(t, created.SessionID, restarted.SessionID)

	resp, _ = do(t, http.MethodGet, srv.URL+"/sessions/"+created.SessionID, ``)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, new(mockBackend))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"create invalid json", http.MethodPost, "/sessions", `{`, http.StatusBadRequest},
		{"create without user", http.MethodPost, "/sessions", `{"user_id":"u-1"}`, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/sessions/nope", ``, http.StatusNotFound},
		{"parameters on unknown session", http.MethodPost, "/sessions/nope/parameters", `{}`, http.StatusNotFound},
		{"fragments invalid json", http.MethodPost, "/fragments", `[`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := do(t, tc.method, srv.URL+tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestHandler_CompileFragments(t *testing.T) {
	srv, _ := newTestServer(t, new(mockBackend))

	resp, body := do(t, http.MethodPost, srv.URL+"/fragments",
		`{"dimensions":{"fund":{"type":"multiple","values":["1","2"]}},"measures":{"encumbrance":{"operator":">","range":[1,10]}}}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fragments api.Fragments
	require.NoError(t, json.Unmarshal(body, &fragments))
	assert.Equal(t, api.Fragments{
		DimensionFilterRev: " and fund in ('1','2')",
		DimensionFilterExp: " and fund in ('1','2')",
		MeasuresFilterRev:  "",
		MeasuresFilterExp:  "where encumbrance_amount > 1 and encumbrance_amount < 10",
	}, fragments)
}

func TestHandler_CompileFragments_PartialMeasures(t *testing.T) {
	srv, _ := newTestServer(t, new(mockBackend))

	// Given: one complete measure and two still being typed
	body := `{"measures":{
		"budget":{"operator":"=","value":""},
		"encumbrance":{"operator":">=","range":["100",""]},
		"collected":{"operator":"<=","value":"50"}
	}}`

	// When
	resp, data := do(t, http.MethodPost, srv.URL+"/fragments", body)

	// Then
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fragments api.Fragments
	require.NoError(t, json.Unmarshal(data, &fragments))
	assert.Equal(t, "where collected_amount <= 50", fragments.MeasuresFilterRev)
	assert.Empty(t, fragments.MeasuresFilterExp)
}

func TestHandler_Classify(t *testing.T) {
	srv, _ := newTestServer(t, new(mockBackend))

	tests := []struct {
		name     string
		body     string
		kind     string
		hasFile  bool
		suppress bool
	}{
		{
			name:    "legacy string",
			body:    `{"user_name":"bob","session_id":"s1","response":"📂 Files saved:\nJSON: /x/r.json"}`,
			kind:    "text",
			hasFile: true,
		},
		{
			name: "tabular",
			body: `{"user_name":"bob","session_id":"s1","response":{"data":[{"a":1}]}}`,
			kind: "tabular",
		},
		{
			name:     "user id prompt",
			body:     `{"user_name":"bob","session_id":"s1","response":{"reply":"Please enter your user ID (default: Guest):"}}`,
			kind:     "message",
			suppress: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/classify", tc.body)

			require.Equal(t, http.StatusOK, resp.StatusCode)
			var out api.ClassifyResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tc.kind, out.Kind)
			assert.Equal(t, tc.hasFile, out.Detection.HasReport)
			assert.Equal(t, tc.suppress, out.Suppress)
		})
	}
}
