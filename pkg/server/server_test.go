package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/services/filter"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/de-tools/report-assistant/pkg/services/session"
	"github.com/rs/zerolog"
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

func testDependencies(b *mockBackend) Dependencies {
	compiler := filter.NewCompiler(filter.DefaultTables())
	urls := report.NewURLBuilder("https://reports.example.com", "")
	classifier := report.NewClassifier(urls)
	return Dependencies{
		Sessions: session.NewManager(session.Dependencies{
			Chat:       b,
			Reports:    b,
			Forecast:   b,
			Compiler:   compiler,
			Classifier: classifier,
			URLs:       urls,
		}),
		Compiler:   compiler,
		Classifier: classifier,
	}
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.Nop()

	b := new(mockBackend)
	b.On("Chat", mock.Anything, api.ChatRequest{UserMessage: session.GreetingMessage}).
		Return(api.ChatResponse{SessionID: "api-7", Reply: "Hi"}, nil)
	b.On("Chat", mock.Anything, mock.MatchedBy(func(req api.ChatRequest) bool {
		return req.UserMessage == "carol"
	})).Return(api.ChatResponse{Reply: "Welcome"}, nil)

	router := ConfigureRouter(logger, testDependencies(b))
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	var sessionID string

	tests := []struct {
		name           string
		method         string
		path           func() string
		body           string
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:           "CreateSession",
			method:         http.MethodPost,
			path:           func() string { return "/api/v1/sessions" },
			body:           `{"user_name":"carol","user_id":"u-7"}`,
			expectedStatus: http.StatusCreated,
			check: func(t *testing.T, body []byte) {
				s, err := unmarshalResponse[api.Session](body)
				require.NoError(t, err)
				assert.Equal(t, "api-7", s.APISessionID)
				assert.Len(t, s.Messages, 2)
				sessionID = s.SessionID
			},
		},
		{
			name:           "GetSession",
			method:         http.MethodGet,
			path:           func() string { return "/api/v1/sessions/" + sessionID },
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				s, err := unmarshalResponse[api.Session](body)
				require.NoError(t, err)
				assert.Equal(t, "awaiting_parameters", s.State)
			},
		},
		{
			name:           "UpdateFilters_BeforeSubmit",
			method:         http.MethodPut,
			path:           func() string { return "/api/v1/sessions/" + sessionID + "/filters" },
			body:           `{"filters":{"dimensions":{"dept":{"type":"contains","containsText":"ENG"}}}}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				s, err := unmarshalResponse[api.Session](body)
				require.NoError(t, err)
				assert.Equal(t, " and dept like '%ENG%'", s.Fragments.DimensionFilterRev)
			},
		},
		{
			name:           "CompileFragments",
			method:         http.MethodPost,
			path:           func() string { return "/api/v1/fragments" },
			body:           `{"dimensions":{"account":{"type":"range","rangeFrom":"4000","rangeTo":"4999"}}}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				f, err := unmarshalResponse[api.Fragments](body)
				require.NoError(t, err)
				assert.Equal(t, " and account between '4000' and '4999'", f.DimensionFilterExp)
			},
		},
		{
			name:           "UnknownSession",
			method:         http.MethodGet,
			path:           func() string { return "/api/v1/sessions/unknown" },
			expectedStatus: http.StatusNotFound,
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, "session unknown: session not found\n", string(body))
			},
		},
		{
			name:           "DeleteSession",
			method:         http.MethodDelete,
			path:           func() string { return "/api/v1/sessions/" + sessionID },
			expectedStatus: http.StatusNoContent,
			check:          func(t *testing.T, body []byte) { assert.Empty(t, body) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, testServer.URL+tc.path(), strings.NewReader(tc.body))
			require.NoError(t, err, "Failed to build request")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			tc.check(t, body)
		})
	}
}

func TestWebAPI_StartStopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	w := NewWebAPI(zerolog.New(zerolog.NewTestWriter(t)), Config{
		Addr:            addr,
		ShutdownTimeout: time.Second,
		Dependencies:    testDependencies(new(mockBackend)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Post("http://"+addr+"/api/v1/fragments", "application/json", strings.NewReader(`{}`))
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func unmarshalResponse[T any](data []byte) (T, error) {
	var response T
	err := json.Unmarshal(data, &response)
	return response, err
}
