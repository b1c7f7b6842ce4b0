package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/commentary"
	"github.com/aristath/finlens/internal/modules/optimization"
)

type mockCommentary struct {
	mock.Mock
}

func (m *mockCommentary) ScoreCommentary(ctx context.Context, symbol string, period domain.PeriodKind) (*commentary.Commentary, error) {
	args := m.Called(ctx, symbol, period)
	if out := args.Get(0); out != nil {
		return out.(*commentary.Commentary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommentary) RunCommentary(ctx context.Context, run *optimization.Run) (*commentary.Commentary, error) {
	args := m.Called(ctx, run)
	if out := args.Get(0); out != nil {
		return out.(*commentary.Commentary), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSimulator struct {
	mock.Mock
}

func (m *mockSimulator) Simulate(ctx context.Context, req optimization.SimulateRequest) (*optimization.Run, error) {
	args := m.Called(ctx, req)
	if run := args.Get(0); run != nil {
		return run.(*optimization.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestRouter(svc CommentaryService, sim Simulator) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, sim, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func TestHandleScoreCommentary(t *testing.T) {
	svc := &mockCommentary{}
	svc.On("ScoreCommentary", mock.Anything, "VNM", domain.PeriodYear).
		Return(&commentary.Commentary{Subject: "VNM", Text: "Solid."}, nil)

	req := httptest.NewRequest(http.MethodPost, "/commentary/scores/vnm", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc, &mockSimulator{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data commentary.Commentary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Solid.", body.Data.Text)
}

func TestHandleScoreCommentary_Errors(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		err    error
		status int
	}{
		{"disabled", "/commentary/scores/VNM", commentary.ErrDisabled, http.StatusServiceUnavailable},
		{"no data", "/commentary/scores/VNM", domain.InsufficientData("scoring", "no statements"), http.StatusUnprocessableEntity},
		{"bad period", "/commentary/scores/VNM?period=week", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCommentary{}
			if tt.err != nil {
				svc.On("ScoreCommentary", mock.Anything, "VNM", domain.PeriodYear).Return(nil, tt.err)
			}

			rec := httptest.NewRecorder()
			newTestRouter(svc, &mockSimulator{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandleRunCommentary(t *testing.T) {
	run := &optimization.Run{ID: "run-1", Result: &optimization.SimulationResult{}}

	sim := &mockSimulator{}
	sim.On("Simulate", mock.Anything, optimization.SimulateRequest{
		Symbols: []string{"FPT", "VNM"},
		Start:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NAV:     1e8,
	}).Return(run, nil)

	svc := &mockCommentary{}
	svc.On("RunCommentary", mock.Anything, run).Return(&commentary.Commentary{Subject: "run-1", Text: "Balanced."}, nil)

	body := []byte(`{"symbols":["fpt"," VNM","FPT"],"start":"2023-01-01","end":"2024-01-01","nav":100000000}`)
	rec := httptest.NewRecorder()
	newTestRouter(svc, sim).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/commentary/optimization", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Balanced.")
	sim.AssertExpectations(t)
}

func TestHandleRunCommentary_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"no symbols", `{"symbols":[]}`},
		{"bad start", `{"symbols":["FPT"],"start":"01/01/2023"}`},
		{"start after end", `{"symbols":["FPT"],"start":"2024-02-01","end":"2024-01-01"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/commentary/optimization", bytes.NewReader([]byte(tt.body)))
			newTestRouter(&mockCommentary{}, &mockSimulator{}).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
