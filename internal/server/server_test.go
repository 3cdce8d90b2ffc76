package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
	"github.com/banshee-data/sensitivity/internal/store"
	"github.com/banshee-data/sensitivity/internal/testutil"
	"github.com/banshee-data/sensitivity/internal/timeutil"
)

var testEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	st      *store.Store
	handler http.Handler
	pairID  string
	soloID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := timeutil.NewMockClock(testEpoch)
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"), store.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	pair, err := sensitivity.Evaluate(ctx, testutil.MustSpec(t,
		sensitivity.Param{Name: "a", Values: []any{1, 2}},
		sensitivity.Param{Name: "b", Values: []any{10, 20}},
	), testutil.OffsetSum(0), sensitivity.EvalOptions{})
	require.NoError(t, err)
	pairRun := &store.Run{Title: "Pair", Model: "sum", Settings: json.RawMessage(`{"num_fmt":"%.1f","color_map":"Blues"}`)}
	require.NoError(t, st.SaveRun(ctx, pairRun, pair))

	clock.Advance(time.Minute)
	solo, err := sensitivity.Evaluate(ctx, testutil.MustSpec(t,
		sensitivity.Param{Name: "a", Values: []any{1, 2, 3}},
	), testutil.OffsetSum(0), sensitivity.EvalOptions{})
	require.NoError(t, err)
	soloRun := &store.Run{Title: "Solo", Model: "sum"}
	require.NoError(t, st.SaveRun(ctx, soloRun, solo))

	srv := New(Config{Address: "127.0.0.1:0", Store: st, Clock: clock})
	return &fixture{st: st, handler: srv.Handler(), pairID: pairRun.ID, soloID: soloRun.ID}
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2024-05-01T12:01:00Z", body["timestamp"])
}

func TestListRuns(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []store.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&runs))
	require.Len(t, runs, 2)
	assert.Equal(t, f.soloID, runs[0].ID)
	assert.Equal(t, f.pairID, runs[1].ID)

	rec = f.do(t, http.MethodGet, "/api/runs?limit=1")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&runs))
	assert.Len(t, runs, 1)

	rec = f.do(t, http.MethodGet, "/api/runs?limit=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/runs/"+f.pairID)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Run     store.Run `json:"run"`
		Columns []string  `json:"columns"`
		Rows    [][]any   `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "Pair", detail.Run.Title)
	assert.Equal(t, []string{"a", "b", "Result"}, detail.Columns)
	assert.Equal(t, [][]any{{1.0, 10.0, 11.0}, {1.0, 20.0, 21.0}, {2.0, 10.0, 12.0}, {2.0, 20.0, 22.0}}, detail.Rows)

	rec = f.do(t, http.MethodGet, "/api/runs/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRun(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/runs/"+f.soloID)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := f.st.GetRun(context.Background(), f.soloID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec = f.do(t, http.MethodDelete, "/api/runs/"+f.soloID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndex(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "/runs/"+f.pairID)
	assert.Contains(t, body, "Solo")

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/nope").Code)
}

func TestShowTables(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/runs/"+f.pairID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "22.0")

	rec = f.do(t, http.MethodGet, "/runs/"+f.pairID+"?num_fmt=%25.3f&agg=max&reverse=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "22.000")

	rec = f.do(t, http.MethodGet, "/runs/"+f.soloID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Solo")
}

func TestShowTables_BadOverrides(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"color_map=Nope", "agg=mode", "reverse=maybe", "grid_size=x", "num_fmt=%25d"} {
		rec := f.do(t, http.MethodGet, "/runs/"+f.pairID+"?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/runs/missing").Code)
}

func TestShowHeatmap(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/runs/"+f.pairID+"/heatmap")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echarts")
}

func TestShowFigure(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/runs/"+f.pairID+"/figure.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = f.do(t, http.MethodGet, "/runs/"+f.pairID+"/figure.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/runs/"+f.pairID+"/figure.gif").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/runs/"+f.soloID+"/figure.svg").Code)
}

func TestStart_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	srv := New(Config{Address: "127.0.0.1:0", Store: f.st})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/runs")
	f.do(t, http.MethodGet, "/runs/missing")

	rec := f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `sensitivity_http_requests_total{code="200",route="GET /api/runs"} 1`)
	assert.Contains(t, body, `sensitivity_http_requests_total{code="404",route="GET /runs/{id}"} 1`)
	assert.Contains(t, body, "sensitivity_http_request_duration_seconds_bucket")
}
