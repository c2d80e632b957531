package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazelab/gazetrack/internal/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	NewRouter(NewMemoryStore()).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createSession(t *testing.T, srv *httptest.Server, body any) string {
	t.Helper()
	var out struct {
		SessionID string `json:"sessionId"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/sessions", body, &out)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, out.SessionID)
	return out.SessionID
}

func TestCreateSessionEmptyBody(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.SessionID)
}

func TestRecordTrialUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	status := doJSON(t, http.MethodPost, srv.URL+"/sessions/nope/trials", map[string]any{}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var export services.ExportSnapshot
	doJSON(t, http.MethodGet, srv.URL+"/export", nil, &export)
	assert.Empty(t, export.Trials, "failed record must not mutate the store")
}

func TestRecordTrialMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, nil)
	resp, err := http.Post(srv.URL+"/sessions/"+id+"/trials", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrialFlowAndExport(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, map[string]any{
		"participantId":       "P042",
		"calibrationAccuracy": 0.93,
		"browserInfo":         map[string]any{"userAgent": "test"},
	})

	var trialResp struct {
		TrialID string `json:"trialId"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/trials", map[string]any{
		"leftImage":        map[string]any{"category": "gore", "scrambleMethod": "fourier", "scrambleLevel": 2},
		"leftFixationTime": 1000,
		"firstFixation":    "left",
		"extraneousField":  "ignored",
	}, &trialResp)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, trialResp.TrialID)

	var export services.ExportSnapshot
	doJSON(t, http.MethodGet, srv.URL+"/export", nil, &export)
	require.Len(t, export.Sessions, 1)
	require.Len(t, export.Trials, 1)
	assert.Equal(t, trialResp.TrialID, export.Trials[0].TrialID)
	assert.Equal(t, 1, export.Sessions[0].CompletedTrials)
	assert.Equal(t, 1, export.Sessions[0].TotalTrials)
	assert.NotEmpty(t, export.ExportTime)
}

func TestCompleteSession(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPut, srv.URL+"/sessions/nope/complete", nil, nil))

	id := createSession(t, srv, nil)
	var out struct {
		Success bool `json:"success"`
	}
	status := doJSON(t, http.MethodPut, srv.URL+"/sessions/"+id+"/complete", nil, &out)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, out.Success)

	var sessions []services.Session
	doJSON(t, http.MethodGet, srv.URL+"/sessions", nil, &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, services.StatusCompleted, sessions[0].Status)
	assert.NotZero(t, sessions[0].EndTime)
}

func TestStatisticsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, nil)
	for i, fix := range []int{1000, 2000} {
		first := "left"
		if i == 1 {
			first = "right"
		}
		status := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/trials", map[string]any{
			"leftImage":        map[string]any{"category": "gore"},
			"leftFixationTime": fix,
			"firstFixation":    first,
		}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	var snap services.StatisticsSnapshot
	doJSON(t, http.MethodGet, srv.URL+"/statistics", nil, &snap)
	assert.Equal(t, 1, snap.TotalSessions)
	assert.Equal(t, 2, snap.TotalTrials)
	gore := snap.ByCategory["gore"]
	assert.Equal(t, 2, gore.Count)
	assert.Equal(t, 1500.0, gore.AvgFixationTime)
	require.NotNil(t, gore.FirstFixationRate)
	assert.Equal(t, 0.5, *gore.FirstFixationRate)
	// Missing scramble metadata coalesces to sentinel keys.
	assert.Equal(t, 2, snap.ByScrambleMethod["unknown"].Count)
	assert.Equal(t, 2, snap.ByScrambleLevel["0"].Count)
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, nil)
	status := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/trials", map[string]any{
		"rightImage":        map[string]any{"category": "neutral", "scrambleMethod": "pixel", "scrambleLevel": 1},
		"rightFixationTime": 640,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(srv.URL + "/export?format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, nil)
	for i := 0; i < 3; i++ {
		status := doJSON(t, http.MethodPost, fmt.Sprintf("%s/sessions/%s/trials", srv.URL, id), map[string]any{}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	var h services.Health
	doJSON(t, http.MethodGet, srv.URL+"/health", nil, &h)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 1, h.SessionCount)
	assert.Equal(t, 3, h.TrialCount)
	assert.NotEmpty(t, h.Timestamp)
}
