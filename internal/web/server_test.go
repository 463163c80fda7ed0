package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/edascope/internal/dataset"
	"github.com/KaramelBytes/edascope/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const medalsCSV = "Country,Gold\nPeru,1\nChad,\nPeru,1\nFiji,3\n"

func newTestServer(t *testing.T, content string, maxSessions int) *Server {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "olympic_medals.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return NewServer(session.Options{
		Path:       path,
		Load:       dataset.DefaultLoadOptions(),
		ReportPath: filepath.Join(dir, "summary.txt"),
	}, maxSessions)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func createSession(t *testing.T, s *Server) SessionView {
	t.Helper()
	rr := do(t, s, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var view SessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	rr := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestCreateSessionRunsPipeline(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	view := createSession(t, s)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, []string{"Country", "Gold"}, view.Columns)
	require.Len(t, view.Stages, 3)
	assert.Equal(t, 4, view.Stages[0].Rows)
	assert.Equal(t, 3, view.Stages[1].Rows)
	assert.Equal(t, 2, view.Stages[2].Rows)
	assert.Contains(t, view.Report, "count")
	assert.Empty(t, view.PersistError)

	rr := do(t, s, http.MethodGet, "/api/sessions/"+view.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var again SessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &again))
	assert.Equal(t, view.ID, again.ID)
}

func TestCreateSessionLoadFailure(t *testing.T) {
	s := newTestServer(t, "", 4)
	rr := do(t, s, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "empty_data", resp.Kind)
	assert.Equal(t, "File is empty.", resp.Message)
	assert.Equal(t, 0, s.store.Len())
}

func TestChartsForColumn(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	view := createSession(t, s)

	rr := do(t, s, http.MethodGet, "/api/sessions/"+view.ID+"/charts?column=Country", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var cv struct {
		Column string `json:"column"`
		Prompt string `json:"prompt"`
		Charts []struct {
			Kind   string `json:"kind"`
			Points []struct {
				Label   string   `json:"label"`
				Value   *float64 `json:"value"`
				Display string   `json:"display"`
			} `json:"points"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cv))
	assert.Equal(t, "Country", cv.Column)
	assert.Empty(t, cv.Prompt)
	require.Len(t, cv.Charts, 6)
	assert.Equal(t, "bar", cv.Charts[0].Kind)
	require.Len(t, cv.Charts[0].Points, 2)
	assert.Equal(t, "Peru", cv.Charts[0].Points[0].Display)
	assert.Nil(t, cv.Charts[0].Points[0].Value)
	assert.Equal(t, "Fiji", cv.Charts[0].Points[1].Display)
	assert.Equal(t, "barh", cv.Charts[5].Kind)
}

func TestChartsWithoutColumnPrompts(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	view := createSession(t, s)

	for _, target := range []string{"/charts", "/charts?column=Silver"} {
		rr := do(t, s, http.MethodGet, "/api/sessions/"+view.ID+target, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var cv ChartsView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cv))
		assert.Equal(t, session.SelectPrompt, cv.Prompt)
		assert.Empty(t, cv.Charts)
	}
}

func TestCreateWithColumn(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	rr := do(t, s, http.MethodPost, "/api/sessions", `{"column":"Gold"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var view SessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.NotNil(t, view.Charts)
	assert.Equal(t, "Gold", view.Charts.Column)
	assert.Len(t, view.Charts.Charts, 6)
	assert.Equal(t, "Gold", view.Selected)

	rr = do(t, s, http.MethodPost, "/api/sessions", `{"column":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReportFormats(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	view := createSession(t, s)
	base := "/api/sessions/" + view.ID + "/report"

	rr := do(t, s, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, view.Report, rr.Body.String())

	rr = do(t, s, http.MethodGet, base+"?format=markdown", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "[DESCRIBE]")

	rr = do(t, s, http.MethodGet, base+"?format=json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var rep struct {
		Rows  int                          `json:"rows"`
		Stats map[string]map[string]string `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	assert.Equal(t, 4, rep.Rows)
	assert.Equal(t, "3.000000", rep.Stats["count"]["Gold"])

	rr = do(t, s, http.MethodGet, base+"?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteAndUnknownSession(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	view := createSession(t, s)

	rr := do(t, s, http.MethodDelete, "/api/sessions/"+view.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, s, http.MethodGet, "/api/sessions/"+view.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, s, http.MethodGet, "/api/sessions/not-a-uuid/charts", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionsAreIsolatedAndBounded(t *testing.T) {
	s := newTestServer(t, medalsCSV, 2)
	first := createSession(t, s)
	second := createSession(t, s)
	assert.NotEqual(t, first.ID, second.ID)

	rr := do(t, s, http.MethodGet, "/api/sessions/"+first.ID+"/charts?column=Gold", "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, s, http.MethodGet, "/api/sessions/"+second.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var v SessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Empty(t, v.Selected, "selection belongs to one session")

	createSession(t, s)
	assert.Equal(t, 2, s.store.Len())
	rr = do(t, s, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []SessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestShutdownBeforeStartStopsServer(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	require.NoError(t, s.Shutdown(context.Background()))
	err := s.Start("127.0.0.1:0")
	assert.ErrorIs(t, err, http.ErrServerClosed)
}

func TestShutdownWhileServing(t *testing.T) {
	s := newTestServer(t, medalsCSV, 4)
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start("127.0.0.1:0") }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
