package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weedwatch/weedwatch/internal/config"
	"github.com/weedwatch/weedwatch/internal/database"
	"github.com/weedwatch/weedwatch/internal/ingest"
	"github.com/weedwatch/weedwatch/internal/rawstore"
	"github.com/weedwatch/weedwatch/internal/repository"
	"github.com/weedwatch/weedwatch/internal/response"
)

type testServer struct {
	srv    *Server
	repo   repository.LocationRepository
	rawDir string
}

func newTestServer(t *testing.T, mutate func(*config.Config)) testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.RawDir = filepath.Join(dir, "LocationData")
	cfg.Database.Path = filepath.Join(dir, "location.db")
	if mutate != nil {
		mutate(cfg)
	}

	raw, err := rawstore.NewLocalStore(cfg.Storage.RawDir)
	require.NoError(t, err)
	db, err := database.OpenSQLite(cfg.Database.Path)
	require.NoError(t, err)
	repo := repository.NewSQLiteLocationRepository(db)
	t.Cleanup(func() { _ = repo.Close() })

	svc := ingest.NewService(raw, repo, zerolog.Nop())
	return testServer{srv: New(cfg, svc, zerolog.Nop(), nil), repo: repo, rawDir: cfg.Storage.RawDir}
}

func (ts testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ts.srv.Echo.ServeHTTP(rec, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (ts testServer) count(t *testing.T) int64 {
	t.Helper()
	n, err := ts.repo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestSaveJSONSuccess(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPost, "/save_json",
		`{"name":"Humulus japonicus Siebold","latitude":35.90,"longitude":128.85,"accuracy":3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, response.StatusSuccess, env.Status)
	assert.Equal(t, "JSON data saved successfully", env.Message)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.EqualValues(t, 1, ts.count(t))
}

func TestSaveJSONMalformedBodyIsStill200(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPost, "/save_json", `{"name": "Sicyos angulatus",`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, response.StatusError, env.Status)
	assert.NotEmpty(t, env.Message)
	assert.Zero(t, ts.count(t))
}

func TestSaveJSONSequentialPosts(t *testing.T) {
	ts := newTestServer(t, nil)

	_, first := ts.do(t, http.MethodPost, "/save_json", `{"name":"Sicyos angulatus","latitude":35.8,"longitude":128.8}`)
	_, second := ts.do(t, http.MethodPost, "/save_json", `{"name":"Prickly lettuce","latitude":35.7,"longitude":128.7}`)
	require.Equal(t, response.StatusSuccess, first.Status)
	require.Equal(t, response.StatusSuccess, second.Status)

	entries, err := os.ReadDir(ts.rawDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.EqualValues(t, 2, ts.count(t))
}

func TestSaveJSONBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) { cfg.Server.MaxBodyBytes = 16 })

	rec, env := ts.do(t, http.MethodPost, "/save_json", `{"name":"Humulus japonicus Siebold"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, response.StatusError, env.Status)
	assert.Contains(t, env.Message, "too large")
	assert.Zero(t, ts.count(t))
}

func TestSaveJSONWrongMethod(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodGet, "/save_json", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, response.StatusError, env.Status)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, response.Envelope{Status: response.StatusSuccess, Message: "ok"}, env)
}

func TestSaveJSONAcceptsLooselyTypedFields(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, body := range []string{
		`{"name":"Sicyos angulatus","latitude":"35.80","longitude":"128.80"}`,
		`{"name":123,"latitude":35.8,"longitude":128.8}`,
	} {
		rec, env := ts.do(t, http.MethodPost, "/save_json", body)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, response.StatusSuccess, env.Status, env.Message)
	}
	assert.EqualValues(t, 2, ts.count(t))
}
