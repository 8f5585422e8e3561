package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weedwatch/weedwatch/internal/model"
)

type fakeSubmitter struct {
	got []byte
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, body []byte) (*model.LocationRecord, error) {
	f.got = body
	if f.err != nil {
		return nil, f.err
	}
	return &model.LocationRecord{ID: 1, Time: "2024-06-01"}, nil
}

func serve(t *testing.T, h *LocationHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/save_json", strings.NewReader(body))
	rec := httptest.NewRecorder()
	require.NoError(t, h.SaveJSON(e.NewContext(req, rec)))
	return rec
}

func TestSaveJSONPassesBodyThrough(t *testing.T) {
	sub := &fakeSubmitter{}
	h := &LocationHandler{Service: sub, Logger: zerolog.Nop(), MaxBodyBytes: 1 << 10}

	rec := serve(t, h, `{"name":"Sicyos angulatus"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"JSON data saved successfully"}`, rec.Body.String())
	assert.Equal(t, `{"name":"Sicyos angulatus"}`, string(sub.got))
}

func TestSaveJSONReportsServiceError(t *testing.T) {
	h := &LocationHandler{Service: &fakeSubmitter{err: errors.New("disk full")}, Logger: zerolog.Nop()}

	rec := serve(t, h, `{}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"disk full"}`, rec.Body.String())
}
