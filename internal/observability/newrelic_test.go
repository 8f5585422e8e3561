package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weedwatch/weedwatch/internal/config"
)

func TestNewApplicationDisabledWithoutLicense(t *testing.T) {
	app, err := NewApplication(config.DefaultObservabilityConfig())
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestMiddlewareWithoutApplicationPassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(Middleware(nil))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}
