package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/weedwatch/weedwatch/internal/model"
	"github.com/weedwatch/weedwatch/internal/response"
)

const savedMessage = "JSON data saved successfully"

// Submitter is implemented by ingest.Service.
type Submitter interface {
	Submit(ctx context.Context, body []byte) (*model.LocationRecord, error)
}

// LocationHandler serves POST /save_json.
type LocationHandler struct {
	Service      Submitter
	Logger       zerolog.Logger
	MaxBodyBytes int64
}

// SaveJSON is the single error boundary for ingestion: every failure becomes
// a 200 response with status "error" and the error text.
func (h *LocationHandler) SaveJSON(c echo.Context) error {
	req := c.Request()
	var body io.Reader = req.Body
	if h.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(c.Response(), req.Body, h.MaxBodyBytes)
	}

	payload, err := io.ReadAll(body)
	if err == nil {
		_, err = h.Service.Submit(req.Context(), payload)
	}
	if err != nil {
		h.Logger.Error().
			Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("save report failed")
		return response.Failure(c, err.Error())
	}
	return response.Success(c, savedMessage)
}

// Health answers GET /health.
func (h *LocationHandler) Health(c echo.Context) error {
	return response.Success(c, "ok")
}
