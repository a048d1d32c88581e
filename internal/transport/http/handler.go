package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"onsalenow.io/analytics/internal/application"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/transport/mw"
)

const defaultTopN = 12

// Handler holds all HTTP handler methods.
type Handler struct {
	svc *application.Service
	hub *Hub
}

// NewHandler creates a new Handler.
func NewHandler(svc *application.Service, hub *Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

// --- Admin analytics ---

// GetAnalytics GET /admin/analytics
func (h *Handler) GetAnalytics(c echo.Context) error {
	return h.dashboard(c, application.TriggerViewLoad)
}

// RefreshAnalytics POST /admin/analytics/refresh
func (h *Handler) RefreshAnalytics(c echo.Context) error {
	return h.dashboard(c, application.TriggerViewRefresh)
}

func (h *Handler) dashboard(c echo.Context, trigger application.Trigger) error {
	d, err := h.svc.LoadDashboard(c.Request().Context(), trigger)
	if err != nil {
		log.Error().Err(err).Str("trigger", string(trigger)).Msg("failed to load analytics snapshot")
		return echo.NewHTTPError(http.StatusBadGateway, "document store unavailable")
	}
	return c.JSON(http.StatusOK, d)
}

// ListSellers GET /admin/analytics/sellers
func (h *Handler) ListSellers(c echo.Context) error {
	rows, err := h.svc.SellerTable(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load seller table")
		return echo.NewHTTPError(http.StatusBadGateway, "document store unavailable")
	}
	return c.JSON(http.StatusOK, map[string]any{"data": rows})
}

// Evaluate POST /admin/notifications/evaluate
func (h *Handler) Evaluate(c echo.Context) error {
	result, err := h.svc.RunPass(c.Request().Context(), application.TriggerManual)
	switch {
	case errors.Is(err, application.ErrPassInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		log.Error().Err(err).Msg("manual evaluation failed")
		return echo.NewHTTPError(http.StatusBadGateway, "document store unavailable")
	}
	return c.JSON(http.StatusOK, result)
}

// --- Admin test data ---

// SeedTestSeller POST /admin/test-data/sellers
func (h *Handler) SeedTestSeller(c echo.Context) error {
	var in application.TestSellerInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.SeedTestSeller(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	status := http.StatusOK
	if res.Action == application.ActionCreated {
		status = http.StatusCreated
	}
	return c.JSON(status, res)
}

// DeleteTestSeller DELETE /admin/test-data/sellers/:email
func (h *Handler) DeleteTestSeller(c echo.Context) error {
	res, err := h.svc.DeleteTestSeller(c.Request().Context(), c.Param("email"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// --- SSE Handler ---

// Stream GET /admin/analytics/stream (SSE of pass status banners)
func (h *Handler) Stream(c echo.Context) error {
	userID, _ := c.Get(mw.KeyUserID).(string)

	// SSE headers
	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable Nginx buffering

	sendCh := make(chan []byte, 32)
	client := h.hub.Register(userID, sendCh)
	defer h.hub.Unregister(client)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"ok\"}\n\n")
	w.Flush()

	log.Info().Str("user", userID).Msg("SSE stream opened")

	ctx := c.Request().Context()
	for {
		select {
		case msg, ok := <-sendCh:
			if !ok {
				return nil
			}
			if _, err := w.Write(msg); err != nil {
				return nil
			}
			w.Flush()

		case <-ctx.Done():
			log.Info().Str("user", userID).Msg("SSE stream closed by client")
			return nil
		}
	}
}

// --- Storefront ---

// HomeRecommendations GET /storefront/recommendations/home
func (h *Handler) HomeRecommendations(c echo.Context) error {
	products, err := h.svc.HomeRecommendations(c.Request().Context(), parseIntQuery(c, "top_n", defaultTopN))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]any{"data": products, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": products})
}

// ForYouRecommendations GET /storefront/recommendations/for-you
func (h *Handler) ForYouRecommendations(c echo.Context) error {
	userID, _ := c.Get(mw.KeyUserID).(string)
	products, err := h.svc.ForYouRecommendations(c.Request().Context(), userID, parseIntQuery(c, "top_n", defaultTopN))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]any{"data": products, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"data": products})
}

// --- Healthcheck ---

// Health GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"sse_clients": h.hub.ConnectedCount(),
	})
}

// --- Helpers ---

func parseIntQuery(c echo.Context, key string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func mapError(err error) error {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		return echo.ErrInternalServerError
	}
}
