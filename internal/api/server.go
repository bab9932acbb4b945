// Package api serves the watcher's status over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/david/termin-watch/internal/db"
	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
	"github.com/david/termin-watch/internal/monitor"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// History is the read side of the cycle store.
type History interface {
	ListCycles(ctx context.Context, params db.ListParams) ([]models.Cycle, error)
	GetCycle(ctx context.Context, id uuid.UUID) (*models.Cycle, error)
	GetStats(ctx context.Context) (*db.Stats, error)
}

// Info describes the watch target in /status responses.
type Info struct {
	TargetURL  string `json:"target_url"`
	Service    string `json:"service"`
	Policy     string `json:"policy"`
	WindowDays int    `json:"window_days"`
	Interval   string `json:"interval"`
}

type Server struct {
	Echo    *echo.Echo
	Status  *monitor.Status
	History History // nil without DATABASE_URL
	Info    Info
}

func NewServer(status *monitor.Status, history History, info Info) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Log.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Debug("HTTP request")
			return nil
		},
	}))

	s := &Server{
		Echo:    e,
		Status:  status,
		History: history,
		Info:    info,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/status", s.handleStatus)
	api.GET("/cycles", s.handleListCycles)
	api.GET("/cycles/:id", s.handleGetCycle)
	api.GET("/stats", s.handleGetStats)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type statusResponse struct {
	Info
	monitor.Snapshot
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Info: s.Info, Snapshot: s.Status.Snapshot()})
}

func (s *Server) handleListCycles(c echo.Context) error {
	if s.History == nil {
		return historyDisabled(c)
	}

	params := db.ListParams{
		Outcome:      models.Outcome(c.QueryParam("outcome")),
		WithDateOnly: c.QueryParam("found") == "true",
		Limit:        20,
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		params.Offset = o
	}
	if since := c.QueryParam("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "since must be RFC 3339"})
		}
		params.Since = t
	}

	cycles, err := s.History.ListCycles(c.Request().Context(), params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if cycles == nil {
		cycles = []models.Cycle{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"cycles": cycles,
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

func (s *Server) handleGetCycle(c echo.Context) error {
	if s.History == nil {
		return historyDisabled(c)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid cycle id"})
	}
	cyc, err := s.History.GetCycle(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, cyc)
}

func (s *Server) handleGetStats(c echo.Context) error {
	if s.History == nil {
		return historyDisabled(c)
	}
	stats, err := s.History.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

func historyDisabled(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "History is disabled (DATABASE_URL not set)"})
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
