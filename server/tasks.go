package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/sync"
	"github.com/labstack/echo/v4"
)

// SyncPushResponse is the response for snapshot uploads
type SyncPushResponse struct {
	Success bool  `json:"success"`
	Applied bool  `json:"applied"`
	Version int64 `json:"version"`
}

// handleTasksPull returns the stored task collection as a bare array
func (s *Server) handleTasksPull(c echo.Context) error {
	snap, err := s.repo.Load(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load tasks", logger.F("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load tasks")
	}

	s.metrics.tasks.Set(float64(len(snap.Tasks)))
	c.Response().Header().Set(sync.VersionHeader, strconv.FormatInt(snap.Version, 10))
	return c.JSON(http.StatusOK, snap.Tasks)
}

// handleTasksPush replaces the stored collection with the uploaded one.
// Uploads older than the stored snapshot are acknowledged but not applied.
func (s *Server) handleTasksPush(c echo.Context) error {
	var req model.Snapshot
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Tasks == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tasks is required")
	}
	if err := checkTasks(req.Tasks); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sessionID := c.Request().Header.Get(sync.SessionHeader)
	applied, err := s.repo.Save(c.Request().Context(), sessionID, req)
	if err != nil {
		s.metrics.pushes.WithLabelValues("error").Inc()
		logger.Error("Failed to save tasks", logger.F("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save tasks")
	}

	if applied {
		s.metrics.pushes.WithLabelValues("applied").Inc()
		s.metrics.tasks.Set(float64(len(req.Tasks)))
	} else {
		s.metrics.pushes.WithLabelValues("stale").Inc()
		logger.Info("Ignored stale snapshot",
			logger.F("version", req.Version),
			logger.F("session", sessionID))
	}

	return c.JSON(http.StatusOK, SyncPushResponse{
		Success: true,
		Applied: applied,
		Version: req.Version,
	})
}

// checkTasks rejects collections the client could not reload
func checkTasks(tasks []model.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			return fmt.Errorf("tasks[%d]: id is required", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("tasks[%d]: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
