package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Stebibastian/kas-filesync/internal/engine"
	"github.com/Stebibastian/kas-filesync/internal/logger"
	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/Stebibastian/kas-filesync/internal/repository"
	"github.com/Stebibastian/kas-filesync/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server is the loopback control surface the status-bar UI and the CLI
// client commands poll. It never mutates pairs; the registry belongs to the
// external manager.
type Server struct {
	echo      *echo.Echo
	engine    *engine.Engine
	conflicts store.ConflictStore
	histRepo  *repository.HistoryRepository
	port      int
	stopCh    chan struct{}
}

func NewServer(eng *engine.Engine, conflicts store.ConflictStore, histRepo *repository.HistoryRepository, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		engine:    eng,
		conflicts: conflicts,
		histRepo:  histRepo,
		port:      port,
		stopCh:    make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.GET("/conflicts", s.handleConflicts)
	s.echo.GET("/history", s.handleHistory)
	s.echo.POST("/sweep", s.handleSweep)
	s.echo.POST("/stop", s.handleStop)
}

func (s *Server) Start() {
	go func() {
		addr := "localhost:" + strconv.Itoa(s.port)
		logger.Log.Info("control server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("control server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	stats, err := s.histRepo.GetStats()
	if err != nil {
		logger.Log.Warn("failed to load history stats", zap.Error(err))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"pairs": s.engine.Snapshots(),
		"stats": map[string]int64{
			"total":     stats.Total,
			"success":   stats.Success,
			"failed":    stats.Failed,
			"conflicts": stats.Conflicts,
		},
	})
}

func (s *Server) handleConflicts(c echo.Context) error {
	records, err := s.conflicts.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"conflicts": records,
	})
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil {
			n = parsed
		}
	}

	var histories []model.History
	var err error
	if pair := c.QueryParam("pair"); pair != "" {
		histories, err = s.histRepo.GetByPair(pair, n)
	} else {
		histories, err = s.histRepo.GetRecent(n)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, histories)
}

func (s *Server) handleSweep(c echo.Context) error {
	s.engine.Sweep()
	return c.JSON(http.StatusOK, map[string]string{"status": "sweeping"})
}

func (s *Server) handleStop(c echo.Context) error {
	s.stopCh <- struct{}{}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}
