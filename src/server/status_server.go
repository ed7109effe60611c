package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// StatusServer
// -----------------------------------------------------------------------------

// StatusServer exposes the run ledger over HTTP: recent runs, their uploads,
// the latest URL list and prometheus metrics.
type StatusServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	DB       interfaces.IDatabase
	engine   *gin.Engine
	registry *prometheus.Registry
	http     *http.Server
	started  time.Time
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewStatusServer(cfg *models.MConfig, db interfaces.IDatabase, log *logger.Logger) *StatusServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &StatusServer{
		Config:   cfg,
		Logger:   log.Named("StatusServer"),
		DB:       db,
		engine:   gin.New(),
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}
	s.engine.Use(gin.Recovery())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.registry.MustRegister(NewLedgerCollector(db, s.Logger))

	// setup web routes
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *StatusServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/runs", s.getRuns)
	api.GET("/runs/:id/uploads", s.getRunUploads)
	api.GET("/urls/latest", s.getLatestURLs)

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// Handler exposes the router, mainly for tests.
func (s *StatusServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves until Stop is called. A clean shutdown returns nil.
func (s *StatusServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *StatusServer) Stop(ctx context.Context) error {
	s.Logger.Info("Stopping server")
	return s.http.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *StatusServer) getHealth(c *gin.Context) {
	stats, err := s.DB.Stats()
	if err != nil {
		s.Logger.Error("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}

	var lastRun any
	if !stats.LastRunAt.IsZero() {
		lastRun = stats.LastRunAt.UTC().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"repository":     s.repositoryLabel(),
		"last_run":       lastRun,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := s.DB.ListRuns(limit)
	if err != nil {
		s.Logger.Error("Failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getRunUploads(c *gin.Context) {
	uploads, err := s.DB.ListUploads(c.Param("id"))
	if err != nil {
		s.Logger.Error("Failed to list uploads for run %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list uploads"})
		return
	}
	c.JSON(http.StatusOK, uploads)
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getLatestURLs(c *gin.Context) {
	uploads, err := s.DB.LatestSuccessfulUploads()
	if err != nil {
		s.Logger.Error("Failed to load latest uploads: %v", err)
		c.String(http.StatusInternalServerError, "failed to load latest uploads\n")
		return
	}
	if len(uploads) == 0 {
		c.String(http.StatusNotFound, "no successful runs yet\n")
		return
	}

	var b strings.Builder
	for _, u := range uploads {
		b.WriteString(u.RawURL)
		b.WriteByte('\n')
	}
	c.String(http.StatusOK, b.String())
}

// -----------------------------------------------------------------------------

func (s *StatusServer) repositoryLabel() string {
	if s.Config.Repository.Organization != "" {
		return s.Config.Repository.Organization + "/" + s.Config.Repository.Name
	}
	return s.Config.Repository.Name
}
