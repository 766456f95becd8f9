package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/pipeline"
	"github.com/ppiankov/realcheck/internal/store"
)

const (
	serviceName   = "RealAI Check"
	bannerMessage = "RealAI Check API is live! POST to /analyze with {'url': 'https://example.com'}"
)

// Analyzer runs one analysis request
type Analyzer interface {
	Run(ctx context.Context, req pipeline.Request) (*model.Report, error)
}

// Server is the HTTP transport in front of the pipeline
type Server struct {
	app      *fiber.App
	analyzer Analyzer
	store    store.ReportStore
	cfg      model.ServerConfig
}

type analyzeRequest struct {
	URL              string `json:"url"`
	ManualText       string `json:"manual_text"`
	Description      string `json:"description"`
	EnablePlaywright bool   `json:"enable_playwright"`
}

// New builds the Fiber app. reports may be nil, which disables /reports.
func New(cfg model.ServerConfig, analyzer Analyzer, reports store.ReportStore) *Server {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s := &Server{app: app, analyzer: analyzer, store: reports, cfg: cfg}

	app.Get("/", s.handleRoot)
	app.Get("/health", s.handleHealth)
	app.Post("/analyze", s.handleAnalyze)
	app.Get("/reports", s.handleListReports)
	app.Get("/reports/:id", s.handleGetReport)
	app.Get("/metrics", metrics.MetricsHandler())

	return s
}

// App exposes the underlying Fiber app
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on host:port until Shutdown
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	logger.Info("Server starting", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": bannerMessage,
		"status":  "healthy",
		"cors":    "enabled",
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": serviceName,
	})
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Debug("Failed to parse analyze request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.URL == "" && req.ManualText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}
	if req.EnablePlaywright {
		logger.Debug("Browser rendering requested but not supported; using plain fetch", zap.String("url", req.URL))
	}

	ctx := c.UserContext()
	if s.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
		defer cancel()
	}

	report, err := s.analyzer.Run(ctx, pipeline.Request{
		URL:         req.URL,
		ManualText:  req.ManualText,
		Description: req.Description,
	})
	if err != nil {
		var fe *pipeline.FetchError
		if errors.As(err, &fe) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": fe.Message(),
			})
		}
		logger.Error("Unexpected analysis error", zap.String("url", req.URL), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Analysis error",
		})
	}

	if s.store != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.store.Save(saveCtx, report); err != nil {
			logger.Warn("Failed to store report", zap.String("id", report.ID), zap.Error(err))
		}
	}

	return c.JSON(report)
}

func (s *Server) handleListReports(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "report history is not enabled",
		})
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a non-negative integer",
			})
		}
		limit = n
	}

	reports, err := s.store.List(c.UserContext(), limit)
	if err != nil {
		logger.Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list reports",
		})
	}
	return c.JSON(fiber.Map{"reports": reports})
}

func (s *Server) handleGetReport(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "report history is not enabled",
		})
	}

	report, err := s.store.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "report not found",
		})
	}
	if err != nil {
		logger.Error("Failed to load report", zap.String("id", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load report",
		})
	}
	return c.JSON(report)
}
