package web

import (
	"context"
	_ "embed"
	"net/http"

	"viz-agent/agent"
	"viz-agent/config"
	"viz-agent/web/handlers"
	"viz-agent/web/middleware"
	"viz-agent/web/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed static/index.html
var indexHTML []byte

type Server struct {
	router   *gin.Engine
	agent    *agent.Agent
	sessions *session.Store
	limiter  *middleware.SessionRateLimiter
	logger   *zap.Logger
	config   *config.Config
}

func NewServer(agent *agent.Agent, sessions *session.Store, logger *zap.Logger, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Set("logger", logger)
		c.Next()
	})

	limiter := middleware.NewSessionRateLimiter(middleware.RateLimiterConfig{
		QuestionsPerMinute: config.RateLimitPerMin,
		BurstSize:          config.RateLimitBurstSize,
	}, logger)

	server := &Server{
		router:   router,
		agent:    agent,
		sessions: sessions,
		limiter:  limiter,
		logger:   logger,
		config:   config,
	}

	server.setupRoutes()
	return server
}

// RateLimiter exposes the limiter so the cleanup routine can drop buckets
// for evicted sessions.
func (s *Server) RateLimiter() *middleware.SessionRateLimiter {
	return s.limiter
}

func (s *Server) setupRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})

	datasetHandler := handlers.NewDatasetHandler(s.config, s.logger)
	analyzeHandler := handlers.NewAnalyzeHandler(s.agent, s.logger)

	api := s.router.Group("/api", middleware.SessionMiddleware(s.sessions))
	api.POST("/dataset/upload", datasetHandler.Upload)
	api.POST("/dataset/sample", datasetHandler.LoadSample)
	api.GET("/dataset", datasetHandler.Describe)
	api.POST("/ask", middleware.RateLimitMiddleware(s.limiter), analyzeHandler.Ask)
	api.GET("/history", analyzeHandler.History)
	api.GET("/examples", analyzeHandler.Examples)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	return srv.Shutdown(context.Background())
}
