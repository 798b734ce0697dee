package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server wraps a Gin engine and the underlying http.Server: plain HTTP,
// logger and recovery middleware applied to every route, TLS termination
// left to whatever sits in front.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *zap.SugaredLogger
}

// NewServer builds the Gin engine, applies logging/recovery middleware,
// and lets registerFn attach routes before the server starts listening.
func NewServer(addr string, logger *zap.Logger, registerFn func(*gin.RouterGroup)) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(ginzap.Ginzap(logger.Named("http"), time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger.Named("http"), true))

	root := engine.Group("/")
	registerFn(root)

	return &Server{
		engine: engine,
		http:   &http.Server{Addr: addr, Handler: engine},
		logger: logger.Sugar(),
	}
}

// Start blocks, serving HTTP until Stop is called or a fatal error occurs.
// http.ErrServerClosed is not an error from Stop's point of view and is
// swallowed here.
func (s *Server) Start() error {
	s.logger.Infow("server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Stop performs a graceful shutdown, waiting for in-flight requests to
// complete or ctx to expire, whichever comes first.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// RegisterRoutes attaches the standard taskengine routes to router.
func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/healthz", h.Healthz)
	router.GET("/stats", h.Stats)
	router.POST("/tasks", h.SubmitTask)
	router.GET("/tasks", h.ListTasks)
}
