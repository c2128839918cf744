// Package server exposes the match service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/scholarship-matcher/internal/eligibility"
	"github.com/spigell/scholarship-matcher/internal/logger"
	"github.com/spigell/scholarship-matcher/internal/matching"
)

const shutdownTimeout = 10 * time.Second

// Store is the part of the record store the HTTP layer writes to and lists from.
type Store interface {
	CreateStudent(ctx context.Context, st *eligibility.Student) error
	ListScholarships(ctx context.Context) ([]*eligibility.Scholarship, error)
}

// Matcher builds match reports.
type Matcher interface {
	Match(ctx context.Context, studentID string) (*matching.Report, error)
}

// Server is the HTTP front of the matcher.
type Server struct {
	addr    string
	router  *gin.Engine
	http    *http.Server
	store   Store
	matcher Matcher
	logger  *zap.Logger
}

// New wires the routes. Run starts listening.
func New(addr string, store Store, matcher Matcher, log *zap.Logger) *Server {
	s := &Server{
		addr:    addr,
		store:   store,
		matcher: matcher,
		logger:  logger.OrNop(log).Named("http"),
	}

	router := gin.New()
	router.Use(requestLogger(s.logger), gin.Recovery())

	router.GET("/health", s.health)
	api := router.Group("/api")
	api.POST("/students", s.createStudent)
	api.GET("/scholarships", s.listScholarships)
	api.GET("/students/:id/matches", s.studentMatches)

	s.router = router
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.addr))
		serverErrors <- s.http.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown requested", zap.Error(context.Cause(ctx)))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
