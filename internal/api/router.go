package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/blog-articles-api/internal/config"
	"github.com/blog-articles-api/internal/service"
	"github.com/blog-articles-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, health HealthChecker, cfg config.ServerConfig, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.CORSAllowOrigin))

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	userHandler := NewUserHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(health))
	router.GET("/metrics", metricsHandler(services, health))

	articles := router.Group("/articles")
	{
		articles.GET("", articleHandler.List)
		articles.POST("", articleHandler.Create)
		articles.GET("/:id", articleHandler.Get)
		articles.PUT("/:id", articleHandler.Update)
		articles.PUT("/:id/author", articleHandler.SetAuthor)
	}

	users := router.Group("/users")
	{
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
	}

	return router
}

// healthCheck returns the health status, 503 when the database is unreachable
func healthCheck(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		})
	}
}

// poolStats is implemented by *database.DB through the embedded *sql.DB
type poolStats interface {
	Stats() sql.DBStats
}

// metricsHandler returns store counts and, when available, pool usage
func metricsHandler(services *service.Services, health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		articlesCount, _ := services.Article.Count(ctx)
		usersCount, _ := services.User.Count(ctx)

		resp := gin.H{
			"database": gin.H{
				"articles": articlesCount,
				"users":    usersCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if p, ok := health.(poolStats); ok {
			stats := p.Stats()
			resp["pool"] = gin.H{
				"open_connections": stats.OpenConnections,
				"in_use":           stats.InUse,
				"idle":             stats.Idle,
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware propagates or generates X-Request-ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware emits one event per request, keyed by the matched route
// template so /articles/1 and /articles/2 aggregate together
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		event := log.WithLevel(levelForStatus(status)).
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if errs := c.Errors.String(); errs != "" {
			event = event.Str("errors", errs)
		}
		event.Msg("Request completed")
	}
}

// levelForStatus maps a response status to a log level
func levelForStatus(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// corsMiddleware answers preflight requests and decorates every response with
// the allowed origin; an empty origin allows any
func corsMiddleware(allowOrigin string) gin.HandlerFunc {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		if allowOrigin != "*" {
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		h.Set("Access-Control-Expose-Headers", RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
