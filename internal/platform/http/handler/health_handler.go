// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ServiceName and Version are reported by Root.
const (
	ServiceName = "Hawkiz Market Data API"
	Version     = "0.1.0"
)

// Root はサービス名とバージョンを返します。
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": ServiceName, "version": Version})
}

// Health は GET/HEAD の /health, /healthz を処理します。HEADは本文なし。
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Readiness reports 503 while the database is unreachable. A nil db is always ready.
func Readiness(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "database": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "database": "up"})
	}
}
