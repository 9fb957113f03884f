package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sqlx.DB and by the redis client adapter.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health returns 200 if the process is alive. Used by load balancers.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 when the database answers a ping. Redis is optional and only reported.
func Ready(db Pinger, redis Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database ping failed"})
			return
		}
		cacheStatus := "disabled"
		if redis != nil {
			cacheStatus = "ok"
			if err := redis.PingContext(ctx); err != nil {
				cacheStatus = "unreachable"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok", "cache": cacheStatus})
	}
}
