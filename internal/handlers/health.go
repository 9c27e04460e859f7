package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger is anything whose backing stores can be checked.
type Pinger interface {
	Ping() error
}

func ServiceInfo(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": name, "status": "running"})
	}
}

func Health(name string, deps Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"service": name,
				"status":  "unhealthy",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"service": name, "status": "healthy"})
	}
}
