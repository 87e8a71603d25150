// Package receiver accepts JSON documents over HTTP and appends them to a log
package receiver

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Appender stores one document. output.LineWriter implements it.
type Appender interface {
	Append(v any) error
}

// Router returns the receiver routes: POST / appends the body to log
func Router(log Appender, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/", func(c *gin.Context) {
		var body json.RawMessage
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := log.Append(body); err != nil {
			logger.Error("Failed to append request", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Request received successfully!"})
	})

	return router
}
