package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func bodyTooLarge(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   "Request body size exceeds limit",
	})
}

// BodySizeLimiter caps request bodies at maxBytes
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for legit requests
		if c.Request.ContentLength > maxBytes {
			bodyTooLarge(c, http.StatusRequestEntityTooLarge)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()

		if last := c.Errors.Last(); last != nil && !c.Writer.Written() {
			var tooLarge *http.MaxBytesError
			if errors.As(last.Err, &tooLarge) {
				bodyTooLarge(c, http.StatusRequestEntityTooLarge)
			}
		}
	}
}
