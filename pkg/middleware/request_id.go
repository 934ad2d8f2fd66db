// Package middleware contains any custom middleware used in the app
package middleware

import (
	"regexp"

	"fashionai/avatar-api/pkg/util"

	"github.com/gin-gonic/gin"
)

const requestIDHeader = "X-Request-ID"

// IDs set by a trusted proxy are kept when they look sane
var upstreamID = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// NewRequestIDMiddleware tags every request with an ID stored as
// requestID and echoed back in X-Request-ID
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !upstreamID.MatchString(id) {
			id = util.RandStr(10)
		}

		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
