package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Health reports that the process is up and serving
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "Server is running",
	})
}

// Validate answers 200 for any request that made it past the JWT
// middleware
func Validate(c *gin.Context) {
	c.Status(http.StatusOK)
}
