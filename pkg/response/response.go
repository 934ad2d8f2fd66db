// Package response writes the JSON bodies handlers send back. Account
// routes use the full envelope, avatar and image routes a short
// {success, error} body and chat routes a bare {error}.
package response

import (
	"net/http"

	"fashionai/avatar-api/config"
	"fashionai/avatar-api/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope is the body of every account route
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Errors     any    `json:"errors,omitempty"`
}

func Success(c *gin.Context, message string, data any) {
	write(c, http.StatusOK, message, data)
}

func Created(c *gin.Context, message string, data any) {
	write(c, http.StatusCreated, message, data)
}

func write(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		Success:    true,
		Message:    message,
		StatusCode: status,
		Data:       data,
	})
}

// resolve turns err into a status and client safe message and logs
// anything unexpected
func resolve(c *gin.Context, err error) (*apperr.Error, int) {
	e := apperr.From(err)
	status := e.Kind.Status()

	if e.Kind == apperr.Internal || e.Kind == apperr.ServiceUnavailable {
		requestID, _ := c.Get("requestID")
		id, _ := requestID.(string)

		zap.L().Error(e.Message, zap.Error(err), zap.String("requestID", id), zap.String("path", c.FullPath()))
	}

	return e, status
}

// Fail aborts with the envelope. Outside production internal errors
// carry the underlying error text.
func Fail(c *gin.Context, err error) {
	e, status := resolve(c, err)

	body := Envelope{
		Success:    false,
		Message:    e.Message,
		StatusCode: status,
	}

	switch {
	case len(e.Fields) > 0:
		body.Errors = e.Fields
	case e.Kind == apperr.Internal && !config.IsProduction() && e.Err != nil:
		body.Errors = []string{e.Err.Error()}
	}

	c.AbortWithStatusJSON(status, body)
}

// FailShort aborts with {success: false, error}
func FailShort(c *gin.Context, err error) {
	e, status := resolve(c, err)

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   e.Message,
	})
}

// FailBare aborts with {error}
func FailBare(c *gin.Context, err error) {
	e, status := resolve(c, err)

	c.AbortWithStatusJSON(status, gin.H{
		"error": e.Message,
	})
}
