package user

import (
	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/pkg/response"
	"fashionai/avatar-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bind decodes and validates the JSON body into dst. On failure the
// response is already written.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		response.Fail(c, apperr.New(apperr.Validation, "Invalid request body"))
		return false
	}

	if err := validators.Struct(dst); err != nil {
		response.Fail(c, err)
		return false
	}

	return true
}
