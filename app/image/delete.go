package image

import (
	"net/http"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ImageDelete(c *gin.Context, d *internal.Deps) {
	id := c.Param("id")

	if err := d.Images.Delete(c.Request.Context(), c.GetString("userID"), id); err != nil {
		response.FailShort(c, err)
		return
	}

	zap.L().Debug("User image deleted", zap.String("imageID", id), zap.String("requestID", c.GetString("requestID")))

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"deletedId": id,
	})
}
