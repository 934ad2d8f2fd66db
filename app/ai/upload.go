package ai

import (
	"net/http"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func upload(c *gin.Context, d *internal.Deps, field, missing string, imageOnly bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		zap.L().Debug("No upload in request", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		response.FailBare(c, apperr.New(apperr.Validation, missing))
		return
	}

	ref, err := d.Chat.SaveUpload(c.Request.Context(), field, fh, imageOnly)
	if err != nil {
		response.FailBare(c, err)
		return
	}

	c.JSON(http.StatusOK, ref)
}

// UploadImage stores a single chat image from form field "image"
func UploadImage(c *gin.Context, d *internal.Deps) {
	upload(c, d, "image", "No image file provided", true)
}

// UploadAttachment stores a single chat file from form field "attachment"
func UploadAttachment(c *gin.Context, d *internal.Deps) {
	upload(c, d, "attachment", "No file provided", false)
}
