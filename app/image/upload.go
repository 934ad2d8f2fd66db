package image

import (
	"errors"
	"net/http"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type uploadBody struct {
	ImageDataURL string `json:"imageDataUrl"`
	Type         string `json:"type"`
	Gender       string `json:"gender"`
}

// ImageUpload stores an image sent as a base64 data URL
func ImageUpload(c *gin.Context, d *internal.Deps) {
	var body uploadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		response.FailShort(c, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	res, err := d.Images.Upload(c.Request.Context(), c.GetString("userID"), body.ImageDataURL, body.Type, body.Gender)
	if err != nil {
		response.FailShort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": res.Filename,
		"image":    res.Image,
	})
}

// ImageUploadFile stores an image sent as multipart form field "image"
func ImageUploadFile(c *gin.Context, d *internal.Deps) {
	fh, err := c.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		zap.L().Debug("Can't read multipart form", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		response.FailShort(c, apperr.New(apperr.Validation, "Invalid multipart form"))
		return
	}

	res, err := d.Images.UploadFile(c.Request.Context(), c.GetString("userID"), fh, c.PostForm("gender"))
	if err != nil {
		response.FailShort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": res.Filename,
		"url":      res.URL,
		"image":    res.Image,
	})
}
