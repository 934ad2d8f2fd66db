package image

import (
	"net/http"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type attachBody struct {
	Filename string `json:"filename"`
	Gender   string `json:"gender"`
}

// ImageAttach points the male or female avatar slot at an image
func ImageAttach(c *gin.Context, d *internal.Deps) {
	var body attachBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.FailShort(c, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	u, err := d.Images.Attach(c.Request.Context(), c.GetString("userID"), body.Filename, body.Gender)
	if err != nil {
		response.FailShort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u,
	})
}
