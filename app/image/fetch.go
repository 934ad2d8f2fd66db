package image

import (
	"net/http"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// ImageList returns the caller's images, optionally filtered by the
// gender query parameter. Unfiltered lists also come grouped.
func ImageList(c *gin.Context, d *internal.Deps) {
	list, err := d.Images.List(c.Request.Context(), c.GetString("userID"), c.Query("gender"))
	if err != nil {
		response.FailShort(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"images":  list.Images,
	}
	if list.Grouped != nil {
		body["grouped"] = list.Grouped
	}

	c.JSON(http.StatusOK, body)
}
