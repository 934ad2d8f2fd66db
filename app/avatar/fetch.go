package avatar

import (
	"net/http"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// AvatarList returns the caller's avatars, newest first
func AvatarList(c *gin.Context, d *internal.Deps) {
	avatars, err := d.Avatars.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.FailShort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"avatars": avatars,
	})
}

// AvatarFetch returns one avatar with its images inlined as data URLs
func AvatarFetch(c *gin.Context, d *internal.Deps) {
	a, err := d.Avatars.Get(c.Request.Context(), c.GetString("userID"), c.Param("avatarId"))
	if err != nil {
		response.FailShort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"avatar":  a,
	})
}
