package user

import (
	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/pkg/response"
	"fashionai/avatar-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

func UserProfile(c *gin.Context, d *internal.Deps) {
	u, err := d.Users.Get(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, "Profile retrieved successfully", gin.H{"user": u.Payload()})
}

func UserUpdateProfile(c *gin.Context, d *internal.Deps) {
	var body validators.UpdateProfileRequest
	if !bind(c, &body) {
		return
	}

	u, err := d.Users.UpdateName(c.Request.Context(), c.GetString("userID"), body.Name)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, "Profile updated successfully", gin.H{"user": u.Payload()})
}
