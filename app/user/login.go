package user

import (
	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/pkg/response"
	"fashionai/avatar-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

func UserLogin(c *gin.Context, d *internal.Deps) {
	var body validators.LoginRequest
	if !bind(c, &body) {
		return
	}

	res, err := d.Auth.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, "Login successful", res)
}
