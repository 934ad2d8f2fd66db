package user

import (
	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/service"
	"fashionai/avatar-api/pkg/response"
	"fashionai/avatar-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

func UserRegister(c *gin.Context, d *internal.Deps) {
	var body validators.RegisterRequest
	if !bind(c, &body) {
		return
	}

	res, err := d.Auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, "User registered successfully", res)
}
