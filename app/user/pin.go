package user

import (
	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/pkg/response"
	"fashionai/avatar-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

// UserGeneratePIN issues a new 6 digit PIN for the account
func UserGeneratePIN(c *gin.Context, d *internal.Deps) {
	var body validators.GeneratePINRequest
	if !bind(c, &body) {
		return
	}

	issue, err := d.Auth.GeneratePIN(c.Request.Context(), body.Email)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, "PIN generated successfully", issue)
}

// UserVerifyPIN trades a valid PIN for a session token
func UserVerifyPIN(c *gin.Context, d *internal.Deps) {
	var body validators.VerifyPINRequest
	if !bind(c, &body) {
		return
	}

	res, err := d.Auth.VerifyPIN(c.Request.Context(), body.Email, body.PIN)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, "PIN verified successfully", res)
}
