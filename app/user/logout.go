package user

import (
	"net/http"

	"fashionai/avatar-api/config"
	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/pkg/middleware"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// Cookies older clients may still hold
var (
	sessionCookies = []string{"token", "refreshToken", "sessionId"}
	legacyCookies  = []string{"auth-token", "user-session"}
)

// UserLogout revokes the presented token and clears every session
// cookie
func UserLogout(c *gin.Context, d *internal.Deps) {
	if err := d.Auth.Logout(c.Request.Context(), middleware.Claims(c)); err != nil {
		response.Fail(c, err)
		return
	}

	secure := config.IsProduction()

	c.SetSameSite(http.SameSiteStrictMode)
	for _, name := range sessionCookies {
		c.SetCookie(name, "", -1, "/", "", secure, true)
	}

	c.SetSameSite(http.SameSiteDefaultMode)
	for _, name := range legacyCookies {
		c.SetCookie(name, "", -1, "/", "", false, false)
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Clear-Site-Data", `"cache", "cookies", "storage"`)
	c.Header("X-Logout-Complete", "true")

	response.Success(c, "Logged out successfully", gin.H{
		"success": true,
		"message": "All sessions and tokens have been cleared",
	})
}
