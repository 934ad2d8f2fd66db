package dashboard

import (
	"time"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// DashboardFetch returns the caller's identity and login statistics
func DashboardFetch(c *gin.Context, d *internal.Deps) {
	data, err := d.Users.Dashboard(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	// Accounts that only ever registered report the current time
	if data.Stats.LastLogin == nil {
		now := time.Now()
		data.Stats.LastLogin = &now
	}

	response.Success(c, "Dashboard data retrieved successfully", data)
}
