package ai

import (
	"net/http"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/service"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
)

var errInvalidBody = apperr.New(apperr.Validation, "Invalid request body")

type createSessionBody struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

func SessionList(c *gin.Context, d *internal.Deps) {
	sessions, err := d.Chat.ListSessions(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.FailBare(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func SessionCreate(c *gin.Context, d *internal.Deps) {
	var body createSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.FailBare(c, errInvalidBody)
		return
	}

	sess, err := d.Chat.CreateSession(c.Request.Context(), c.GetString("userID"), body.Name, body.Model)
	if err != nil {
		response.FailBare(c, err)
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// SessionUpdate renames a session, switches its model or replaces its
// message history
func SessionUpdate(c *gin.Context, d *internal.Deps) {
	var body service.SessionUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		response.FailBare(c, errInvalidBody)
		return
	}

	sess, err := d.Chat.UpdateSession(c.Request.Context(), c.GetString("userID"), c.Param("sessionId"), body)
	if err != nil {
		response.FailBare(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func SessionDelete(c *gin.Context, d *internal.Deps) {
	if err := d.Chat.DeleteSession(c.Request.Context(), c.GetString("userID"), c.Param("sessionId")); err != nil {
		response.FailBare(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

// Models lists the chat models sessions can be created with
func Models(c *gin.Context, d *internal.Deps) {
	c.JSON(http.StatusOK, gin.H{
		"models":  d.Chat.Models(),
		"default": service.DefaultChatModel,
	})
}
