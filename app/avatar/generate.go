package avatar

import (
	"net/http"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/apperr"
	"fashionai/avatar-api/internal/service"
	"fashionai/avatar-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type generateBody struct {
	Gender   string `json:"gender"`
	SkinTone string `json:"skinTone"`
	Provider string `json:"provider"`
}

// AvatarGenerate renders every view of a new avatar and stores it
func AvatarGenerate(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		response.FailShort(c, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	res, err := d.Avatars.Generate(c.Request.Context(), service.GenerateRequest{
		UserID:   c.GetString("userID"),
		Gender:   body.Gender,
		SkinTone: body.SkinTone,
		Provider: body.Provider,
	})
	if err != nil {
		response.FailShort(c, err)
		return
	}

	zap.L().Info("Avatar generated",
		zap.String("avatarID", res.AvatarID),
		zap.String("provider", res.Meta.Provider),
		zap.String("requestID", requestID),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"avatarId": res.AvatarID,
		"images":   res.Images,
		"meta":     res.Meta,
	})
}
