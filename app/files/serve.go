package files

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"fashionai/avatar-api/internal"
	"fashionai/avatar-api/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var servedDirs = []string{storage.AvatarsDir, storage.UserDir, storage.ChatDir}

func servable(key string) bool {
	for _, dir := range servedDirs {
		if strings.HasPrefix(key, dir+"/") {
			return true
		}
	}

	return false
}

// FileServe streams an uploaded or generated file from storage
func FileServe(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	key, err := storage.CleanKey(strings.TrimPrefix(c.Param("path"), "/"))
	if err != nil || !servable(key) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "File not found",
			"requestID": requestID,
		})
		return
	}

	r, size, err := d.Store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "File not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open stored file", zap.String("key", key), zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer r.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, size, contentType, r, map[string]string{
		"Cache-Control":          "public, max-age=86400",
		"X-Content-Type-Options": "nosniff",
	})
}
