package middleware

import (
	"context"
	"net/http"
	"strings"

	"fashionai/avatar-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RevocationChecker reports whether a token id was logged out
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func abortAuth(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": msg,
	})
}

// NewJWTMiddleware requires a valid bearer token. On success userID and
// claims are set on the context.
func NewJWTMiddleware(tokens *security.TokenIssuer, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			abortAuth(c, http.StatusUnauthorized, "Access token required")
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(tokenStr))
		if err != nil {
			zap.L().Debug("Rejected token", zap.Error(err), zap.String("requestID", requestID))
			abortAuth(c, http.StatusForbidden, "Invalid or expired token")
			return
		}

		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Fail closed, a logged out token must never get through
				zap.L().Error("Failed to check token revocation", zap.Error(err), zap.String("requestID", requestID))
				abortAuth(c, http.StatusInternalServerError, "Internal server error")
				return
			}

			if isRevoked {
				abortAuth(c, http.StatusForbidden, "Invalid or expired token")
				return
			}
		}

		c.Set("userID", claims.UserID)
		c.Set("claims", claims)
		c.Next()
	}
}

// Claims returns what NewJWTMiddleware stored, nil on public routes
func Claims(c *gin.Context) *security.Claims {
	v, ok := c.Get("claims")
	if !ok {
		return nil
	}

	claims, _ := v.(*security.Claims)
	return claims
}
