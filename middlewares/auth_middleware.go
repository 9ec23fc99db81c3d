package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/softex1/tably-paket1/utils"
)

const (
	ContextAdminID  = "admin_id"
	ContextUsername = "username"
)

// AdminAuth accepts a Bearer token, or a ?token= query parameter for
// websocket clients that cannot set headers.
func AdminAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				utils.RespondError(c, utils.Unauthenticated("Invalid authorization header"))
				c.Abort()
				return
			}
			token = strings.TrimPrefix(header, "Bearer ")
		} else {
			token = c.Query("token")
		}

		if token == "" {
			utils.RespondError(c, utils.Unauthenticated("Authorization required"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, token)
		if err != nil {
			utils.RespondError(c, utils.Unauthenticated("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextAdminID, claims.AdminID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// AdminID returns the authenticated admin set by AdminAuth.
func AdminID(c *gin.Context) uint {
	return c.GetUint(ContextAdminID)
}
