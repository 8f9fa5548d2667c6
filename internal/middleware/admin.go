package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated caller has the ADMIN role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetCaller(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
