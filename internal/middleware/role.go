package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"culturin/internal/pkg/response"
)

// RequireRole ensures that the authenticated caller has the specified role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}
		if role != requiredRole {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequireOwnSlug rejects operators acting on another operator's :slug.
func RequireOwnSlug() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("operator_slug") != c.Param("slug") {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "You don't own this site")
			return
		}
		c.Next()
	}
}
