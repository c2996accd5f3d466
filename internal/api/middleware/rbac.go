package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"greenledger.io/greenledger/internal/domain"
)

// RequirePermission returns middleware that checks if the authenticated user
// has a specific global permission (from their platform role).
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, exists := c.Get("permissions")
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "FORBIDDEN", "message": "no permissions in context",
			})
			return
		}
		permList, ok := perms.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "FORBIDDEN", "message": "invalid permissions type",
			})
			return
		}

		// platform:admin is the explicit super-admin permission. It opens
		// routes, not documents: decryption has its own policy.
		if slices.Contains(permList, domain.PermissionPlatformAdmin) {
			c.Next()
			return
		}

		if slices.Contains(permList, permission) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code": "FORBIDDEN", "message": "insufficient permissions",
		})
	}
}

// RequireOrganization rejects actors without an organization.
func RequireOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c.Request.Context())
		if !ok || actor.OrganizationID == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "FORBIDDEN", "message": "organization membership required",
			})
			return
		}
		c.Next()
	}
}
