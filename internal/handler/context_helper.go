package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tutorlane/tutorhub-api/internal/middleware"
	"github.com/tutorlane/tutorhub-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// isAdmin reports whether the authenticated caller holds the admin role.
// Overriding conflicts with force is reserved to admins.
func isAdmin(c *gin.Context) bool {
	claims := claimsFromContext(c)
	return claims != nil && claims.Role == models.RoleAdmin
}
