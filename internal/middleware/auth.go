package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"billdesk/internal/auth"
	"billdesk/internal/models"
)

const (
	ContextUserID   = "userId"
	ContextTenantID = "tenantId"
	ContextRole     = "role"
)

// RequireAuth validates the bearer token and injects the acting identity
// into the request context.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, err := auth.ValidateToken(parts[1], secret)
		if err != nil {
			log.Warn().Err(err).Msg("token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userID, tenantID, err := claims.Identity()
		if err != nil {
			log.Warn().Err(err).Msg("token identity invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextTenantID, tenantID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// AdminOnly rejects callers whose token does not carry the admin role.
// Must run after RequireAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CallerIDs pulls the authenticated user and tenant ids from the context.
func CallerIDs(c *gin.Context) (userID, tenantID primitive.ObjectID, ok bool) {
	userValue, exists := c.Get(ContextUserID)
	if !exists {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	tenantValue, exists := c.Get(ContextTenantID)
	if !exists {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	userID, _ = userValue.(primitive.ObjectID)
	tenantID, _ = tenantValue.(primitive.ObjectID)
	return userID, tenantID, !userID.IsZero() && !tenantID.IsZero()
}

// CallerIsAdmin reports whether the authenticated caller has the admin role.
func CallerIsAdmin(c *gin.Context) bool {
	role, _ := c.Get(ContextRole)
	return role == models.RoleAdmin
}
