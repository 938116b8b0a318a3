package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/domain/tenant"
)

// tenantContextKey is the gin context key under which the resolved tenant is stored
const tenantContextKey = "tenant_context"

// StaffAuth validates the Bearer token on staff routes and resolves it into a
// tenant context. Tokens carry the staff user id in "sub" and the organization
// id in "org". Portal routes do not use this middleware; they are authorized
// by magic-link token instead.
func StaffAuth(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid token format")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		tc, err := tenantFromClaims(claims)
		if err != nil {
			abortUnauthorized(c, "Invalid identity in token")
			return
		}

		c.Set(tenantContextKey, tc)
		c.Next()
	}
}

// GetTenant retrieves the resolved tenant context from the gin context
func GetTenant(c *gin.Context) (tenant.Context, error) {
	v, exists := c.Get(tenantContextKey)
	if !exists {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}
	tc, ok := v.(tenant.Context)
	if !ok || !tc.Valid() {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}
	return tc, nil
}

func tenantFromClaims(claims jwt.MapClaims) (tenant.Context, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}
	org, ok := claims["org"].(string)
	if !ok {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}

	actorID, err := uuid.Parse(sub)
	if err != nil {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}
	orgID, err := uuid.Parse(org)
	if err != nil {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}

	tc := tenant.Context{OrganizationID: orgID, ActorID: actorID}
	if !tc.Valid() {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}
	return tc, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, response)
}
