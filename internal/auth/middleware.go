package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusattend/internal/authz"
)

const claimsKey = "claims"

// UserAuth enforces bearer JWT tokens signed with HS256 and stows the
// claims in the request context.
func UserAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authzHeader := c.GetHeader("Authorization")
		if authzHeader == "" || !strings.HasPrefix(strings.ToLower(authzHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authzHeader[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !authz.Role(claims.Role).Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unrecognized role"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// CallerFrom extracts the authenticated caller stored by UserAuth.
func CallerFrom(c *gin.Context) authz.Caller {
	claimsAny, _ := c.Get(claimsKey)
	claims, _ := claimsAny.(Claims)
	return authz.Caller{ID: claims.UserID, Role: authz.Role(claims.Role)}
}
