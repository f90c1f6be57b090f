package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hausledger/backend/internal/logger"
)

// Middleware verifies the Firebase ID token on every request and puts the
// user claims into the request context. Requests without a valid token are
// rejected before any handler runs.
func Middleware(fb *FirebaseAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		idToken, err := ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := fb.VerifyToken(c.Request.Context(), idToken)
		if err != nil {
			log := logger.FromContext(c.Request.Context())
			log.Warn().Err(err).Msg("token verification failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Request = c.Request.WithContext(withUserClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// LocalDevMiddleware injects a mock user for local development. Never wire
// this up in production.
func LocalDevMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &UserClaims{
			UID:         "local-dev-user",
			Email:       "dev@localhost",
			DisplayName: "Local Dev User",
			Verified:    true,
		}
		c.Request = c.Request.WithContext(withUserClaims(c.Request.Context(), claims))
		c.Next()
	}
}
