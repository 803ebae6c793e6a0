package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"storefront/catalog/internal/auth"
)

const identityKey = "identity"

// RequestLogger logs every request through logrus once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

// AdminOnly lets through callers whose bearer token the identity service issued with the admin role.
func AdminOnly(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse(c, "Unauthorized - no token provided"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse(c, "Unauthorized - invalid token format"))
			return
		}

		identity, err := verifier.Verify(parts[1])
		if err != nil {
			log.Debugf("[auth] invalid token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse(c, "Unauthorized - invalid token"))
			return
		}

		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse(c, "Forbidden - admin role required"))
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func currentIdentity(c *gin.Context) (*auth.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*auth.Identity)
	return identity, ok && identity != nil
}

// audit returns a log entry tagged with the administrator behind the request.
func audit(c *gin.Context) *log.Entry {
	subject := "unknown"
	if identity, ok := currentIdentity(c); ok && identity.Subject != "" {
		subject = identity.Subject
	}
	return log.WithFields(log.Fields{
		"admin":  subject,
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
}
