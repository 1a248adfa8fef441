package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"seswa/internal/pkg/logger"
	"seswa/internal/pkg/response"
	"seswa/internal/session"
)

// Session opens, or reuses, the caller's session and attaches it to the
// request context. It must run after JWTAuth.
func Session(manager *session.Manager, log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		s, err := manager.GetOrOpen(c.Request.Context(), CurrentUser(c))
		if err != nil {
			if errors.Is(err, session.ErrNotAuthenticated) {
				response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
				return
			}
			log.Error("open session failed", zap.Error(err))
			response.Abort(c, http.StatusInternalServerError, "SESSION_FAILED", "Failed to open session")
			return
		}

		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}
