package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"seswa/internal/domain"
	"seswa/internal/pkg/jwt"
	"seswa/internal/pkg/response"
)

const (
	ctxUserID      = "user_id"
	ctxRole        = "role"
	ctxCurrentUser = "current_user"
)

// JWTAuth validates the bearer token and stores the caller as the request's
// current user. Browsers cannot set headers on websocket upgrades, so the
// token may also come from the access_token query parameter.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, code, msg := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, code, msg)
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxCurrentUser, domain.CurrentUser{
			User: domain.User{
				ID:        claims.UserID,
				FirstName: claims.FirstName,
				LastName:  claims.LastName,
				Email:     claims.Email,
				Role:      domain.UserRole(claims.Role),
			},
			Authenticated: true,
		})
		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, code, msg string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if t := c.Query("access_token"); t != "" {
			return t, "", ""
		}
		return "", "AUTH_HEADER_MISSING", "Authorization header is required"
	}

	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be: Bearer <token>"
	}
	return strings.TrimSpace(value), "", ""
}

// CurrentUser returns the caller set by JWTAuth. Without JWTAuth the zero
// value, which is not Active, is returned.
func CurrentUser(c *gin.Context) domain.CurrentUser {
	v, ok := c.Get(ctxCurrentUser)
	if !ok {
		return domain.CurrentUser{}
	}
	cu, _ := v.(domain.CurrentUser)
	return cu
}
