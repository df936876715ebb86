package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/auth"
	"github.com/gin-gonic/gin"
)

const callerKey = "carelink.caller"

type errorBody struct {
	Error string `json:"error"`
}

// Authenticate requires a valid bearer access token and stores the caller on
// the gin context for handlers to pick up with CallerFrom.
func Authenticate(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing or invalid authorization header"})
			return
		}

		claims, err := jwtManager.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: msg})
			return
		}

		c.Set(callerKey, domain.Caller{
			ID:        claims.UserID,
			Role:      claims.Role,
			IsStaff:   claims.IsStaff,
			IP:        c.ClientIP(),
			RequestID: RequestIDFrom(c),
		})
		c.Next()
	}
}

// CallerFrom returns the authenticated caller, if Authenticate ran.
func CallerFrom(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}
