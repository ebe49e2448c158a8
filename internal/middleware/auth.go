package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/services"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey      = "userID"
	EmailKey       = "email"
	AccessTokenKey = "accessToken"
)

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	Session(ctx context.Context, accessToken string) (*services.Session, error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware verifies the bearer token and sets the user in the context
func AuthMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		token, ok := BearerToken(authHeader)
		if !ok {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		session, err := resolver.Session(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(UserIDKey, session.User.ID)
		c.Set(EmailKey, session.User.Email)
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}
