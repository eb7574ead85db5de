package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"kardex/internal/core/actor"
	"kardex/internal/core/apperror"
)

// Actor extracts the posting actor from a bearer token and stores it in
// the request context. Requests without a token proceed anonymously and
// are recorded under the system actor; an invalid token is rejected.
//
// The display name falls back through the claims the way the upstream
// identity provider fills them: username, then name, then email.
func Actor(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == header {
			_ = c.Error(apperror.NewUnauthorized("authorization header must use the Bearer scheme"))
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token").WithCause(err))
			c.Abort()
			return
		}

		a := actor.Actor{
			Name:  claimString(claims, "username", "name", "email"),
			Email: claimString(claims, "email"),
		}
		if a.Name != "" {
			ctx := actor.WithActor(c.Request.Context(), a)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
