package middleware

import (
	"strings"

	"trip-planner/auth"
	"trip-planner/internal/domain"
	"trip-planner/internal/errors"
	"trip-planner/redis"

	"github.com/gin-gonic/gin"
)

// UserProvider resolves principals against the current directory.
type UserProvider interface {
	GetUser(username string) (*domain.User, error)
}

type Auth struct {
	UserService UserProvider
}

// AuthMiddleWare resolves the request's principal. The token comes
// from the Authorization header or, for EventSource connections that
// cannot set headers, from the token query parameter.
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		var token string
		tokenQuery := ctx.Query("token")

		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery != "" {
			token = tokenQuery
		} else {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		parsedToken, err := auth.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		username, err := auth.UsernameFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		if !redis.SessionAlive(token) {
			ctx.Error(errors.Unauthorized("Token expired or revoked", nil))
			ctx.Abort()
			return
		}

		// The principal must still exist in the directory; deleted
		// users lose access immediately, not at token expiry.
		if _, err := m.UserService.GetUser(username); err != nil {
			ctx.Error(errors.Unauthorized("Unknown user", err))
			ctx.Abort()
			return
		}

		ctx.Set("username", username)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}

// AdminMiddleware gates a route to the admin role, looked up fresh on
// every request. Must run after AuthMiddleWare.
func (m *Auth) AdminMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username := ctx.GetString("username")

		u, err := m.UserService.GetUser(username)
		if err != nil || !u.IsAdmin() {
			ctx.Error(errors.Forbidden("Admin role required", err))
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
